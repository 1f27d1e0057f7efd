package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

// CommentInput is a new comment as submitted by a client. VideoTime and DrawingData
// are accepted in any of the shapes NormalizeVideoTime and NormalizeDrawingData handle.
type CommentInput struct {
	ProjectID   string
	FolderID    string
	VideoID     string
	ParentID    *string
	UserName    string
	UserEmail   string
	Text        string
	VideoTime   interface{}
	DrawingData interface{}
}

// CommentUpdate carries an edit. DrawingData is applied only when SetDrawing is true;
// a nil DrawingData with SetDrawing clears the drawing.
type CommentUpdate struct {
	Text        *string
	DrawingData interface{}
	SetDrawing  bool
	Resolved    *bool
}

// GetComments returns the comments of a video as a forest ordered by creation time.
func (r *Repository) GetComments(ctx context.Context, projectID, folderID, videoID string) ([]*models.Comment, error) {
	flat := []*models.Comment{}
	err := r.db.SelectContext(ctx, &flat,
		`SELECT `+commentColumns+` FROM comments
		 WHERE project_id = ? AND folder_id = ? AND video_id = ?
		 ORDER BY created_at ASC, rowid ASC`, projectID, folderID, videoID)
	if err != nil {
		return nil, err
	}
	for _, c := range flat {
		c.DrawingData.SettleTimestamp(c.VideoTime)
	}
	return BuildCommentTree(flat, r.logger), nil
}

// GetComment returns nil when the comment does not exist.
func (r *Repository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	return r.getComment(ctx, r.db, id)
}

func (r *Repository) getComment(ctx context.Context, q db.Querier, id string) (*models.Comment, error) {
	var c models.Comment
	found, err := getOne(ctx, q, &c, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	c.DrawingData.SettleTimestamp(c.VideoTime)
	return &c, nil
}

// CreateComment stores a comment or reply. A reply always takes its project, folder
// and video from the parent, whatever the client sent.
func (r *Repository) CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		return nil, apperrors.Validation("user_name is required")
	}
	videoTime := NormalizeVideoTime(in.VideoTime)
	drawing, err := NormalizeDrawingData(in.DrawingData, videoTime)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" && drawing == nil {
		return nil, apperrors.Validation("text or drawing_data is required")
	}

	id := uuid.NewString()
	err = r.db.InTx(ctx, func(tx db.Querier) error {
		projectID, folderID, videoID := in.ProjectID, in.FolderID, in.VideoID
		var parentID *string
		if in.ParentID != nil && *in.ParentID != "" {
			parent, err := r.getComment(ctx, tx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return apperrors.NotFound("Parent comment not found")
			}
			if parent.VideoID != videoID {
				r.logger.WithFields(logrus.Fields{
					"parent_id":       parent.ID,
					"parent_video_id": parent.VideoID,
					"request_video":   videoID,
				}).Warn("Reply targets a different video than its parent; using the parent's")
			}
			projectID, folderID, videoID = parent.ProjectID, parent.FolderID, parent.VideoID
			parentID = &parent.ID
		} else {
			video, err := r.getVideo(ctx, tx, videoID)
			if err != nil {
				return err
			}
			if video == nil || video.ProjectID != projectID || video.FolderID != folderID {
				return apperrors.NotFound("Video not found")
			}
		}

		now := r.now()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comments (id, project_id, folder_id, video_id, parent_id, user_name, user_email, text, video_time, drawing_data, likes, liked_by, resolved, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '[]', 0, ?, ?)`,
			id, projectID, folderID, videoID, parentID, userName, strings.TrimSpace(in.UserEmail), text, videoTime, drawing, now, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetComment(ctx, id)
}

// UpdateComment edits text, drawing or the resolved flag. It returns nil when the
// comment does not exist.
func (r *Repository) UpdateComment(ctx context.Context, id string, upd CommentUpdate) (*models.Comment, error) {
	existing, err := r.GetComment(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	text := existing.Text
	if upd.Text != nil {
		text = strings.TrimSpace(*upd.Text)
	}
	drawing := existing.DrawingData
	if upd.SetDrawing {
		drawing, err = NormalizeDrawingData(upd.DrawingData, existing.VideoTime)
		if err != nil {
			return nil, err
		}
	}
	if text == "" && drawing == nil {
		return nil, apperrors.Validation("text or drawing_data is required")
	}
	resolved := existing.Resolved
	if upd.Resolved != nil {
		resolved = *upd.Resolved
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE comments SET text = ?, drawing_data = ?, resolved = ?, updated_at = ? WHERE id = ?`,
		text, drawing, resolved, r.now(), id)
	if err != nil {
		return nil, err
	}
	return r.GetComment(ctx, id)
}

// DeleteComment removes a comment and every reply below it, deepest replies first.
// It reports false when the comment does not exist.
func (r *Repository) DeleteComment(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		found = false
		c, err := r.getComment(ctx, tx, id)
		if err != nil || c == nil {
			return err
		}
		found = true

		levels := [][]string{{id}}
		seen := map[string]bool{id: true}
		for {
			query, args, err := sqlx.In(`SELECT id FROM comments WHERE parent_id IN (?)`, levels[len(levels)-1])
			if err != nil {
				return err
			}
			var children []string
			if err := tx.SelectContext(ctx, &children, query, args...); err != nil {
				return err
			}
			var next []string
			for _, child := range children {
				if !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
			if len(next) == 0 {
				break
			}
			levels = append(levels, next)
		}

		for i := len(levels) - 1; i >= 0; i-- {
			query, args, err := sqlx.In(`DELETE FROM comments WHERE id IN (?)`, levels[i])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	return found, err
}

// ToggleCommentLike adds email to the comment's likes, or removes it if already
// present, updating the counter and the set in one statement. It returns nil when
// the comment does not exist.
func (r *Repository) ToggleCommentLike(ctx context.Context, id, email string) (*models.Comment, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}
	var found bool
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		found = false
		c, err := r.getComment(ctx, tx, id)
		if err != nil || c == nil {
			return err
		}
		found = true

		likes := c.Likes
		likedBy := c.LikedBy
		if likedBy.Has(email) {
			likedBy = likedBy.Remove(email)
			if likes > 0 {
				likes--
			}
		} else {
			likedBy = likedBy.Add(email)
			likes++
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET likes = ?, liked_by = ?, updated_at = ? WHERE id = ?`,
			likes, likedBy, r.now(), id)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return r.GetComment(ctx, id)
}
