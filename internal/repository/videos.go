package repository

import (
	"context"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

// VideoUpdate carries the metadata a PUT may change.
type VideoUpdate struct {
	Name     *string
	Duration *float64
}

// ListVideos returns the visible videos of a folder, newest first, each with its
// versions embedded (newest first). Videos merged into another video as a version
// are hidden and not listed.
func (r *Repository) ListVideos(ctx context.Context, projectID, folderID string) ([]models.Video, error) {
	videos := []models.Video{}
	err := r.db.SelectContext(ctx, &videos,
		`SELECT `+videoColumns+` FROM videos
		 WHERE project_id = ? AND folder_id = ? AND is_hidden = 0
		 ORDER BY created_at DESC, rowid DESC`, projectID, folderID)
	if err != nil {
		return nil, err
	}

	var versions []models.VideoVersion
	err = r.db.SelectContext(ctx, &versions,
		`SELECT `+versionColumns+` FROM video_versions
		 WHERE project_id = ? AND folder_id = ?
		 ORDER BY created_at DESC, rowid DESC`, projectID, folderID)
	if err != nil {
		return nil, err
	}
	byVideo := make(map[string][]models.VideoVersion)
	for _, v := range versions {
		byVideo[v.VideoID] = append(byVideo[v.VideoID], v)
	}
	for i := range videos {
		videos[i].Versions = byVideo[videos[i].ID]
	}
	return videos, nil
}

// GetVideo returns nil when the video does not exist. Hidden videos are still returned.
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	return r.getVideo(ctx, r.db, id)
}

func (r *Repository) getVideo(ctx context.Context, q db.Querier, id string) (*models.Video, error) {
	var v models.Video
	found, err := getOne(ctx, q, &v, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// CreateVideo records an ingested file. Status starts at no_status, the video is
// visible and the duration stays empty until the client reports it.
func (r *Repository) CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error) {
	if v.ID == "" || v.ProjectID == "" || v.FolderID == "" || v.FilePath == "" {
		return nil, apperrors.Validation("Video id, project, folder and file path are required")
	}
	now := r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, project_id, folder_id, name, file_path, file_size, file_type, duration, video_status, is_hidden, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, 0, ?, ?)`,
		v.ID, v.ProjectID, v.FolderID, v.Name, v.FilePath, v.FileSize, v.FileType,
		models.VideoStatusNoStatus, now, now)
	if err != nil {
		return nil, err
	}
	return r.GetVideo(ctx, v.ID)
}

// UpdateVideo changes the name and/or the measured duration. It returns nil when the
// video does not exist.
func (r *Repository) UpdateVideo(ctx context.Context, id string, upd VideoUpdate) (*models.Video, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperrors.Validation("Video name cannot be empty")
	}
	if upd.Duration != nil && (math.IsNaN(*upd.Duration) || math.IsInf(*upd.Duration, 0) || *upd.Duration < 0) {
		return nil, apperrors.Validation("Duration must be a finite, non-negative number of seconds")
	}
	existing, err := r.GetVideo(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	name := existing.Name
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
	}
	duration := existing.Duration
	if upd.Duration != nil {
		duration = upd.Duration
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE videos SET name = ?, duration = ?, updated_at = ? WHERE id = ?`,
		name, duration, r.now(), id)
	if err != nil {
		return nil, err
	}
	return r.GetVideo(ctx, id)
}

// UpdateVideoStatus sets the review status. It returns nil when the video does not exist.
func (r *Repository) UpdateVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Invalid video_status %q", status).
			WithDetails([]models.VideoStatus{
				models.VideoStatusNoStatus, models.VideoStatusInProgress, models.VideoStatusReview,
				models.VideoStatusApproved, models.VideoStatusRejected,
			})
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET video_status = ?, updated_at = ? WHERE id = ?`, status, r.now(), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return r.GetVideo(ctx, id)
}

// DeleteVideo removes a video with its versions and comments in one transaction.
// Hidden videos that were merged into it go too, since nothing lists them once their
// target is gone. It returns nil when the video does not exist.
func (r *Repository) DeleteVideo(ctx context.Context, id string) (*DeleteResult, error) {
	var result *DeleteResult
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		result = nil
		video, err := r.getVideo(ctx, tx, id)
		if err != nil || video == nil {
			return err
		}
		merged, err := mergedSourceIDs(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		paths, err := deleteVideos(ctx, tx, append([]string{id}, merged...))
		if err != nil {
			return err
		}
		orphans, err := unreferencedPaths(ctx, tx, paths)
		if err != nil {
			return err
		}
		result = &DeleteResult{OrphanedFiles: orphans}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mergedSourceIDs lists the hidden videos folded into any of targets, excluding the
// targets themselves.
func mergedSourceIDs(ctx context.Context, tx db.Querier, targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT v.id FROM videos v
		  JOIN video_versions vv ON vv.source_video_id = v.id
		 WHERE vv.video_id IN (?) AND v.is_hidden = 1 AND v.id NOT IN (?)`, targets, targets)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

// deleteVideos removes the videos with their versions and comments and returns every
// file path they pointed at.
func deleteVideos(ctx context.Context, tx db.Querier, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT file_path FROM videos WHERE id IN (?)
		UNION
		SELECT file_path FROM video_versions WHERE video_id IN (?)`, ids, ids)
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := tx.SelectContext(ctx, &paths, query, args...); err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM comments WHERE video_id IN (?)`,
		`DELETE FROM video_versions WHERE video_id IN (?)`,
		`DELETE FROM videos WHERE id IN (?)`,
	} {
		query, args, err := sqlx.In(stmt, ids)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
