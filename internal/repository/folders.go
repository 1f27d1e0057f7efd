package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

// FolderUpdate carries the fields a PUT may change. ParentID set to an empty string
// moves the folder to the top level.
type FolderUpdate struct {
	Name     *string
	ParentID *string
}

// ListFolders returns a project's folders in creation order.
func (r *Repository) ListFolders(ctx context.Context, projectID string) ([]*models.Folder, error) {
	return r.listFolders(ctx, r.db, projectID)
}

func (r *Repository) listFolders(ctx context.Context, q db.Querier, projectID string) ([]*models.Folder, error) {
	folders := []*models.Folder{}
	err := q.SelectContext(ctx, &folders,
		`SELECT `+folderColumns+` FROM folders WHERE project_id = ? ORDER BY created_at ASC, rowid ASC`, projectID)
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// GetFolder returns nil when the folder does not exist.
func (r *Repository) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return r.getFolder(ctx, r.db, id)
}

func (r *Repository) getFolder(ctx context.Context, q db.Querier, id string) (*models.Folder, error) {
	var f models.Folder
	found, err := getOne(ctx, q, &f, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &f, nil
}

func folderNameTaken(ctx context.Context, q db.Querier, projectID, name, exceptID string) (bool, error) {
	var count int
	err := q.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM folders WHERE project_id = ? AND name = ? AND id <> ?`, projectID, name, exceptID)
	return count > 0, err
}

// CreateFolder adds a folder to a project. Folder names are unique per project.
func (r *Repository) CreateFolder(ctx context.Context, projectID, name string, parentID *string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("Folder name is required")
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	id := uuid.NewString()
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		project, err := r.getProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project == nil {
			return apperrors.NotFound("Project not found")
		}
		if parentID != nil {
			parent, err := r.getFolder(ctx, tx, *parentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.ProjectID != projectID {
				return apperrors.Validation("Parent folder not found in this project")
			}
		}
		taken, err := folderNameTaken(ctx, tx, projectID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.Conflict("A folder named %q already exists in this project", name)
		}
		now := r.now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO folders (id, project_id, name, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, projectID, name, parentID, now, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetFolder(ctx, id)
}

// UpdateFolder renames or moves a folder. It returns nil when the folder does not exist.
func (r *Repository) UpdateFolder(ctx context.Context, id string, upd FolderUpdate) (*models.Folder, error) {
	var missing bool
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		missing = false
		folder, err := r.getFolder(ctx, tx, id)
		if err != nil {
			return err
		}
		if folder == nil {
			missing = true
			return nil
		}

		name := folder.Name
		if upd.Name != nil {
			name = strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperrors.Validation("Folder name cannot be empty")
			}
			taken, err := folderNameTaken(ctx, tx, folder.ProjectID, name, id)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict("A folder named %q already exists in this project", name)
			}
		}

		parentID := folder.ParentID
		if upd.ParentID != nil {
			if *upd.ParentID == "" {
				parentID = nil
			} else {
				if err := r.checkFolderMove(ctx, tx, folder, *upd.ParentID); err != nil {
					return err
				}
				parentID = upd.ParentID
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE folders SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?`,
			name, parentID, r.now(), id)
		return err
	})
	if err != nil || missing {
		return nil, err
	}
	return r.GetFolder(ctx, id)
}

// checkFolderMove rejects parents outside the project and moves that would create a cycle.
func (r *Repository) checkFolderMove(ctx context.Context, tx db.Querier, folder *models.Folder, parentID string) error {
	if parentID == folder.ID {
		return apperrors.Validation("A folder cannot be its own parent")
	}
	folders, err := r.listFolders(ctx, tx, folder.ProjectID)
	if err != nil {
		return err
	}
	var parentExists bool
	for _, f := range folders {
		if f.ID == parentID {
			parentExists = true
			break
		}
	}
	if !parentExists {
		return apperrors.Validation("Parent folder not found in this project")
	}
	for _, d := range descendantFolderIDs(folders, folder.ID) {
		if d == parentID {
			return apperrors.Validation("A folder cannot be moved into its own subfolder")
		}
	}
	return nil
}

// descendantFolderIDs returns rootID followed by every folder nested below it.
func descendantFolderIDs(folders []*models.Folder, rootID string) []string {
	children := make(map[string][]string, len(folders))
	for _, f := range folders {
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], f.ID)
		}
	}
	ids := []string{rootID}
	seen := map[string]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, c := range children[ids[i]] {
			if !seen[c] {
				seen[c] = true
				ids = append(ids, c)
			}
		}
	}
	return ids
}

// DeleteFolder removes a folder, its subfolders and everything stored in them in one
// transaction, including hidden videos merged into them from elsewhere. It returns nil when the folder does not exist.
func (r *Repository) DeleteFolder(ctx context.Context, id string) (*DeleteResult, error) {
	var result *DeleteResult
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		result = nil
		folder, err := r.getFolder(ctx, tx, id)
		if err != nil || folder == nil {
			return err
		}
		folders, err := r.listFolders(ctx, tx, folder.ProjectID)
		if err != nil {
			return err
		}
		ids := descendantFolderIDs(folders, id)

		query, args, err := sqlx.In(`
			SELECT file_path FROM videos WHERE folder_id IN (?)
			UNION
			SELECT file_path FROM video_versions WHERE folder_id IN (?)`, ids, ids)
		if err != nil {
			return err
		}
		var paths []string
		if err := tx.SelectContext(ctx, &paths, query, args...); err != nil {
			return err
		}

		// Hidden videos merged into this subtree may live in other folders.
		query, args, err = sqlx.In(`SELECT id FROM videos WHERE folder_id IN (?)`, ids)
		if err != nil {
			return err
		}
		var videoIDs []string
		if err := tx.SelectContext(ctx, &videoIDs, query, args...); err != nil {
			return err
		}
		merged, err := mergedSourceIDs(ctx, tx, videoIDs)
		if err != nil {
			return err
		}
		mergedPaths, err := deleteVideos(ctx, tx, merged)
		if err != nil {
			return err
		}
		paths = append(paths, mergedPaths...)

		for _, stmt := range []string{
			`DELETE FROM comments WHERE folder_id IN (?)`,
			`DELETE FROM video_versions WHERE folder_id IN (?)`,
			`DELETE FROM videos WHERE folder_id IN (?)`,
			`DELETE FROM folders WHERE id IN (?)`,
		} {
			query, args, err := sqlx.In(stmt, ids)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
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
