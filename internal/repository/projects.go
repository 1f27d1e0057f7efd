package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

// ProjectUpdate carries the fields a PUT may change. Nil fields are left alone.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// ListProjects returns all projects, newest first.
func (r *Repository) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns nil when the project does not exist.
func (r *Repository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return r.getProject(ctx, r.db, id)
}

func (r *Repository) getProject(ctx context.Context, q db.Querier, id string) (*models.Project, error) {
	var p models.Project
	found, err := getOne(ctx, q, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project and reads it back.
func (r *Repository) CreateProject(ctx context.Context, name string, description *string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("Project name is required")
	}
	id := uuid.NewString()
	now := r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, description, now, now)
	if err != nil {
		return nil, err
	}
	return r.GetProject(ctx, id)
}

// UpdateProject applies upd and returns the updated project, or nil if it does not exist.
func (r *Repository) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperrors.Validation("Project name cannot be empty")
	}
	existing, err := r.GetProject(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	name := existing.Name
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
	}
	description := existing.Description
	if upd.Description != nil {
		description = upd.Description
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, r.now(), id)
	if err != nil {
		return nil, err
	}
	return r.GetProject(ctx, id)
}

// DeleteProject removes the project with all of its folders, videos, versions and
// comments in one transaction. It returns nil when the project does not exist.
func (r *Repository) DeleteProject(ctx context.Context, id string) (*DeleteResult, error) {
	var result *DeleteResult
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		result = nil
		project, err := r.getProject(ctx, tx, id)
		if err != nil || project == nil {
			return err
		}

		var paths []string
		if err := tx.SelectContext(ctx, &paths,
			`SELECT file_path FROM videos WHERE project_id = ? UNION SELECT file_path FROM video_versions WHERE project_id = ?`,
			id, id); err != nil {
			return err
		}

		for _, stmt := range []string{
			`DELETE FROM comments WHERE project_id = ?`,
			`DELETE FROM video_versions WHERE project_id = ?`,
			`DELETE FROM videos WHERE project_id = ?`,
			`DELETE FROM folders WHERE project_id = ?`,
			`DELETE FROM projects WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
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
	if result != nil {
		r.logger.WithField("project_id", id).Info("Project deleted")
	}
	return result, nil
}
