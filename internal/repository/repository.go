// Package repository holds the CRUD operations over projects, folders, videos, versions
// and comments. Lookups that miss return a nil entity and a nil error; every other
// failure is an *apperrors.Error.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"videoreview/internal/db"
)

const (
	projectColumns = "id, name, description, created_at, updated_at"
	folderColumns  = "id, project_id, name, parent_id, created_at, updated_at"
	videoColumns   = "id, project_id, folder_id, name, file_path, file_size, file_type, duration, video_status, is_hidden, created_at, updated_at"
	versionColumns = "id, project_id, folder_id, video_id, source_video_id, file_path, file_size, file_type, duration, created_at, updated_at"
	commentColumns = "id, project_id, folder_id, video_id, parent_id, user_name, user_email, text, video_time, drawing_data, likes, liked_by, resolved, created_at, updated_at"
)

// Repository is the entity store. It is safe for concurrent use; the gateway
// serializes statements.
type Repository struct {
	db     *db.Gateway
	logger *logrus.Logger
	now    func() time.Time
}

// New creates a Repository over an open gateway.
func New(gateway *db.Gateway, logger *logrus.Logger) *Repository {
	return &Repository{
		db:     gateway,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DeleteResult reports what a cascading delete removed. OrphanedFiles lists stored
// file paths that no remaining video or version references.
type DeleteResult struct {
	OrphanedFiles []string
}

// getOne scans a single row into dest, reporting a missing row as found=false.
func getOne(ctx context.Context, q db.Querier, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := q.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// unreferencedPaths filters candidates down to paths no video or version row points at.
func unreferencedPaths(ctx context.Context, q db.Querier, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT file_path FROM videos WHERE file_path IN (?)
		UNION
		SELECT file_path FROM video_versions WHERE file_path IN (?)`, candidates, candidates)
	if err != nil {
		return nil, err
	}
	var stillUsed []string
	if err := q.SelectContext(ctx, &stillUsed, query, args...); err != nil {
		return nil, err
	}
	used := make(map[string]struct{}, len(stillUsed))
	for _, p := range stillUsed {
		used[p] = struct{}{}
	}
	seen := make(map[string]struct{}, len(candidates))
	var orphans []string
	for _, p := range candidates {
		if _, ok := used[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		orphans = append(orphans, p)
	}
	return orphans, nil
}

// ReferencedFilePaths returns every file path recorded on a video or version row.
func (r *Repository) ReferencedFilePaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Execute(ctx, `SELECT file_path FROM videos UNION SELECT file_path FROM video_versions`)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		switch v := row["file_path"].(type) {
		case string:
			paths[v] = struct{}{}
		case []byte:
			paths[string(v)] = struct{}{}
		}
	}
	return paths, nil
}
