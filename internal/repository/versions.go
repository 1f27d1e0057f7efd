package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videoreview/internal/apperrors"
	"videoreview/internal/db"
	"videoreview/models"
)

// ListVersions returns a video's versions, newest first.
func (r *Repository) ListVersions(ctx context.Context, videoID string) ([]models.VideoVersion, error) {
	versions := []models.VideoVersion{}
	err := r.db.SelectContext(ctx, &versions,
		`SELECT `+versionColumns+` FROM video_versions WHERE video_id = ? ORDER BY created_at DESC, rowid DESC`, videoID)
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// GetVersion returns nil when the version does not exist.
func (r *Repository) GetVersion(ctx context.Context, id string) (*models.VideoVersion, error) {
	var v models.VideoVersion
	found, err := getOne(ctx, r.db, &v, `SELECT `+versionColumns+` FROM video_versions WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// VersionZero presents the video's own file as the implicit first version.
func VersionZero(v *models.Video) models.VideoVersion {
	return models.VideoVersion{
		ID:            v.ID,
		ProjectID:     v.ProjectID,
		FolderID:      v.FolderID,
		VideoID:       v.ID,
		SourceVideoID: v.ID,
		FilePath:      v.FilePath,
		FileSize:      v.FileSize,
		FileType:      v.FileType,
		Duration:      v.Duration,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		IsOriginal:    true,
	}
}

// CreateVersion records an uploaded rendition of an existing video.
func (r *Repository) CreateVersion(ctx context.Context, v *models.VideoVersion) (*models.VideoVersion, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		target, err := r.getVideo(ctx, tx, v.VideoID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.NotFound("Video not found")
		}
		if target.IsHidden {
			return apperrors.Validation("Target video is itself a version of another video")
		}
		if v.SourceVideoID == "" {
			v.SourceVideoID = target.ID
		}
		return insertVersion(ctx, tx, v, target, r.now())
	})
	if err != nil {
		return nil, err
	}
	return r.GetVersion(ctx, v.ID)
}

// CreateVersionFromVideo folds an existing standalone video into target as a new
// version. No bytes move: the version points at the source's file, and the source is
// hidden from folder listings. There is no operation that reverses this. Versions are
// one level deep: a hidden video cannot take part in a merge on either side, and a
// video that owns versions cannot become one.
func (r *Repository) CreateVersionFromVideo(ctx context.Context, targetID, sourceID string) (*models.VideoVersion, error) {
	if sourceID == "" {
		return nil, apperrors.Validation("sourceVideoId is required")
	}
	if sourceID == targetID {
		return nil, apperrors.Validation("A video cannot be added as a version of itself")
	}
	id := uuid.NewString()
	err := r.db.InTx(ctx, func(tx db.Querier) error {
		target, err := r.getVideo(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.NotFound("Target video not found")
		}
		source, err := r.getVideo(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if source == nil {
			return apperrors.NotFound("Source video not found")
		}
		if source.ProjectID != target.ProjectID {
			return apperrors.Validation("Source video belongs to a different project")
		}
		if target.IsHidden {
			return apperrors.Validation("Target video is itself a version of another video")
		}
		if source.IsHidden {
			return apperrors.Validation("Source video is already a version of another video")
		}
		var owned int
		if err := tx.GetContext(ctx, &owned, `SELECT COUNT(*) FROM video_versions WHERE video_id = ?`, source.ID); err != nil {
			return err
		}
		if owned > 0 {
			return apperrors.Validation("Source video has versions of its own and cannot become a version")
		}

		version := &models.VideoVersion{
			ID:            id,
			VideoID:       target.ID,
			SourceVideoID: source.ID,
			FilePath:      source.FilePath,
			FileSize:      source.FileSize,
			FileType:      source.FileType,
			Duration:      source.Duration,
		}
		now := r.now()
		if err := insertVersion(ctx, tx, version, target, now); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE videos SET is_hidden = 1, updated_at = ? WHERE id = ?`, now, source.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"target_video_id": targetID, "source_video_id": sourceID}).Info("Video merged as version")
	return r.GetVersion(ctx, id)
}

func insertVersion(ctx context.Context, tx db.Querier, v *models.VideoVersion, target *models.Video, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO video_versions (id, project_id, folder_id, video_id, source_video_id, file_path, file_size, file_type, duration, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, target.ProjectID, target.FolderID, target.ID, v.SourceVideoID, v.FilePath, v.FileSize, v.FileType, v.Duration, now, now)
	return err
}
