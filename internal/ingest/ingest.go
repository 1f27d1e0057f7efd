// Package ingest accepts uploaded video files, stores them and records their metadata.
package ingest

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videoreview/internal/apperrors"
	"videoreview/internal/storage"
	"videoreview/models"
)

// File is one uploaded file part.
type File struct {
	Name string
	Size int64
	Type string
	Body io.Reader
}

// Repository is the part of the entity store the ingestor needs.
type Repository interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error)
	CreateVersion(ctx context.Context, v *models.VideoVersion) (*models.VideoVersion, error)
}

// Ingestor validates uploads and writes them to the store before recording them.
type Ingestor struct {
	repo     Repository
	store    *storage.Store
	logger   *logrus.Logger
	maxBytes int64
}

func New(repo Repository, store *storage.Store, logger *logrus.Logger, maxBytes int64) *Ingestor {
	return &Ingestor{repo: repo, store: store, logger: logger, maxBytes: maxBytes}
}

// validate checks the file part in order: present, described, a video, within the cap.
func (i *Ingestor) validate(file *File) error {
	if file == nil || file.Body == nil {
		return apperrors.Validation("No file uploaded")
	}
	if strings.TrimSpace(file.Name) == "" || file.Size <= 0 || strings.TrimSpace(file.Type) == "" {
		return apperrors.Validation("File name, size and type are required")
	}
	if !strings.HasPrefix(file.Type, "video/") {
		return apperrors.Validation("Only video files are allowed").WithDetails(map[string]string{"type": file.Type})
	}
	if i.maxBytes > 0 && file.Size > i.maxBytes {
		return apperrors.Validation("File exceeds the maximum upload size of %d bytes", i.maxBytes)
	}
	return nil
}

// checkFolder resolves the project and folder and verifies the folder belongs to the project.
func (i *Ingestor) checkFolder(ctx context.Context, projectID, folderID string) error {
	project, err := i.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperrors.NotFound("Project not found")
	}
	folder, err := i.repo.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if folder == nil {
		return apperrors.NotFound("Folder not found")
	}
	if folder.ProjectID != projectID {
		return apperrors.Forbidden("Folder does not belong to this project")
	}
	return nil
}

// storedName prefixes a uuid and keeps only characters that need no escaping in a
// URL path, so file_path can be used as a relative URL as is.
func storedName(original string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, filepath.Base(original))
	if strings.Trim(base, "._") == "" {
		base = "video"
	}
	return uuid.NewString() + "-" + base
}

func (i *Ingestor) save(ctx context.Context, dir []string, file *File) (string, int64, error) {
	publicPath, size, err := i.store.Save(ctx, dir, storedName(file.Name), file.Type, file.Body, i.maxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return "", 0, apperrors.Validation("File exceeds the maximum upload size of %d bytes", i.maxBytes)
	}
	return publicPath, size, err
}

// discard removes a stored file whose row could not be written.
func (i *Ingestor) discard(ctx context.Context, publicPath string) {
	if err := i.store.Remove(ctx, publicPath); err != nil {
		i.logger.WithField("path", publicPath).WithError(err).Error("Failed to remove file after insert failure")
	}
}

// IngestVideo stores a new video in a folder. The duration stays empty until the
// client reports it.
func (i *Ingestor) IngestVideo(ctx context.Context, projectID, folderID string, file *File) (*models.Video, error) {
	if err := i.validate(file); err != nil {
		return nil, err
	}
	if err := i.checkFolder(ctx, projectID, folderID); err != nil {
		return nil, err
	}

	publicPath, size, err := i.save(ctx, []string{projectID, folderID}, file)
	if err != nil {
		return nil, err
	}
	video, err := i.repo.CreateVideo(ctx, &models.Video{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		FolderID:  folderID,
		Name:      filepath.Base(file.Name),
		FilePath:  publicPath,
		FileSize:  size,
		FileType:  file.Type,
	})
	if err != nil {
		i.discard(ctx, publicPath)
		return nil, err
	}

	i.logger.WithFields(logrus.Fields{
		"video_id":  video.ID,
		"file_path": publicPath,
		"file_size": size,
	}).Info("Video uploaded")
	return video, nil
}

// IngestVersion stores a new rendition of an existing video under its versions directory.
func (i *Ingestor) IngestVersion(ctx context.Context, projectID, folderID, videoID string, file *File) (*models.VideoVersion, error) {
	if err := i.validate(file); err != nil {
		return nil, err
	}
	if err := i.checkFolder(ctx, projectID, folderID); err != nil {
		return nil, err
	}
	video, err := i.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil || video.ProjectID != projectID || video.FolderID != folderID {
		return nil, apperrors.NotFound("Video not found")
	}
	if video.IsHidden {
		return nil, apperrors.Validation("Target video is itself a version of another video")
	}

	publicPath, size, err := i.save(ctx, []string{projectID, folderID, videoID, "versions"}, file)
	if err != nil {
		return nil, err
	}
	version, err := i.repo.CreateVersion(ctx, &models.VideoVersion{
		VideoID:       video.ID,
		SourceVideoID: video.ID,
		FilePath:      publicPath,
		FileSize:      size,
		FileType:      file.Type,
	})
	if err != nil {
		i.discard(ctx, publicPath)
		return nil, err
	}

	i.logger.WithFields(logrus.Fields{
		"video_id":   video.ID,
		"version_id": version.ID,
		"file_path":  publicPath,
	}).Info("Version uploaded")
	return version, nil
}
