package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"videoreview/internal/apperrors"
	"videoreview/internal/ingest"
	"videoreview/internal/repository"
	"videoreview/models"
	"videoreview/utils"
)

// UpdateVideoRequest carries the metadata a client may change. Duration is reported by
// the player once it has loaded the file.
type UpdateVideoRequest struct {
	Name     *string  `json:"name,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// UpdateVideoStatusRequest sets the review status.
type UpdateVideoStatusRequest struct {
	VideoStatus models.VideoStatus `json:"video_status" validate:"required"`
}

// VideoStatusResponse is polled by the client while it waits for metadata.
type VideoStatusResponse struct {
	ID          string             `json:"id"`
	Processing  bool               `json:"processing"`
	VideoStatus models.VideoStatus `json:"video_status"`
	Duration    *float64           `json:"duration"`
	FilePath    string             `json:"file_path"`
}

// loadVideo resolves :vid and checks it lives in :id/:fid.
func (h *ApplicationHandler) loadVideo(c *fiber.Ctx) (*models.Video, error) {
	folder, err := h.loadFolder(c)
	if err != nil {
		return nil, err
	}
	video, err := h.Repo.GetVideo(c.UserContext(), c.Params("vid"))
	if err != nil {
		return nil, err
	}
	if video == nil || video.ProjectID != folder.ProjectID || video.FolderID != folder.ID {
		return nil, apperrors.NotFound("Video not found")
	}
	return video, nil
}

// uploadedFile opens the "file" part of a multipart request. A missing part yields
// nil so the ingestor reports it.
func uploadedFile(c *fiber.Ctx) (*ingest.File, multipart.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.Storage(err, "Failed to read uploaded file")
	}
	return &ingest.File{
		Name: fh.Filename,
		Size: fh.Size,
		Type: fh.Header.Get("Content-Type"),
		Body: f,
	}, f, nil
}

// ListVideos godoc
// @Summary List the visible videos of a folder with their versions
// @Tags videos
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Success 200 {array} models.Video
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos [get]
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	folder, err := h.loadFolder(c)
	if err != nil {
		return h.fail(c, err)
	}
	videos, err := h.Repo.ListVideos(c.UserContext(), folder.ProjectID, folder.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, videos)
}

// UploadVideo godoc
// @Summary Upload a video into a folder
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param file formData file true "Video file"
// @Success 201 {object} models.Video
// @Failure 400 {object} utils.ErrorResponse "Missing or non-video file"
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos [post]
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	file, closer, err := uploadedFile(c)
	if err != nil {
		return h.fail(c, err)
	}
	if closer != nil {
		defer closer.Close()
	}
	video, err := h.Ingestor.IngestVideo(c.UserContext(), c.Params("id"), c.Params("fid"), file)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, video)
}

// GetVideo godoc
// @Summary Get a video
// @Tags videos
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Success 200 {object} models.Video
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid} [get]
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	video, err := h.loadVideo(c)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// UpdateVideo godoc
// @Summary Update video name or duration
// @Tags videos
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param video body UpdateVideoRequest true "Fields to change"
// @Success 200 {object} models.Video
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid} [put]
func (h *ApplicationHandler) UpdateVideo(c *fiber.Ctx) error {
	if _, err := h.loadVideo(c); err != nil {
		return h.fail(c, err)
	}
	req := new(UpdateVideoRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	video, err := h.Repo.UpdateVideo(c.UserContext(), c.Params("vid"), repository.VideoUpdate{
		Name:     req.Name,
		Duration: req.Duration,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if video == nil {
		return h.fail(c, apperrors.NotFound("Video not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// UpdateVideoStatus godoc
// @Summary Set the review status of a video
// @Tags videos
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param status body UpdateVideoStatusRequest true "New status"
// @Success 200 {object} models.Video
// @Failure 400 {object} utils.ErrorResponse "Unknown status"
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid} [patch]
func (h *ApplicationHandler) UpdateVideoStatus(c *fiber.Ctx) error {
	if _, err := h.loadVideo(c); err != nil {
		return h.fail(c, err)
	}
	req := new(UpdateVideoStatusRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	video, err := h.Repo.UpdateVideoStatus(c.UserContext(), c.Params("vid"), req.VideoStatus)
	if err != nil {
		return h.fail(c, err)
	}
	if video == nil {
		return h.fail(c, apperrors.NotFound("Video not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// DeleteVideo godoc
// @Summary Delete a video with its versions, comments and unshared files
// @Tags videos
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid} [delete]
func (h *ApplicationHandler) DeleteVideo(c *fiber.Ctx) error {
	if _, err := h.loadVideo(c); err != nil {
		return h.fail(c, err)
	}
	res, err := h.Repo.DeleteVideo(c.UserContext(), c.Params("vid"))
	if err != nil {
		return h.fail(c, err)
	}
	if res == nil {
		return h.fail(c, apperrors.NotFound("Video not found"))
	}
	h.removeFiles(res)
	return utils.RespondWithJSON(c, fiber.StatusOK, SuccessResponse{Success: true})
}

// GetVideoStatus godoc
// @Summary Poll whether the client has reported the video's metadata yet
// @Tags videos
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Success 200 {object} VideoStatusResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/status [get]
func (h *ApplicationHandler) GetVideoStatus(c *fiber.Ctx) error {
	video, err := h.loadVideo(c)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, VideoStatusResponse{
		ID:          video.ID,
		Processing:  video.Duration == nil,
		VideoStatus: video.VideoStatus,
		Duration:    video.Duration,
		FilePath:    video.FilePath,
	})
}
