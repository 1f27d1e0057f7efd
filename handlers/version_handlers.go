package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"videoreview/internal/repository"
	"videoreview/models"
	"videoreview/utils"
)

// CreateVersionFromVideoRequest folds an existing video into the target as a version.
type CreateVersionFromVideoRequest struct {
	SourceVideoID string `json:"sourceVideoId" validate:"required"`
}

// ListVersions godoc
// @Summary List the versions of a video, newest first
// @Tags versions
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param include_original query bool false "Append the video's own file as version zero"
// @Success 200 {array} models.VideoVersion
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/versions [get]
func (h *ApplicationHandler) ListVersions(c *fiber.Ctx) error {
	video, err := h.loadVideo(c)
	if err != nil {
		return h.fail(c, err)
	}
	versions, err := h.Repo.ListVersions(c.UserContext(), video.ID)
	if err != nil {
		return h.fail(c, err)
	}
	if c.QueryBool("include_original") {
		versions = append(versions, repository.VersionZero(video))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, versions)
}

// CreateVersion godoc
// @Summary Add a version to a video
// @Description Accepts either a multipart upload in "file" or a JSON body naming an
// @Description existing video, which is then hidden from the folder listing.
// @Tags versions
// @Accept multipart/form-data,json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param file formData file false "Version file"
// @Param source body CreateVersionFromVideoRequest false "Existing video to merge"
// @Success 201 {object} models.VideoVersion
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse "Source or target missing"
// @Router /projects/{id}/folders/{fid}/videos/{vid}/versions [post]
func (h *ApplicationHandler) CreateVersion(c *fiber.Ctx) error {
	target, err := h.loadVideo(c)
	if err != nil {
		return h.fail(c, err)
	}

	var version *models.VideoVersion
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		file, closer, err := uploadedFile(c)
		if err != nil {
			return h.fail(c, err)
		}
		if closer != nil {
			defer closer.Close()
		}
		version, err = h.Ingestor.IngestVersion(c.UserContext(), target.ProjectID, target.FolderID, target.ID, file)
		if err != nil {
			return h.fail(c, err)
		}
	} else {
		req := new(CreateVersionFromVideoRequest)
		if err := h.parseBody(c, req); err != nil {
			return h.fail(c, err)
		}
		version, err = h.Repo.CreateVersionFromVideo(c.UserContext(), target.ID, req.SourceVideoID)
		if err != nil {
			return h.fail(c, err)
		}
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, version)
}
