package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"videoreview/internal/apperrors"
	"videoreview/internal/media"
	"videoreview/internal/storage"
	"videoreview/utils"
)

// StreamVideo godoc
// @Summary Stream a stored video file
// @Description Honors single byte ranges ("bytes=start-end", "bytes=start-", "bytes=-suffix").
// @Tags media
// @Produce video/mp4
// @Param path path string true "Stored file path below /videos/"
// @Param Range header string false "Byte range"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 404 {object} utils.ErrorResponse
// @Failure 416 {object} utils.ErrorResponse
// @Router /videos/{path} [get]
func (h *ApplicationHandler) StreamVideo(c *fiber.Ctx) error {
	rel, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return h.fail(c, apperrors.NotFound("File not found"))
	}
	full, err := h.Store.Resolve(storage.URLPrefix + rel)
	if err != nil {
		return h.fail(c, err)
	}
	file, err := media.Open(full)
	if err != nil {
		return h.fail(c, err)
	}

	rng, err := media.ParseRange(c.Get(fiber.HeaderRange), file.Size)
	if errors.Is(err, media.ErrUnsatisfiable) {
		file.Close()
		c.Set(fiber.HeaderContentRange, media.UnsatisfiedRange(file.Size))
		return utils.RespondWithError(c, fiber.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable", nil)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, file.ContentType)
	if rng == nil {
		c.Status(fiber.StatusOK)
		c.Response().SetBodyStream(file.Reader(nil), int(file.Size))
		return nil
	}
	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, rng.ContentRange(file.Size))
	c.Response().SetBodyStream(file.Reader(rng), int(rng.Length()))
	return nil
}
