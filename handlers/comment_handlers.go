package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"videoreview/internal/apperrors"
	"videoreview/internal/repository"
	"videoreview/models"
	"videoreview/utils"
)

// CreateCommentRequest is a new comment or, with parent_id, a reply. video_time may be
// a number or a numeric string; drawing_data may be a data URI string or an object.
type CreateCommentRequest struct {
	ParentID    *string     `json:"parent_id,omitempty"`
	UserName    string      `json:"user_name"`
	UserEmail   string      `json:"user_email"`
	Text        string      `json:"text"`
	VideoTime   interface{} `json:"video_time" swaggertype:"number"`
	DrawingData interface{} `json:"drawing_data,omitempty" swaggertype:"object"`
}

// UpdateCommentRequest edits a comment. A drawing_data of null removes the drawing.
type UpdateCommentRequest struct {
	Text        *string         `json:"text,omitempty"`
	DrawingData json.RawMessage `json:"drawing_data,omitempty" swaggertype:"object"`
	Resolved    *bool           `json:"resolved,omitempty"`
}

// LikeCommentRequest names who toggles the like.
type LikeCommentRequest struct {
	Email string `json:"email"`
}

// loadComment resolves :cid and checks it belongs to the video in the path.
func (h *ApplicationHandler) loadComment(c *fiber.Ctx) (*models.Comment, error) {
	video, err := h.loadVideo(c)
	if err != nil {
		return nil, err
	}
	comment, err := h.Repo.GetComment(c.UserContext(), c.Params("cid"))
	if err != nil {
		return nil, err
	}
	if comment == nil || comment.VideoID != video.ID {
		return nil, apperrors.NotFound("Comment not found")
	}
	return comment, nil
}

// ListComments godoc
// @Summary List a video's comments as threads
// @Tags comments
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/comments [get]
func (h *ApplicationHandler) ListComments(c *fiber.Ctx) error {
	video, err := h.loadVideo(c)
	if err != nil {
		return h.fail(c, err)
	}
	comments, err := h.Repo.GetComments(c.UserContext(), video.ProjectID, video.FolderID, video.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, comments)
}

// CreateComment godoc
// @Summary Comment on a video or reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param comment body CreateCommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponse "Missing user_name, or neither text nor drawing"
// @Failure 404 {object} utils.ErrorResponse "Video or parent comment missing"
// @Router /projects/{id}/folders/{fid}/videos/{vid}/comments [post]
func (h *ApplicationHandler) CreateComment(c *fiber.Ctx) error {
	req := new(CreateCommentRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	comment, err := h.Repo.CreateComment(c.UserContext(), repository.CommentInput{
		ProjectID:   c.Params("id"),
		FolderID:    c.Params("fid"),
		VideoID:     c.Params("vid"),
		ParentID:    req.ParentID,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		Text:        req.Text,
		VideoTime:   req.VideoTime,
		DrawingData: req.DrawingData,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, comment)
}

// UpdateComment godoc
// @Summary Edit a comment's text or drawing, or mark it resolved
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param cid path string true "Comment ID"
// @Param comment body UpdateCommentRequest true "Fields to change"
// @Success 200 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/comments/{cid} [put]
func (h *ApplicationHandler) UpdateComment(c *fiber.Ctx) error {
	if _, err := h.loadComment(c); err != nil {
		return h.fail(c, err)
	}
	req := new(UpdateCommentRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	upd := repository.CommentUpdate{Text: req.Text, Resolved: req.Resolved}
	if len(req.DrawingData) > 0 {
		var drawing interface{}
		if err := json.Unmarshal(req.DrawingData, &drawing); err != nil {
			return h.fail(c, apperrors.Validation("drawing_data is not valid JSON"))
		}
		upd.DrawingData = drawing
		upd.SetDrawing = true
	}
	comment, err := h.Repo.UpdateComment(c.UserContext(), c.Params("cid"), upd)
	if err != nil {
		return h.fail(c, err)
	}
	if comment == nil {
		return h.fail(c, apperrors.NotFound("Comment not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete a comment and all of its replies
// @Tags comments
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param cid path string true "Comment ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/comments/{cid} [delete]
func (h *ApplicationHandler) DeleteComment(c *fiber.Ctx) error {
	if _, err := h.loadComment(c); err != nil {
		return h.fail(c, err)
	}
	found, err := h.Repo.DeleteComment(c.UserContext(), c.Params("cid"))
	if err != nil {
		return h.fail(c, err)
	}
	if !found {
		return h.fail(c, apperrors.NotFound("Comment not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, SuccessResponse{Success: true})
}

// LikeComment godoc
// @Summary Toggle a like on a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param vid path string true "Video ID"
// @Param cid path string true "Comment ID"
// @Param like body LikeCommentRequest true "Who likes it"
// @Success 200 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponse "Missing email"
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid}/videos/{vid}/comments/{cid}/like [post]
func (h *ApplicationHandler) LikeComment(c *fiber.Ctx) error {
	req := new(LikeCommentRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	if req.Email == "" {
		return h.fail(c, apperrors.Validation("email is required"))
	}
	if _, err := h.loadComment(c); err != nil {
		return h.fail(c, err)
	}
	comment, err := h.Repo.ToggleCommentLike(c.UserContext(), c.Params("cid"), req.Email)
	if err != nil {
		return h.fail(c, err)
	}
	if comment == nil {
		return h.fail(c, apperrors.NotFound("Comment not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, comment)
}
