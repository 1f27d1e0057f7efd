package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videoreview/internal/apperrors"
	"videoreview/internal/repository"
	"videoreview/models"
	"videoreview/utils"
)

// CreateFolderRequest is the body of a folder creation.
type CreateFolderRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id,omitempty"`
}

// UpdateFolderRequest renames or moves a folder. An empty parent_id moves it to the top level.
type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// loadFolder resolves :fid and checks it belongs to :id.
func (h *ApplicationHandler) loadFolder(c *fiber.Ctx) (*models.Folder, error) {
	folder, err := h.Repo.GetFolder(c.UserContext(), c.Params("fid"))
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, apperrors.NotFound("Folder not found")
	}
	if folder.ProjectID != c.Params("id") {
		return nil, apperrors.Forbidden("Folder does not belong to this project")
	}
	return folder, nil
}

// ListFolders godoc
// @Summary List the folders of a project
// @Description With tree=true the folders are nested under their parents.
// @Tags folders
// @Produce json
// @Param id path string true "Project ID"
// @Param tree query bool false "Return a nested tree"
// @Success 200 {array} models.Folder
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders [get]
func (h *ApplicationHandler) ListFolders(c *fiber.Ctx) error {
	if _, err := h.loadProject(c); err != nil {
		return h.fail(c, err)
	}
	folders, err := h.Repo.ListFolders(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if c.QueryBool("tree") {
		return utils.RespondWithJSON(c, fiber.StatusOK, repository.BuildFolderTree(folders))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folders)
}

// CreateFolder godoc
// @Summary Create a folder
// @Tags folders
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param folder body CreateFolderRequest true "Folder to create"
// @Success 200 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponse "Missing or duplicate name"
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders [post]
func (h *ApplicationHandler) CreateFolder(c *fiber.Ctx) error {
	req := new(CreateFolderRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	folder, err := h.Repo.CreateFolder(c.UserContext(), c.Params("id"), req.Name, req.ParentID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folder)
}

// GetFolder godoc
// @Summary Get a folder
// @Tags folders
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Success 200 {object} models.Folder
// @Failure 403 {object} utils.ErrorResponse "Folder belongs to another project"
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid} [get]
func (h *ApplicationHandler) GetFolder(c *fiber.Ctx) error {
	folder, err := h.loadFolder(c)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folder)
}

// UpdateFolder godoc
// @Summary Rename or move a folder
// @Tags folders
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Param folder body UpdateFolderRequest true "Fields to change"
// @Success 200 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid} [put]
func (h *ApplicationHandler) UpdateFolder(c *fiber.Ctx) error {
	if _, err := h.loadFolder(c); err != nil {
		return h.fail(c, err)
	}
	req := new(UpdateFolderRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	folder, err := h.Repo.UpdateFolder(c.UserContext(), c.Params("fid"), repository.FolderUpdate{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if folder == nil {
		return h.fail(c, apperrors.NotFound("Folder not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folder)
}

// DeleteFolder godoc
// @Summary Delete a folder with its subfolders, videos, versions and comments
// @Tags folders
// @Produce json
// @Param id path string true "Project ID"
// @Param fid path string true "Folder ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id}/folders/{fid} [delete]
func (h *ApplicationHandler) DeleteFolder(c *fiber.Ctx) error {
	if _, err := h.loadFolder(c); err != nil {
		return h.fail(c, err)
	}
	res, err := h.Repo.DeleteFolder(c.UserContext(), c.Params("fid"))
	if err != nil {
		return h.fail(c, err)
	}
	if res == nil {
		return h.fail(c, apperrors.NotFound("Folder not found"))
	}
	h.removeFiles(res)
	return utils.RespondWithJSON(c, fiber.StatusOK, SuccessResponse{Success: true})
}
