package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videoreview/internal/apperrors"
	"videoreview/internal/repository"
	"videoreview/models"
	"videoreview/utils"
)

// CreateProjectRequest defines the expected request body for creating a project.
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// UpdateProjectRequest carries the optional fields of a project update.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// GetProjects godoc
// @Summary List all projects
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 500 {object} utils.ErrorResponse
// @Router /projects [get]
func (h *ApplicationHandler) GetProjects(c *fiber.Ctx) error {
	projects, err := h.Repo.ListProjects(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, projects)
}

// CreateProject godoc
// @Summary Create a new project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body CreateProjectRequest true "Project to create"
// @Success 200 {object} models.Project
// @Failure 400 {object} utils.ErrorResponse "Missing name"
// @Failure 500 {object} utils.ErrorResponse
// @Router /projects [post]
func (h *ApplicationHandler) CreateProject(c *fiber.Ctx) error {
	req := new(CreateProjectRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	project, err := h.Repo.CreateProject(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, project)
}

// GetProject godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id} [get]
func (h *ApplicationHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.loadProject(c)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, project)
}

// UpdateProject godoc
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param project body UpdateProjectRequest true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id} [put]
func (h *ApplicationHandler) UpdateProject(c *fiber.Ctx) error {
	req := new(UpdateProjectRequest)
	if err := h.parseBody(c, req); err != nil {
		return h.fail(c, err)
	}
	project, err := h.Repo.UpdateProject(c.UserContext(), c.Params("id"), repository.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if project == nil {
		return h.fail(c, apperrors.NotFound("Project not found"))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project with its folders, videos, versions and comments
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ApplicationHandler) DeleteProject(c *fiber.Ctx) error {
	res, err := h.Repo.DeleteProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if res == nil {
		return h.fail(c, apperrors.NotFound("Project not found"))
	}
	h.removeFiles(res)
	return utils.RespondWithJSON(c, fiber.StatusOK, SuccessResponse{Success: true})
}

func (h *ApplicationHandler) loadProject(c *fiber.Ctx) (*models.Project, error) {
	project, err := h.Repo.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.NotFound("Project not found")
	}
	return project, nil
}
