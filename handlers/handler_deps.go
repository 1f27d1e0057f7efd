package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videoreview/internal/apperrors"
	"videoreview/internal/ingest"
	"videoreview/internal/jobs"
	"videoreview/internal/repository"
	"videoreview/internal/storage"
	"videoreview/internal/worker"
	"videoreview/utils"
)

// JobSubmitter queues background work. *worker.Dispatcher implements it.
type JobSubmitter interface {
	SubmitJob(job worker.Job) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Repo     *repository.Repository
	Ingestor *ingest.Ingestor
	Store    *storage.Store
	Jobs     JobSubmitter
	Logger   *logrus.Logger
	validate *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(repo *repository.Repository, ingestor *ingest.Ingestor, store *storage.Store, submitter JobSubmitter, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Repo:     repo,
		Ingestor: ingestor,
		Store:    store,
		Jobs:     submitter,
		Logger:   logger,
		validate: validator.New(),
	}
}

// fail renders err. Unclassified errors are logged since their message is not shown.
func (h *ApplicationHandler) fail(c *fiber.Ctx, err error) error {
	if apperrors.KindOf(err) == "" || apperrors.StatusCode(err) >= fiber.StatusInternalServerError {
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.Locals("requestid"),
			"path":       c.Path(),
		}).WithError(err).Error("Request failed")
	}
	return utils.RespondWithAppError(c, err)
}

// parseBody decodes the JSON body into dst and runs its validate tags.
func (h *ApplicationHandler) parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.Validation("Cannot parse request body").WithDetails(err.Error())
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.Validation("Invalid request body").WithDetails(utils.FormatValidationErrors(err))
	}
	return nil
}

// removeFiles queues deletion of files a cascade left unreferenced. A full queue only
// leaves orphans behind for the reconcile command.
func (h *ApplicationHandler) removeFiles(res *repository.DeleteResult) {
	if res == nil || len(res.OrphanedFiles) == 0 || h.Jobs == nil {
		return
	}
	job := &jobs.RemoveFilesJob{
		JobID:  uuid.NewString(),
		Paths:  res.OrphanedFiles,
		Store:  h.Store,
		Refs:   h.Repo,
		Logger: h.Logger,
	}
	if err := h.Jobs.SubmitJob(job); err != nil {
		h.Logger.WithField("files", res.OrphanedFiles).WithError(err).Warn("Could not queue file removal")
	}
}

// SuccessResponse is returned by deletes.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
