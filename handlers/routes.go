package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "videoreview/docs" // registers the swagger description
	"videoreview/middleware"
	"videoreview/utils"
)

// AppConfig tunes the fiber application.
type AppConfig struct {
	CORSOrigins string
	BodyLimit   int
}

// NewApp builds the fiber application with middleware and every route.
func NewApp(h *ApplicationHandler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		StreamRequestBody:     true, // large multipart files spill to disk instead of RAM
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return utils.RespondWithError(c, code, message, nil)
		},
	})

	app.Use(middleware.RequestLogger(h.Logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Range",
		ExposeHeaders: "Content-Range, Accept-Ranges, Content-Length",
	}))

	RegisterRoutes(app, h)
	return app
}

// RegisterRoutes mounts the API on app.
func RegisterRoutes(app *fiber.App, h *ApplicationHandler) {
	app.Get("/health", Health)
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Stored files
	app.Get("/videos/*", h.StreamVideo)

	projects := app.Group("/projects")
	projects.Get("", h.GetProjects)
	projects.Post("", h.CreateProject)
	projects.Get("/:id", h.GetProject)
	projects.Put("/:id", h.UpdateProject)
	projects.Delete("/:id", h.DeleteProject)

	folders := projects.Group("/:id/folders")
	folders.Get("", h.ListFolders)
	folders.Post("", h.CreateFolder)
	folders.Get("/:fid", h.GetFolder)
	folders.Put("/:fid", h.UpdateFolder)
	folders.Delete("/:fid", h.DeleteFolder)

	videos := folders.Group("/:fid/videos")
	videos.Get("", h.ListVideos)
	videos.Post("", h.UploadVideo)
	videos.Get("/:vid", h.GetVideo)
	videos.Put("/:vid", h.UpdateVideo)
	videos.Patch("/:vid", h.UpdateVideoStatus)
	videos.Delete("/:vid", h.DeleteVideo)
	videos.Get("/:vid/status", h.GetVideoStatus)
	videos.Get("/:vid/versions", h.ListVersions)
	videos.Post("/:vid/versions", h.CreateVersion)

	comments := videos.Group("/:vid/comments")
	comments.Get("", h.ListComments)
	comments.Post("", h.CreateComment)
	comments.Put("/:cid", h.UpdateComment)
	comments.Delete("/:cid", h.DeleteComment)
	comments.Post("/:cid/like", h.LikeComment)
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "Video review API is healthy",
	})
}
