package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/services"
)

// VideoHandler handles HTTP requests for videos.
type VideoHandler struct {
	service *services.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(service *services.VideoService) *VideoHandler {
	return &VideoHandler{service: service}
}

// RegisterRoutes registers the video routes with the Fiber app.
func (h *VideoHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	videos := router.Group("/videos")
	videos.Get("/", guards.Optional, h.HandleFeed)
	videos.Post("/", guards.Required, h.HandlePublish)
	videos.Patch("/toggle/publish/:videoId", guards.Required, h.HandleTogglePublish)
	videos.Get("/:videoId", guards.Optional, h.HandleGetVideo)
	videos.Patch("/:videoId", guards.Required, h.HandleUpdate)
	videos.Delete("/:videoId", guards.Required, h.HandleDelete)
}

// HandleFeed lists published videos.
func (h *VideoHandler) HandleFeed(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	result, err := h.service.Feed(c.UserContext(), services.FeedParams{
		Page:     page,
		Limit:    limit,
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		UserID:   c.Query("userId"),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result, "Videos fetched successfully")
}

// HandlePublish uploads a new video with its thumbnail.
func (h *VideoHandler) HandlePublish(c *fiber.Ctx) error {
	duration, err := parseFloat(c.FormValue("duration"))
	if err != nil {
		return err
	}
	videoFile, closeVideo, err := formFile(c, "videoFile")
	if err != nil {
		return err
	}
	defer closeVideo()
	thumbnail, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		return err
	}
	defer closeThumb()

	video, err := h.service.Publish(c.UserContext(), middleware.UserID(c), services.PublishVideoInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Duration:    duration,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, video, "Video uploaded successfully")
}

// HandleGetVideo returns one video and records the view.
func (h *VideoHandler) HandleGetVideo(c *fiber.Ctx) error {
	detail, err := h.service.Detail(c.UserContext(), c.Params("videoId"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, detail, "Video fetched successfully")
}

// HandleUpdate changes title, description and optionally the thumbnail.
// The body may be JSON or a multipart form carrying the new thumbnail.
func (h *VideoHandler) HandleUpdate(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}
	var payloadErr error
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			payloadErr = models.NewInvalidArgumentError("Invalid request body", err.Error())
		}
	}
	thumbnail, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		payloadErr = err
	} else {
		defer closeThumb()
	}
	err = ownerFirst(payloadErr, func() error {
		return h.service.CheckOwner(c.UserContext(), middleware.UserID(c), c.Params("videoId"))
	})
	if err != nil {
		return err
	}

	video, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("videoId"), services.UpdateVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, video, "Video updated successfully")
}

func (h *VideoHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("videoId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Video deleted successfully")
}

func (h *VideoHandler) HandleTogglePublish(c *fiber.Ctx) error {
	video, err := h.service.TogglePublish(c.UserContext(), middleware.UserID(c), c.Params("videoId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"isPublished": video.IsPublished}, "Publish status toggled successfully")
}
