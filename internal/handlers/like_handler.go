package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/services"
)

// LikeHandler handles like toggles and the liked videos list.
type LikeHandler struct {
	service *services.LikeService
}

func NewLikeHandler(service *services.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	likes := router.Group("/likes", guards.Required)
	likes.Post("/toggle/v/:videoId", h.toggle(models.LikeVideo, "videoId"))
	likes.Post("/toggle/c/:commentId", h.toggle(models.LikeComment, "commentId"))
	likes.Post("/toggle/t/:tweetId", h.toggle(models.LikeTweet, "tweetId"))
	likes.Get("/videos", h.HandleLikedVideos)
}

func (h *LikeHandler) toggle(kind models.LikeKind, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		liked, err := h.service.Toggle(c.UserContext(), middleware.UserID(c), kind, c.Params(param))
		if err != nil {
			return err
		}
		message := "Like removed successfully"
		if liked {
			message = "Like added successfully"
		}
		return respond(c, fiber.StatusOK, fiber.Map{"isLiked": liked}, message)
	}
}

func (h *LikeHandler) HandleLikedVideos(c *fiber.Ctx) error {
	videos, err := h.service.LikedVideos(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, videos, "Liked videos fetched successfully")
}
