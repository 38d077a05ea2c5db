package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/services"
)

// CommentHandler handles comments scoped under a video.
type CommentHandler struct {
	service  *services.CommentService
	validate *validator.Validate
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service, validate: validator.New()}
}

func (h *CommentHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	comments := router.Group("/comments")
	comments.Get("/:videoId", guards.Optional, h.HandleList)
	comments.Post("/:videoId", guards.Required, h.HandleAdd)
	comments.Patch("/:videoId/:commentId", guards.Required, h.HandleUpdate)
	comments.Delete("/:videoId/:commentId", guards.Required, h.HandleDelete)
}

// contentRequest is the body of comment and tweet writes.
type contentRequest struct {
	Content string `json:"content" form:"content" validate:"max=5000"`
}

func (h *CommentHandler) HandleList(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	result, err := h.service.List(c.UserContext(), c.Params("videoId"), middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result, "Comments fetched successfully")
}

func (h *CommentHandler) HandleAdd(c *fiber.Ctx) error {
	var req contentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	comment, err := h.service.Add(c.UserContext(), middleware.UserID(c), c.Params("videoId"), req.Content)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, comment, "Comment added successfully")
}

func (h *CommentHandler) HandleUpdate(c *fiber.Ctx) error {
	var req contentRequest
	err := ownerFirst(bind(c, h.validate, &req), func() error {
		return h.service.CheckOwner(c.UserContext(), middleware.UserID(c), c.Params("videoId"), c.Params("commentId"))
	})
	if err != nil {
		return err
	}
	comment, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("videoId"), c.Params("commentId"), req.Content)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, comment, "Comment updated successfully")
}

func (h *CommentHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("videoId"), c.Params("commentId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Comment deleted successfully")
}
