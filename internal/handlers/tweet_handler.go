package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/services"
)

// TweetHandler handles channel text posts.
type TweetHandler struct {
	service  *services.TweetService
	validate *validator.Validate
}

func NewTweetHandler(service *services.TweetService) *TweetHandler {
	return &TweetHandler{service: service, validate: validator.New()}
}

func (h *TweetHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	tweets := router.Group("/tweets")
	tweets.Post("/", guards.Required, h.HandleCreate)
	tweets.Get("/user/:userId", guards.Optional, h.HandleListByUser)
	tweets.Patch("/:tweetId", guards.Required, h.HandleUpdate)
	tweets.Delete("/:tweetId", guards.Required, h.HandleDelete)
}

func (h *TweetHandler) HandleCreate(c *fiber.Ctx) error {
	var req contentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	tweet, err := h.service.Create(c.UserContext(), middleware.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, tweet, "Tweet created successfully")
}

func (h *TweetHandler) HandleListByUser(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	result, err := h.service.ListByUser(c.UserContext(), c.Params("userId"), middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result, "Tweets fetched successfully")
}

func (h *TweetHandler) HandleUpdate(c *fiber.Ctx) error {
	var req contentRequest
	err := ownerFirst(bind(c, h.validate, &req), func() error {
		return h.service.CheckOwner(c.UserContext(), middleware.UserID(c), c.Params("tweetId"))
	})
	if err != nil {
		return err
	}
	tweet, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("tweetId"), req.Content)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tweet, "Tweet updated successfully")
}

func (h *TweetHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("tweetId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Tweet deleted successfully")
}
