package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/services"
)

// SubscriptionHandler handles channel subscriptions.
type SubscriptionHandler struct {
	service *services.SubscriptionService
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	subscriptions := router.Group("/subscriptions")
	subscriptions.Post("/c/:channelId", guards.Required, h.HandleToggle)
	subscriptions.Get("/c/:channelId", guards.Optional, h.HandleSubscribers)
	subscriptions.Get("/u/:subscriberId", guards.Optional, h.HandleSubscribedChannels)
}

func (h *SubscriptionHandler) HandleToggle(c *fiber.Ctx) error {
	subscribed, err := h.service.Toggle(c.UserContext(), middleware.UserID(c), c.Params("channelId"))
	if err != nil {
		return err
	}
	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	return respond(c, fiber.StatusOK, fiber.Map{"subscribed": subscribed}, message)
}

func (h *SubscriptionHandler) HandleSubscribers(c *fiber.Ctx) error {
	subscribers, err := h.service.Subscribers(c.UserContext(), c.Params("channelId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, subscribers, "Subscribers fetched successfully")
}

func (h *SubscriptionHandler) HandleSubscribedChannels(c *fiber.Ctx) error {
	channels, err := h.service.SubscribedChannels(c.UserContext(), c.Params("subscriberId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, channels, "Subscribed channels fetched successfully")
}

// DashboardHandler serves the caller's own channel statistics.
type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	dashboard := router.Group("/dashboard", guards.Required)
	dashboard.Get("/stats", h.HandleStats)
	dashboard.Get("/videos", h.HandleVideos)
}

func (h *DashboardHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats, "Channel stats fetched successfully")
}

func (h *DashboardHandler) HandleVideos(c *fiber.Ctx) error {
	videos, err := h.service.Videos(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, videos, "Channel videos fetched successfully")
}

// HandleHealthcheck reports that the process is serving requests.
func HandleHealthcheck(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "OK", "Health check passed")
}
