package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/services"
)

// PlaylistHandler handles HTTP requests for playlists.
type PlaylistHandler struct {
	service  *services.PlaylistService
	validate *validator.Validate
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(service *services.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{service: service, validate: validator.New()}
}

// RegisterRoutes registers the playlist routes with the Fiber app.
func (h *PlaylistHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	playlists := router.Group("/playlist")
	playlists.Post("/", guards.Required, h.HandleCreate)
	playlists.Get("/user/:userId", guards.Optional, h.HandleListByUser)
	playlists.Patch("/add/:videoId/:playlistId", guards.Required, h.HandleAddVideo)
	playlists.Patch("/remove/:videoId/:playlistId", guards.Required, h.HandleRemoveVideo)
	playlists.Get("/:playlistId", guards.Optional, h.HandleGet)
	playlists.Patch("/:playlistId", guards.Required, h.HandleUpdate)
	playlists.Delete("/:playlistId", guards.Required, h.HandleDelete)
}

type playlistRequest struct {
	Name        string `json:"name" form:"name" validate:"max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
}

func (h *PlaylistHandler) HandleCreate(c *fiber.Ctx) error {
	var req playlistRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	playlist, err := h.service.Create(c.UserContext(), middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, playlist, "Playlist created successfully")
}

func (h *PlaylistHandler) HandleGet(c *fiber.Ctx) error {
	detail, err := h.service.Get(c.UserContext(), c.Params("playlistId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, detail, "Playlist fetched successfully")
}

func (h *PlaylistHandler) HandleListByUser(c *fiber.Ctx) error {
	playlists, err := h.service.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlists, "User playlists fetched successfully")
}

func (h *PlaylistHandler) HandleUpdate(c *fiber.Ctx) error {
	var req playlistRequest
	err := ownerFirst(bind(c, h.validate, &req), func() error {
		return h.service.CheckOwner(c.UserContext(), middleware.UserID(c), c.Params("playlistId"))
	})
	if err != nil {
		return err
	}
	playlist, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("playlistId"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlist, "Playlist updated successfully")
}

func (h *PlaylistHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("playlistId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Playlist deleted successfully")
}

func (h *PlaylistHandler) HandleAddVideo(c *fiber.Ctx) error {
	playlist, err := h.service.AddVideo(c.UserContext(), middleware.UserID(c), c.Params("videoId"), c.Params("playlistId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlist, "Video added to playlist successfully")
}

func (h *PlaylistHandler) HandleRemoveVideo(c *fiber.Ctx) error {
	playlist, err := h.service.RemoveVideo(c.UserContext(), middleware.UserID(c), c.Params("videoId"), c.Params("playlistId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlist, "Video removed from playlist successfully")
}
