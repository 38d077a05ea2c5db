package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/services"
)

// UserHandler handles the caller's account and public channel pages.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service, validate: validator.New()}
}

func (h *UserHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	users := router.Group("/users")
	users.Get("/current-user", guards.Required, h.HandleCurrentUser)
	users.Patch("/update-account", guards.Required, h.HandleUpdateAccount)
	users.Patch("/avatar", guards.Required, h.HandleUpdateAvatar)
	users.Patch("/cover-image", guards.Required, h.HandleUpdateCoverImage)
	users.Get("/c/:username", guards.Optional, h.HandleChannelProfile)
	users.Get("/history", guards.Required, h.HandleWatchHistory)
}

func (h *UserHandler) HandleCurrentUser(c *fiber.Ctx) error {
	user, err := h.service.CurrentUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "Current user fetched successfully")
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (h *UserHandler) HandleUpdateAccount(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateAccount(c.UserContext(), middleware.UserID(c), req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "Account details updated successfully")
}

func (h *UserHandler) HandleUpdateAvatar(c *fiber.Ctx) error {
	file, closeFile, err := formFile(c, "avatar")
	if err != nil {
		return err
	}
	defer closeFile()

	user, err := h.service.UpdateAvatar(c.UserContext(), middleware.UserID(c), file)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "Avatar updated successfully")
}

func (h *UserHandler) HandleUpdateCoverImage(c *fiber.Ctx) error {
	file, closeFile, err := formFile(c, "coverImage", "coverimage")
	if err != nil {
		return err
	}
	defer closeFile()

	user, err := h.service.UpdateCoverImage(c.UserContext(), middleware.UserID(c), file)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "Cover image updated successfully")
}

func (h *UserHandler) HandleChannelProfile(c *fiber.Ctx) error {
	profile, err := h.service.ChannelProfile(c.UserContext(), c.Params("username"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, profile, "User channel fetched successfully")
}

func (h *UserHandler) HandleWatchHistory(c *fiber.Ctx) error {
	history, err := h.service.WatchHistory(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, history, "Watch history fetched successfully")
}
