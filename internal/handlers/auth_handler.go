package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/services"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles HTTP requests for registration and the session
// lifecycle.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	tokens      services.TokenConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, tokens services.TokenConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		tokens:      tokens,
	}
}

// RegisterRoutes registers the authentication routes under /users.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	users := router.Group("/users")
	users.Post("/register", guards.RateLimit, h.HandleRegister)
	users.Post("/login", guards.RateLimit, h.HandleLogin)
	users.Post("/refresh-token", guards.RateLimit, h.HandleRefresh)
	users.Post("/logout", guards.Required, h.HandleLogout)
	users.Post("/change-password", guards.Required, h.HandleChangePassword)
}

// RegisterRequest is the multipart form of a registration.
type RegisterRequest struct {
	FullName string `form:"fullName" json:"fullName" validate:"max=100"`
	Email    string `form:"email" json:"email" validate:"omitempty,email"`
	Username string `form:"username" json:"username" validate:"max=50"`
	Password string `form:"password" json:"password" validate:"max=72"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		return err
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(c, "coverImage", "coverimage")
	if err != nil {
		return err
	}
	defer closeCover()

	user, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, user, "User registered successfully")
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// HandleLogin verifies the credentials and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	user, tokens, err := h.authService.Login(c.UserContext(), services.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookies(c, tokens)
	return respond(c, fiber.StatusOK, LoginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// HandleRefresh rotates the refresh token taken from the cookie or body.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshTokenCookie)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return models.NewInvalidArgumentError("Invalid request body", err.Error())
			}
		}
		token = body.RefreshToken
	}

	_, tokens, err := h.authService.RotateRefresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	h.setSessionCookies(c, tokens)
	return respond(c, fiber.StatusOK, tokens, "Access token refreshed")
}

// HandleLogout ends the caller's session and clears the cookies.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Revoke(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	expired := time.Unix(0, 0)
	c.Cookie(sessionCookie(middleware.AccessTokenCookie, "", expired))
	c.Cookie(sessionCookie(refreshTokenCookie, "", expired))
	return respond(c, fiber.StatusOK, fiber.Map{}, "User logged out successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.UserContext(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Password changed successfully")
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, tokens *services.Tokens) {
	now := time.Now()
	c.Cookie(sessionCookie(middleware.AccessTokenCookie, tokens.AccessToken, now.Add(h.tokens.AccessExpiry)))
	c.Cookie(sessionCookie(refreshTokenCookie, tokens.RefreshToken, now.Add(h.tokens.RefreshExpiry)))
}

func sessionCookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}
