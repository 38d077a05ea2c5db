package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/blobstore"
)

// TokenConfig holds the signing secrets and lifetimes of issued tokens.
type TokenConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims identifies the caller of an authenticated request.
type Claims struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *blobstore.File
	CoverImage *blobstore.File
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// AuthService handles registration, login and the token lifecycle.
type AuthService struct {
	users  repositories.UserRepository
	blobs  blobstore.Store
	events EventPublisher
	cfg    TokenConfig
	now    func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, blobs blobstore.Store, events EventPublisher, cfg TokenConfig) *AuthService {
	return &AuthService{
		users:  users,
		blobs:  blobs,
		events: events,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Register creates an account after uploading its avatar and optional cover
// image. Uploaded blobs are released again if the account cannot be stored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if blank(in.FullName, in.Email, in.Username, in.Password) {
		return nil, models.NewInvalidArgumentError("All fields are required")
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, models.NewInternalError("failed to check existing users", err)
	}
	if existing != nil {
		return nil, models.NewConflictError("User with email or username already exists")
	}

	if in.Avatar == nil {
		return nil, models.NewInvalidArgumentError("Avatar file is required")
	}
	avatar := upload(ctx, s.blobs, in.Avatar)
	if avatar == nil {
		return nil, models.NewInternalError("Error while uploading avatar", nil)
	}
	var cover *models.BlobRef
	if in.CoverImage != nil {
		if cover = upload(ctx, s.blobs, in.CoverImage); cover == nil {
			release(ctx, s.blobs, avatar)
			return nil, models.NewInternalError("Error while uploading cover image", nil)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		release(ctx, s.blobs, avatar, cover)
		return nil, models.NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Avatar:       *avatar,
		WatchHistory: []string{},
		Password:     string(hashed),
	}
	if cover != nil {
		user.CoverImage = *cover
	}

	if err := s.users.Create(ctx, user); err != nil {
		release(ctx, s.blobs, avatar, cover)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, models.NewConflictError("User with email or username already exists")
		}
		return nil, models.NewInternalError("Something went wrong while registering the user", err)
	}

	publish(ctx, s.events, EventUserRegistered, map[string]string{"userId": user.ID, "username": user.Username})
	return user, nil
}

// Login verifies the credentials of a user identified by username or email.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, *Tokens, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return nil, nil, models.NewInvalidArgumentError("username or email is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, models.NewNotFoundError("User")
		}
		return nil, nil, models.NewInternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, nil, models.NewUnauthenticatedError("Invalid user credentials")
	}

	tokens, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// IssueTokens signs a new token pair and stores the refresh token on the
// user, replacing any previous session.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User) (*Tokens, error) {
	now := s.now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"fullName": user.FullName,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.AccessExpiry).Unix(),
	})
	accessToken, err := access.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return nil, models.NewInternalError("Something went wrong while generating tokens", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": user.ID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.RefreshExpiry).Unix(),
	})
	refreshToken, err := refresh.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return nil, models.NewInternalError("Something went wrong while generating tokens", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, models.NewInternalError("Something went wrong while generating tokens", err)
	}
	user.RefreshToken = refreshToken
	return &Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func parseHS256(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

// VerifyAccess validates an access token and returns its claims.
func (s *AuthService) VerifyAccess(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, models.NewUnauthenticatedError("Unauthorized request")
	}
	claims, err := parseHS256(tokenString, s.cfg.AccessSecret)
	if err != nil {
		return nil, &models.AppError{Kind: models.KindUnauthenticated, Message: "Invalid access token", Err: err}
	}
	userID := stringClaim(claims, "_id")
	if userID == "" {
		return nil, models.NewUnauthenticatedError("Invalid access token")
	}
	return &Claims{
		UserID:   userID,
		Email:    stringClaim(claims, "email"),
		Username: stringClaim(claims, "username"),
		FullName: stringClaim(claims, "fullName"),
	}, nil
}

// RotateRefresh exchanges the current refresh token for a new pair. A token
// that is valid but no longer stored on the user has been used already.
func (s *AuthService) RotateRefresh(ctx context.Context, tokenString string) (*models.User, *Tokens, error) {
	if tokenString == "" {
		return nil, nil, models.NewUnauthenticatedError("Unauthorized request")
	}
	claims, err := parseHS256(tokenString, s.cfg.RefreshSecret)
	if err != nil {
		return nil, nil, &models.AppError{Kind: models.KindUnauthenticated, Message: "Invalid refresh token", Err: err}
	}

	user, err := s.users.GetByID(ctx, stringClaim(claims, "_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, models.NewUnauthenticatedError("Invalid refresh token")
		}
		return nil, nil, models.NewInternalError("failed to load user", err)
	}
	if user.RefreshToken == "" || user.RefreshToken != tokenString {
		return nil, nil, models.NewUnauthenticatedError("Refresh token is expired or used")
	}

	tokens, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Revoke ends the session of userID.
func (s *AuthService) Revoke(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return models.NewInternalError("failed to log out", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if blank(oldPassword, newPassword) {
		return models.NewInvalidArgumentError("Old and new password are required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return lookupError(err, "User")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return models.NewInvalidArgumentError("Invalid old password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError("failed to hash password", err)
	}
	user.Password = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return models.NewInternalError("failed to change password", err)
	}
	return nil
}
