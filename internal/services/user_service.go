package services

import (
	"context"
	"errors"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/blobstore"
)

// UserService handles account and channel reads and profile updates.
type UserService struct {
	users repositories.UserRepository
	blobs blobstore.Store
}

func NewUserService(users repositories.UserRepository, blobs blobstore.Store) *UserService {
	return &UserService{users: users, blobs: blobs}
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	return user, nil
}

// UpdateAccount changes the full name and email of the caller.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	if blank(fullName, email) {
		return nil, models.NewInvalidArgumentError("All fields are required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	user.FullName = strings.TrimSpace(fullName)
	user.Email = strings.ToLower(strings.TrimSpace(email))
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, models.NewConflictError("Email is already in use")
		}
		return nil, models.NewInternalError("failed to update account", err)
	}
	return user, nil
}

// UpdateAvatar swaps the avatar; the previous blob is deleted only after the
// new one is stored on the user.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *blobstore.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, "Avatar", func(u *models.User) *models.BlobRef { return &u.Avatar })
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *blobstore.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, "Cover image", func(u *models.User) *models.BlobRef { return &u.CoverImage })
}

func (s *UserService) replaceImage(ctx context.Context, userID string, file *blobstore.File, label string, field func(*models.User) *models.BlobRef) (*models.User, error) {
	if file == nil {
		return nil, models.NewInvalidArgumentError(label + " file is missing")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	uploaded := upload(ctx, s.blobs, file)
	if uploaded == nil {
		return nil, models.NewInternalError("Error while uploading "+strings.ToLower(label), nil)
	}

	slot := field(user)
	previous := *slot
	*slot = *uploaded
	if err := s.users.Update(ctx, user); err != nil {
		release(ctx, s.blobs, uploaded)
		return nil, models.NewInternalError("failed to update "+strings.ToLower(label), err)
	}
	release(ctx, s.blobs, &previous)
	return user, nil
}

func (s *UserService) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, models.NewInvalidArgumentError("username is missing")
	}
	profile, err := s.users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, lookupError(err, "Channel")
	}
	return profile, nil
}

func (s *UserService) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	history, err := s.users.WatchHistory(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	return history, nil
}
