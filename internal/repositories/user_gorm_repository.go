package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidtube/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID, including the watch history ids.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}

	var videoIDs []string
	err := r.db.WithContext(ctx).Model(&WatchHistoryEntry{}).
		Where("user_id = ?", id).
		Order("created_at ASC").
		Pluck("video_id", &videoIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history of %s: %w", id, err)
	}
	user.WatchHistory = videoIDs
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}
	return &user, nil
}

func (r *GORMUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, ErrNotFound
	}
	tx := r.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		tx = tx.Where("username = ? OR email = ?", username, email)
	case username != "":
		tx = tx.Where("username = ?", username)
	default:
		tx = tx.Where("email = ?", email)
	}
	var user models.User
	err := tx.First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %q/%q: %w", username, email, err)
	}
	return &user, nil
}

func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"full_name":             user.FullName,
		"email":                 user.Email,
		"avatar_url":            user.Avatar.URL,
		"avatar_public_id":      user.Avatar.PublicID,
		"cover_image_url":       user.CoverImage.URL,
		"cover_image_public_id": user.CoverImage.PublicID,
		"password":              user.Password,
		"updated_at":            user.UpdatedAt,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GORMUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("refresh_token", token)
	if res.Error != nil {
		return fmt.Errorf("failed to store refresh token for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToWatchHistory records videoID once; repeated views keep the first
// position.
func (r *GORMUserRepository) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	entry := &WatchHistoryEntry{UserID: userID, VideoID: videoID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to add %s to watch history of %s: %w", videoID, userID, err)
	}
	return nil
}

type channelProfileRow struct {
	ID                        string    `gorm:"column:id"`
	Username                  string    `gorm:"column:username"`
	FullName                  string    `gorm:"column:full_name"`
	Email                     string    `gorm:"column:email"`
	AvatarURL                 string    `gorm:"column:avatar_url"`
	CoverImageURL             string    `gorm:"column:cover_image_url"`
	CreatedAt                 time.Time `gorm:"column:created_at"`
	SubscribersCount          int64     `gorm:"column:subscribers_count"`
	ChannelsSubscribedToCount int64     `gorm:"column:channels_subscribed_to_count"`
	IsSubscribed              bool      `gorm:"column:is_subscribed"`
}

func (r *GORMUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	var row channelProfileRow
	res := r.db.WithContext(ctx).Raw(`SELECT u.id, u.username, u.full_name, u.email, u.avatar_url,
		u.cover_image_url, u.created_at,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.channel = u.id) AS subscribers_count,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber = u.id) AS channels_subscribed_to_count,
		EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel = u.id AND s.subscriber = ?) AS is_subscribed
		FROM users u WHERE u.username = ?`, viewerID, username).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load channel %s: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &models.ChannelProfile{
		ID:                        row.ID,
		Username:                  row.Username,
		FullName:                  row.FullName,
		Email:                     row.Email,
		Avatar:                    models.ImageURL{URL: row.AvatarURL},
		CoverImage:                models.ImageURL{URL: row.CoverImageURL},
		SubscribersCount:          row.SubscribersCount,
		ChannelsSubscribedToCount: row.ChannelsSubscribedToCount,
		IsSubscribed:              row.IsSubscribed,
		CreatedAt:                 row.CreatedAt,
	}, nil
}

// WatchHistory lists the watched videos in the order they were first watched.
func (r *GORMUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	var rows []videoCardRow
	err := r.db.WithContext(ctx).Raw(`SELECT `+videoCardColumns+`
		FROM watch_history w
		JOIN videos v ON v.id = w.video_id
		LEFT JOIN users u ON u.id = v.owner
		WHERE w.user_id = ?
		ORDER BY w.created_at ASC, v.id ASC`, userID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history of %s: %w", userID, err)
	}
	return videoCards(rows), nil
}
