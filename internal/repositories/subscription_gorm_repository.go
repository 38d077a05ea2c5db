package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidtube/internal/models"
)

// GORMSubscriptionRepository is a GORM implementation of SubscriptionRepository.
type GORMSubscriptionRepository struct {
	db *gorm.DB
}

func NewGORMSubscriptionRepository(db *gorm.DB) *GORMSubscriptionRepository {
	return &GORMSubscriptionRepository{db: db}
}

func (r *GORMSubscriptionRepository) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("channel = ? AND subscriber = ?", channelID, subscriberID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unsubscribe from %s: %w", channelID, res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	sub := &models.Subscription{ID: models.NewID(), Channel: channelID, Subscriber: subscriberID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(sub).Error; err != nil {
		return false, fmt.Errorf("failed to subscribe to %s: %w", channelID, err)
	}
	return true, nil
}

type subscriberRow struct {
	ID                     string `gorm:"column:id"`
	Username               string `gorm:"column:username"`
	FullName               string `gorm:"column:full_name"`
	AvatarURL              string `gorm:"column:avatar_url"`
	SubscribedToSubscriber bool   `gorm:"column:subscribed_to_subscriber"`
	SubscribersCount       int64  `gorm:"column:subscribers_count"`
}

// Subscribers lists who follows channelID and whether the channel follows
// them back.
func (r *GORMSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.SubscriberView, error) {
	var rows []subscriberRow
	err := r.db.WithContext(ctx).Raw(`SELECT u.id, u.username, u.full_name, u.avatar_url,
		EXISTS(SELECT 1 FROM subscriptions b WHERE b.channel = u.id AND b.subscriber = s.channel) AS subscribed_to_subscriber,
		(SELECT COUNT(*) FROM subscriptions c WHERE c.channel = u.id) AS subscribers_count
		FROM subscriptions s JOIN users u ON u.id = s.subscriber
		WHERE s.channel = ?
		ORDER BY s.created_at DESC, s.id DESC`, channelID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers of %s: %w", channelID, err)
	}

	subscribers := make([]models.SubscriberView, 0, len(rows))
	for _, row := range rows {
		subscribers = append(subscribers, models.SubscriberView{
			OwnerProfile: models.OwnerProfile{
				ID:       row.ID,
				Username: row.Username,
				FullName: row.FullName,
				Avatar:   models.ImageURL{URL: row.AvatarURL},
			},
			SubscribedToSubscriber: row.SubscribedToSubscriber,
			SubscribersCount:       row.SubscribersCount,
		})
	}
	return subscribers, nil
}

type channelRow struct {
	ID        string `gorm:"column:id"`
	Username  string `gorm:"column:username"`
	FullName  string `gorm:"column:full_name"`
	AvatarURL string `gorm:"column:avatar_url"`
}

// SubscribedChannels lists the channels subscriberID follows with the newest
// published video of each.
func (r *GORMSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscribedChannel, error) {
	var rows []channelRow
	err := r.db.WithContext(ctx).Raw(`SELECT u.id, u.username, u.full_name, u.avatar_url
		FROM subscriptions s JOIN users u ON u.id = s.channel
		WHERE s.subscriber = ?
		ORDER BY s.created_at DESC, s.id DESC`, subscriberID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list channels of %s: %w", subscriberID, err)
	}
	if len(rows) == 0 {
		return []models.SubscribedChannel{}, nil
	}

	channelIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		channelIDs = append(channelIDs, row.ID)
	}
	var videos []models.Video
	err = r.db.WithContext(ctx).
		Where("owner IN ? AND is_published = ?", channelIDs, true).
		Order("created_at DESC").Order("id DESC").
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest videos: %w", err)
	}
	latest := make(map[string]*models.LatestVideo, len(rows))
	for _, v := range videos {
		if _, seen := latest[v.Owner]; seen {
			continue
		}
		latest[v.Owner] = &models.LatestVideo{
			ID:        v.ID,
			Title:     v.Title,
			Thumbnail: models.ImageURL{URL: v.Thumbnail.URL},
			Views:     v.Views,
			CreatedAt: v.CreatedAt,
		}
	}

	channels := make([]models.SubscribedChannel, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, models.SubscribedChannel{
			OwnerProfile: models.OwnerProfile{
				ID:       row.ID,
				Username: row.Username,
				FullName: row.FullName,
				Avatar:   models.ImageURL{URL: row.AvatarURL},
			},
			LatestVideo: latest[row.ID],
		})
	}
	return channels, nil
}
