package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vidtube/internal/models"
)

// GORMTweetRepository is a GORM implementation of TweetRepository.
type GORMTweetRepository struct {
	db *gorm.DB
}

func NewGORMTweetRepository(db *gorm.DB) *GORMTweetRepository {
	return &GORMTweetRepository{db: db}
}

func (r *GORMTweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	if tweet.ID == "" {
		tweet.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(tweet).Error; err != nil {
		return fmt.Errorf("failed to create tweet: %w", translateGORMError(err))
	}
	return nil
}

func (r *GORMTweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.db.WithContext(ctx).First(&tweet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tweet by ID %s: %w", id, err)
	}
	return &tweet, nil
}

func (r *GORMTweetRepository) Update(ctx context.Context, tweet *models.Tweet) error {
	tweet.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", tweet.ID).
		Updates(map[string]interface{}{"content": tweet.Content, "updated_at": tweet.UpdatedAt})
	if res.Error != nil {
		return fmt.Errorf("failed to update tweet %s: %w", tweet.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GORMTweetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tweet = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes of tweet %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Tweet{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tweet %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GORMTweetRepository) ListByOwner(ctx context.Context, ownerID, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	return listPosts(ctx, r.db, "tweets", "tweet", "owner", ownerID, viewerID, p)
}
