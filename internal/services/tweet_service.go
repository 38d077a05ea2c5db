package services

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// TweetService handles channel text posts.
type TweetService struct {
	tweets repositories.TweetRepository
	users  repositories.UserRepository
}

func NewTweetService(tweets repositories.TweetRepository, users repositories.UserRepository) *TweetService {
	return &TweetService{tweets: tweets, users: users}
}

func (s *TweetService) Create(ctx context.Context, callerID, content string) (*models.Tweet, error) {
	if blank(content) {
		return nil, models.NewInvalidArgumentError("Content is required")
	}
	tweet := &models.Tweet{ID: models.NewID(), Content: strings.TrimSpace(content), Owner: callerID}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, models.NewInternalError("Failed to create tweet", err)
	}
	return tweet, nil
}

func (s *TweetService) ListByUser(ctx context.Context, userID, viewerID string, page, limit int) (*models.Page[models.PostView], error) {
	if err := requireID(userID, "user"); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, lookupError(err, "User")
	}
	p := models.NewPagination(page, limit)
	posts, total, err := s.tweets.ListByOwner(ctx, userID, viewerID, p)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch tweets", err)
	}
	return models.NewPage(posts, total, p), nil
}

func (s *TweetService) loadOwned(ctx context.Context, callerID, tweetID, action string) (*models.Tweet, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return nil, err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, lookupError(err, "Tweet")
	}
	if err := requireOwner(tweet.Owner, callerID, "You are not allowed to "+action+" this tweet"); err != nil {
		return nil, err
	}
	return tweet, nil
}

// CheckOwner reports the error Update would return for the tweet itself,
// before any payload is looked at.
func (s *TweetService) CheckOwner(ctx context.Context, callerID, tweetID string) error {
	_, err := s.loadOwned(ctx, callerID, tweetID, "update")
	return err
}

func (s *TweetService) Update(ctx context.Context, callerID, tweetID, content string) (*models.Tweet, error) {
	tweet, err := s.loadOwned(ctx, callerID, tweetID, "update")
	if err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, models.NewInvalidArgumentError("Content is required")
	}
	tweet.Content = strings.TrimSpace(content)
	if err := s.tweets.Update(ctx, tweet); err != nil {
		return nil, models.NewInternalError("Failed to update tweet", err)
	}
	return tweet, nil
}

func (s *TweetService) Delete(ctx context.Context, callerID, tweetID string) error {
	if _, err := s.loadOwned(ctx, callerID, tweetID, "delete"); err != nil {
		return err
	}
	if err := s.tweets.Delete(ctx, tweetID); err != nil {
		return models.NewInternalError("Failed to delete tweet", err)
	}
	return nil
}
