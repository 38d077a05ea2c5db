package services

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// SubscriptionService handles channel subscriptions.
type SubscriptionService struct {
	subscriptions repositories.SubscriptionRepository
	users         repositories.UserRepository
}

func NewSubscriptionService(subscriptions repositories.SubscriptionRepository, users repositories.UserRepository) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, users: users}
}

func (s *SubscriptionService) requireChannel(ctx context.Context, channelID string) error {
	if err := requireID(channelID, "channel"); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return lookupError(err, "Channel")
	}
	return nil
}

// Toggle flips the caller's subscription to channelID and reports whether
// the caller is subscribed afterwards.
func (s *SubscriptionService) Toggle(ctx context.Context, callerID, channelID string) (bool, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return false, err
	}
	subscribed, err := s.subscriptions.Toggle(ctx, channelID, callerID)
	if err != nil {
		return false, models.NewInternalError("Failed to toggle subscription", err)
	}
	return subscribed, nil
}

func (s *SubscriptionService) Subscribers(ctx context.Context, channelID string) ([]models.SubscriberView, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}
	subscribers, err := s.subscriptions.Subscribers(ctx, channelID)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch subscribers", err)
	}
	return subscribers, nil
}

func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscribedChannel, error) {
	if err := requireID(subscriberID, "subscriber"); err != nil {
		return nil, err
	}
	channels, err := s.subscriptions.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch subscribed channels", err)
	}
	return channels, nil
}
