package services

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// DashboardService aggregates the caller's own channel.
type DashboardService struct {
	videos repositories.VideoRepository
}

func NewDashboardService(videos repositories.VideoRepository) *DashboardService {
	return &DashboardService{videos: videos}
}

func (s *DashboardService) Stats(ctx context.Context, callerID string) (*models.ChannelStats, error) {
	stats, err := s.videos.ChannelStats(ctx, callerID)
	if err != nil {
		return nil, models.NewInternalError("failed to compute channel stats", err)
	}
	return stats, nil
}

func (s *DashboardService) Videos(ctx context.Context, callerID string) ([]models.ChannelVideo, error) {
	videos, err := s.videos.ChannelVideos(ctx, callerID)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch channel videos", err)
	}
	return videos, nil
}
