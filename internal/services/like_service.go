package services

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	likes    repositories.LikeRepository
	videos   repositories.VideoRepository
	comments repositories.CommentRepository
	tweets   repositories.TweetRepository
}

func NewLikeService(likes repositories.LikeRepository, videos repositories.VideoRepository, comments repositories.CommentRepository, tweets repositories.TweetRepository) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets}
}

// Toggle flips the caller's like on the target and reports whether it is
// liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, callerID string, kind models.LikeKind, targetID string) (bool, error) {
	if err := requireID(targetID, string(kind)); err != nil {
		return false, err
	}
	if err := s.requireTarget(ctx, kind, targetID); err != nil {
		return false, err
	}

	liked, err := s.likes.Toggle(ctx, kind, targetID, callerID)
	if err != nil {
		return false, models.NewInternalError("Failed to toggle like", err)
	}
	return liked, nil
}

func (s *LikeService) requireTarget(ctx context.Context, kind models.LikeKind, targetID string) error {
	var err error
	switch kind {
	case models.LikeVideo:
		if _, err = s.videos.GetByID(ctx, targetID); err != nil {
			return lookupError(err, "Video")
		}
	case models.LikeComment:
		if _, err = s.comments.GetByID(ctx, targetID); err != nil {
			return lookupError(err, "Comment")
		}
	case models.LikeTweet:
		if _, err = s.tweets.GetByID(ctx, targetID); err != nil {
			return lookupError(err, "Tweet")
		}
	default:
		return models.NewInvalidArgumentError("Unknown like target")
	}
	return nil
}

func (s *LikeService) LikedVideos(ctx context.Context, callerID string) ([]models.VideoCard, error) {
	videos, err := s.likes.LikedVideos(ctx, callerID)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch liked videos", err)
	}
	return videos, nil
}
