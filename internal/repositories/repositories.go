package repositories

import (
	"context"
	"errors"

	"vidtube/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// FeedQuery selects published videos for the public feed.
type FeedQuery struct {
	Search   string
	OwnerID  string
	SortBy   string
	SortDesc bool
	models.Pagination
}

// SortFields maps accepted sortBy values to the document field name.
var SortFields = map[string]string{
	"createdAt": "createdAt",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// FindByUsernameOrEmail matches either field; empty arguments are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	// Update persists fullName, email, avatar, coverImage and password.
	Update(ctx context.Context, user *models.User) error
	SetRefreshToken(ctx context.Context, userID, token string) error
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error)
}

// VideoRepository defines the interface for video data access.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id string) (*models.Video, error)
	// Update persists title, description, thumbnail and isPublished.
	Update(ctx context.Context, video *models.Video) error
	// Delete removes the video with its comments, the likes of both, its
	// playlist memberships and watch history entries.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	Feed(ctx context.Context, q FeedQuery) ([]models.VideoCard, int64, error)
	Detail(ctx context.Context, id, viewerID string) (*models.VideoDetail, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error)
	ChannelStats(ctx context.Context, ownerID string) (*models.ChannelStats, error)
}

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// Delete removes the comment and its likes.
	Delete(ctx context.Context, id string) error
	ListByVideo(ctx context.Context, videoID, viewerID string, p models.Pagination) ([]models.PostView, int64, error)
}

// TweetRepository defines the interface for tweet data access.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id string) (*models.Tweet, error)
	Update(ctx context.Context, tweet *models.Tweet) error
	// Delete removes the tweet and its likes.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID, viewerID string, p models.Pagination) ([]models.PostView, int64, error)
}

// LikeRepository defines the interface for like data access.
type LikeRepository interface {
	// Toggle flips the like of userID on the target and reports whether the
	// like exists afterwards.
	Toggle(ctx context.Context, kind models.LikeKind, targetID, userID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error)
}

// PlaylistRepository defines the interface for playlist data access.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id string) (*models.Playlist, error)
	// Update persists name and description.
	Update(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id string) error
	// AddVideo appends videoID unless it is already present.
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.PlaylistSummary, error)
	Detail(ctx context.Context, id string) (*models.PlaylistDetail, error)
}

// SubscriptionRepository defines the interface for subscription data access.
type SubscriptionRepository interface {
	// Toggle flips the subscription and reports whether it exists afterwards.
	Toggle(ctx context.Context, channelID, subscriberID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.SubscriberView, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscribedChannel, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users         UserRepository
	Videos        VideoRepository
	Comments      CommentRepository
	Tweets        TweetRepository
	Likes         LikeRepository
	Playlists     PlaylistRepository
	Subscriptions SubscriptionRepository

	close func(ctx context.Context) error
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
