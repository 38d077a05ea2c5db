package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/blobstore"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockUserRepository) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	args := m.Called(ctx, userID, videoID)
	return args.Error(0)
}

func (m *MockUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	args := m.Called(ctx, username, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelProfile), args.Error(1)
}

func (m *MockUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.VideoCard), args.Error(1)
}

// MockVideoRepository is a mock implementation of repositories.VideoRepository
type MockVideoRepository struct {
	mock.Mock
}

func (m *MockVideoRepository) Create(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *MockVideoRepository) Update(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVideoRepository) IncrementViews(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVideoRepository) Feed(ctx context.Context, q repositories.FeedQuery) ([]models.VideoCard, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.VideoCard), args.Get(1).(int64), args.Error(2)
}

func (m *MockVideoRepository) Detail(ctx context.Context, id, viewerID string) (*models.VideoDetail, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoDetail), args.Error(1)
}

func (m *MockVideoRepository) ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.ChannelVideo), args.Error(1)
}

func (m *MockVideoRepository) ChannelStats(ctx context.Context, ownerID string) (*models.ChannelStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelStats), args.Error(1)
}

// MockCommentRepository is a mock implementation of repositories.CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) ListByVideo(ctx context.Context, videoID, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	args := m.Called(ctx, videoID, viewerID, p)
	return args.Get(0).([]models.PostView), args.Get(1).(int64), args.Error(2)
}

// MockTweetRepository is a mock implementation of repositories.TweetRepository
type MockTweetRepository struct {
	mock.Mock
}

func (m *MockTweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	args := m.Called(ctx, tweet)
	return args.Error(0)
}

func (m *MockTweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tweet), args.Error(1)
}

func (m *MockTweetRepository) Update(ctx context.Context, tweet *models.Tweet) error {
	args := m.Called(ctx, tweet)
	return args.Error(0)
}

func (m *MockTweetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTweetRepository) ListByOwner(ctx context.Context, ownerID, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	args := m.Called(ctx, ownerID, viewerID, p)
	return args.Get(0).([]models.PostView), args.Get(1).(int64), args.Error(2)
}

// MockLikeRepository is a mock implementation of repositories.LikeRepository
type MockLikeRepository struct {
	mock.Mock
}

func (m *MockLikeRepository) Toggle(ctx context.Context, kind models.LikeKind, targetID, userID string) (bool, error) {
	args := m.Called(ctx, kind, targetID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.VideoCard), args.Error(1)
}

// MockPlaylistRepository is a mock implementation of repositories.PlaylistRepository
type MockPlaylistRepository struct {
	mock.Mock
}

func (m *MockPlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	args := m.Called(ctx, playlist)
	return args.Error(0)
}

func (m *MockPlaylistRepository) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	args := m.Called(ctx, playlist)
	return args.Error(0)
}

func (m *MockPlaylistRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	args := m.Called(ctx, playlistID, videoID)
	return args.Error(0)
}

func (m *MockPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	args := m.Called(ctx, playlistID, videoID)
	return args.Error(0)
}

func (m *MockPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.PlaylistSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.PlaylistSummary), args.Error(1)
}

func (m *MockPlaylistRepository) Detail(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlaylistDetail), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of repositories.SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	args := m.Called(ctx, channelID, subscriberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.SubscriberView, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).([]models.SubscriberView), args.Error(1)
}

func (m *MockSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscribedChannel, error) {
	args := m.Called(ctx, subscriberID)
	return args.Get(0).([]models.SubscribedChannel), args.Error(1)
}

// recordingPublisher captures published routing keys.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// flakyStore fails the upload with the given 1-based index and delegates
// everything else to a MemoryStore.
type flakyStore struct {
	*blobstore.MemoryStore
	failAt  int
	uploads int
}

func (s *flakyStore) Upload(ctx context.Context, f blobstore.File) (*blobstore.Object, error) {
	s.uploads++
	if s.uploads == s.failAt {
		return nil, context.DeadlineExceeded
	}
	return s.MemoryStore.Upload(ctx, f)
}
