package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/internal/services"
	"vidtube/pkg/blobstore"
)

func mediaFiles() (*blobstore.File, *blobstore.File) {
	return &blobstore.File{Name: "clip.mp4", ContentType: "video/mp4", Reader: strings.NewReader("mp4")},
		&blobstore.File{Name: "thumb.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("jpg")}
}

func TestVideoService_Feed(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobstore.NewMemoryStore(), nil)

	cards := []models.VideoCard{{ID: models.NewID(), Title: "one"}}
	expected := repositories.FeedQuery{
		Search:     "go",
		SortBy:     "views",
		SortDesc:   false,
		Pagination: models.Pagination{Page: 2, Limit: 5},
	}
	mockVideos.On("Feed", ctx, expected).Return(cards, int64(12), nil).Once()

	page, err := videoService.Feed(ctx, services.FeedParams{Page: 2, Limit: 5, Query: " go ", SortBy: "views", SortType: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.TotalDocs)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
	assert.Len(t, page.Docs, 1)
	mockVideos.AssertExpectations(t)
}

func TestVideoService_Feed_Defaults(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobstore.NewMemoryStore(), nil)

	expected := repositories.FeedQuery{
		SortBy:     "createdAt",
		SortDesc:   true,
		Pagination: models.Pagination{Page: 1, Limit: 10},
	}
	mockVideos.On("Feed", ctx, expected).Return([]models.VideoCard{}, int64(0), nil).Once()

	page, err := videoService.Feed(ctx, services.FeedParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Docs)
	assert.False(t, page.HasNextPage)
	mockVideos.AssertExpectations(t)
}

func TestVideoService_Feed_InvalidParams(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobstore.NewMemoryStore(), nil)

	tests := []struct {
		name   string
		params services.FeedParams
	}{
		{name: "unknown sort field", params: services.FeedParams{SortBy: "password"}},
		{name: "unknown sort direction", params: services.FeedParams{SortType: "sideways"}},
		{name: "malformed owner", params: services.FeedParams{UserID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := videoService.Feed(ctx, tt.params)
			assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
		})
	}
	mockVideos.AssertNotCalled(t, "Feed", mock.Anything, mock.Anything)
}

func TestVideoService_Publish(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	blobs := blobstore.NewMemoryStore()
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, nil)

	ownerID := models.NewID()
	mockVideos.On("Create", ctx, mock.AnythingOfType("*models.Video")).Return(nil).Once()

	videoFile, thumb := mediaFiles()
	video, err := videoService.Publish(ctx, ownerID, services.PublishVideoInput{
		Title: " Intro ", Description: "First video", Duration: 12.5, VideoFile: videoFile, Thumbnail: thumb,
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro", video.Title)
	assert.Equal(t, ownerID, video.Owner)
	assert.False(t, video.IsPublished)
	assert.Equal(t, 12.5, video.Duration)
	assert.Zero(t, video.Views)
	assert.Equal(t, 2, blobs.Len())
	mockVideos.AssertExpectations(t)
}

func TestVideoService_Publish_ReleasesUploadedMedia(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	ownerID := models.NewID()

	t.Run("thumbnail upload fails", func(t *testing.T) {
		blobs := &flakyStore{MemoryStore: blobstore.NewMemoryStore(), failAt: 2}
		videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, nil)

		videoFile, thumb := mediaFiles()
		_, err := videoService.Publish(ctx, ownerID, services.PublishVideoInput{
			Title: "t", Description: "d", VideoFile: videoFile, Thumbnail: thumb,
		})
		assert.Equal(t, models.KindInternal, models.KindOf(err))
		assert.Equal(t, 0, blobs.Len())
	})

	t.Run("record cannot be stored", func(t *testing.T) {
		blobs := blobstore.NewMemoryStore()
		videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, nil)
		mockVideos.On("Create", ctx, mock.AnythingOfType("*models.Video")).Return(assert.AnError).Once()

		videoFile, thumb := mediaFiles()
		_, err := videoService.Publish(ctx, ownerID, services.PublishVideoInput{
			Title: "t", Description: "d", VideoFile: videoFile, Thumbnail: thumb,
		})
		assert.Equal(t, models.KindInternal, models.KindOf(err))
		assert.Equal(t, 0, blobs.Len())
	})

	t.Run("missing thumbnail", func(t *testing.T) {
		blobs := blobstore.NewMemoryStore()
		videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, nil)

		videoFile, _ := mediaFiles()
		_, err := videoService.Publish(ctx, ownerID, services.PublishVideoInput{Title: "t", Description: "d", VideoFile: videoFile})
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
		assert.Equal(t, 0, blobs.Len())
	})

	mockVideos.AssertExpectations(t)
}

func TestVideoService_Detail(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	mockUsers := new(MockUserRepository)
	videoService := services.NewVideoService(mockVideos, mockUsers, blobstore.NewMemoryStore(), nil)

	ownerID := models.NewID()
	viewerID := models.NewID()
	videoID := models.NewID()

	t.Run("published video records view and history", func(t *testing.T) {
		detail := &models.VideoDetail{ID: videoID, Views: 4, IsPublished: true}
		detail.Owner.ID = ownerID
		mockVideos.On("Detail", ctx, videoID, viewerID).Return(detail, nil).Once()
		mockVideos.On("IncrementViews", ctx, videoID).Return(nil).Once()
		mockUsers.On("AddToWatchHistory", ctx, viewerID, videoID).Return(nil).Once()

		got, err := videoService.Detail(ctx, videoID, viewerID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Views)
	})

	t.Run("unpublished video hidden from other viewers", func(t *testing.T) {
		detail := &models.VideoDetail{ID: videoID}
		detail.Owner.ID = ownerID
		mockVideos.On("Detail", ctx, videoID, viewerID).Return(detail, nil).Once()

		_, err := videoService.Detail(ctx, videoID, viewerID)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("unpublished video visible to owner", func(t *testing.T) {
		detail := &models.VideoDetail{ID: videoID}
		detail.Owner.ID = ownerID
		mockVideos.On("Detail", ctx, videoID, ownerID).Return(detail, nil).Once()
		mockVideos.On("IncrementViews", ctx, videoID).Return(nil).Once()
		mockUsers.On("AddToWatchHistory", ctx, ownerID, videoID).Return(assert.AnError).Once()

		got, err := videoService.Detail(ctx, videoID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Views)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := videoService.Detail(ctx, "12345", viewerID)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})

	t.Run("missing video", func(t *testing.T) {
		missing := models.NewID()
		mockVideos.On("Detail", ctx, missing, viewerID).Return(nil, repositories.ErrNotFound).Once()
		_, err := videoService.Detail(ctx, missing, viewerID)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	mockVideos.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

func TestVideoService_Update_Ownership(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	blobs := blobstore.NewMemoryStore()
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, nil)

	ownerID := models.NewID()
	video := &models.Video{ID: models.NewID(), Owner: ownerID, Title: "old", Description: "old"}
	mockVideos.On("GetByID", ctx, video.ID).Return(video, nil)

	// Ownership is checked before the payload.
	_, err := videoService.Update(ctx, models.NewID(), video.ID, services.UpdateVideoInput{})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	_, err = videoService.Update(ctx, ownerID, video.ID, services.UpdateVideoInput{Title: "new"})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))

	mockVideos.On("Update", ctx, video).Return(nil).Once()
	_, thumb := mediaFiles()
	updated, err := videoService.Update(ctx, ownerID, video.ID, services.UpdateVideoInput{Title: "new", Description: "desc", Thumbnail: thumb})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.True(t, blobs.Has(updated.Thumbnail.PublicID))
	mockVideos.AssertExpectations(t)
}

func TestVideoService_DeleteAndTogglePublish(t *testing.T) {
	ctx := context.Background()
	mockVideos := new(MockVideoRepository)
	blobs := blobstore.NewMemoryStore()
	events := &recordingPublisher{}
	videoService := services.NewVideoService(mockVideos, new(MockUserRepository), blobs, events)

	ownerID := models.NewID()
	videoFile, thumb := mediaFiles()
	fileObj, err := blobs.Upload(ctx, *videoFile)
	require.NoError(t, err)
	thumbObj, err := blobs.Upload(ctx, *thumb)
	require.NoError(t, err)

	video := &models.Video{
		ID:        models.NewID(),
		Owner:     ownerID,
		VideoFile: models.BlobRef{URL: fileObj.URL, PublicID: fileObj.PublicID},
		Thumbnail: models.BlobRef{URL: thumbObj.URL, PublicID: thumbObj.PublicID},
	}
	mockVideos.On("GetByID", ctx, video.ID).Return(video, nil)

	err = videoService.Delete(ctx, models.NewID(), video.ID)
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	mockVideos.On("Update", ctx, video).Return(nil).Twice()
	toggled, err := videoService.TogglePublish(ctx, ownerID, video.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublished)
	toggled, err = videoService.TogglePublish(ctx, ownerID, video.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)

	mockVideos.On("Delete", ctx, video.ID).Return(nil).Once()
	require.NoError(t, videoService.Delete(ctx, ownerID, video.ID))
	assert.Equal(t, 0, blobs.Len())
	assert.Equal(t, []string{services.EventVideoPublished, services.EventVideoDeleted}, events.Keys())
	mockVideos.AssertExpectations(t)
}
