package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/blobstore"
	"vidtube/pkg/logger"
)

// FeedParams are the raw query parameters of the video feed.
type FeedParams struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// PublishVideoInput carries a new upload. Duration is the client-supplied
// length in seconds; the blob store never inspects the media.
type PublishVideoInput struct {
	Title       string
	Description string
	Duration    float64
	VideoFile   *blobstore.File
	Thumbnail   *blobstore.File
}

type UpdateVideoInput struct {
	Title       string
	Description string
	Thumbnail   *blobstore.File
}

// VideoService handles business logic related to videos.
type VideoService struct {
	videos repositories.VideoRepository
	users  repositories.UserRepository
	blobs  blobstore.Store
	events EventPublisher
}

func NewVideoService(videos repositories.VideoRepository, users repositories.UserRepository, blobs blobstore.Store, events EventPublisher) *VideoService {
	return &VideoService{videos: videos, users: users, blobs: blobs, events: events}
}

// Feed lists published videos with optional search, owner filter and sort.
func (s *VideoService) Feed(ctx context.Context, params FeedParams) (*models.Page[models.VideoCard], error) {
	if params.UserID != "" {
		if err := requireID(params.UserID, "user"); err != nil {
			return nil, err
		}
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if _, ok := repositories.SortFields[sortBy]; !ok {
		return nil, models.NewInvalidArgumentError("Invalid sortBy field", "sortBy must be one of createdAt, views, duration, title")
	}
	var desc bool
	switch strings.ToLower(params.SortType) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return nil, models.NewInvalidArgumentError("Invalid sortType", "sortType must be asc or desc")
	}

	page := models.NewPagination(params.Page, params.Limit)
	cards, total, err := s.videos.Feed(ctx, repositories.FeedQuery{
		Search:     strings.TrimSpace(params.Query),
		OwnerID:    params.UserID,
		SortBy:     sortBy,
		SortDesc:   desc,
		Pagination: page,
	})
	if err != nil {
		return nil, models.NewInternalError("failed to fetch videos", err)
	}
	return models.NewPage(cards, total, page), nil
}

// Publish uploads the media of a new video and stores it unpublished.
func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishVideoInput) (*models.Video, error) {
	if blank(in.Title, in.Description) {
		return nil, models.NewInvalidArgumentError("All fields are required")
	}
	if in.VideoFile == nil {
		return nil, models.NewInvalidArgumentError("Video file is required")
	}
	if in.Thumbnail == nil {
		return nil, models.NewInvalidArgumentError("Thumbnail is required")
	}
	if in.Duration < 0 {
		return nil, models.NewInvalidArgumentError("Duration must not be negative")
	}

	videoFile := upload(ctx, s.blobs, in.VideoFile)
	if videoFile == nil {
		return nil, models.NewInternalError("Error while uploading video file", nil)
	}
	thumbnail := upload(ctx, s.blobs, in.Thumbnail)
	if thumbnail == nil {
		release(ctx, s.blobs, videoFile)
		return nil, models.NewInternalError("Error while uploading thumbnail", nil)
	}

	video := &models.Video{
		ID:          models.NewID(),
		VideoFile:   *videoFile,
		Thumbnail:   *thumbnail,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		Owner:       ownerID,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		release(ctx, s.blobs, videoFile, thumbnail)
		return nil, models.NewInternalError("Something went wrong while publishing the video", err)
	}
	return video, nil
}

// Detail returns the enriched video and records the view. Unpublished videos
// are visible to their owner only.
func (s *VideoService) Detail(ctx context.Context, videoID, viewerID string) (*models.VideoDetail, error) {
	if err := requireID(videoID, "video"); err != nil {
		return nil, err
	}
	detail, err := s.videos.Detail(ctx, videoID, viewerID)
	if err != nil {
		return nil, lookupError(err, "Video")
	}
	if !detail.IsPublished && detail.Owner.ID != viewerID {
		return nil, models.NewNotFoundError("Video")
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("Video")
		}
		return nil, models.NewInternalError("failed to record view", err)
	}
	detail.Views++

	if viewerID != "" {
		if err := s.users.AddToWatchHistory(ctx, viewerID, videoID); err != nil {
			logger.Warn("failed to update watch history",
				zap.String("user", viewerID), zap.String("video", videoID), zap.Error(err))
		}
	}
	return detail, nil
}

// loadOwned loads a video and checks the caller owns it.
func (s *VideoService) loadOwned(ctx context.Context, callerID, videoID, action string) (*models.Video, error) {
	if err := requireID(videoID, "video"); err != nil {
		return nil, err
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, lookupError(err, "Video")
	}
	if err := requireOwner(video.Owner, callerID, "You are not allowed to "+action+" this video"); err != nil {
		return nil, err
	}
	return video, nil
}

// CheckOwner reports the error Update would return for the video itself,
// before any payload is looked at.
func (s *VideoService) CheckOwner(ctx context.Context, callerID, videoID string) error {
	_, err := s.loadOwned(ctx, callerID, videoID, "update")
	return err
}

// Update changes title and description and optionally the thumbnail. A new
// thumbnail that cannot be stored on the video is deleted again.
func (s *VideoService) Update(ctx context.Context, callerID, videoID string, in UpdateVideoInput) (*models.Video, error) {
	video, err := s.loadOwned(ctx, callerID, videoID, "update")
	if err != nil {
		return nil, err
	}
	if blank(in.Title, in.Description) {
		return nil, models.NewInvalidArgumentError("Title and description are required")
	}

	previous := video.Thumbnail
	var thumbnail *models.BlobRef
	if in.Thumbnail != nil {
		if thumbnail = upload(ctx, s.blobs, in.Thumbnail); thumbnail == nil {
			return nil, models.NewInternalError("Error while uploading thumbnail", nil)
		}
		video.Thumbnail = *thumbnail
	}
	video.Title = strings.TrimSpace(in.Title)
	video.Description = strings.TrimSpace(in.Description)

	if err := s.videos.Update(ctx, video); err != nil {
		release(ctx, s.blobs, thumbnail)
		return nil, models.NewInternalError("Failed to update video", err)
	}
	if thumbnail != nil {
		release(ctx, s.blobs, &previous)
	}
	return video, nil
}

// Delete removes the video with its dependents, then its media.
func (s *VideoService) Delete(ctx context.Context, callerID, videoID string) error {
	video, err := s.loadOwned(ctx, callerID, videoID, "delete")
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return models.NewInternalError("Failed to delete video", err)
	}
	release(ctx, s.blobs, &video.VideoFile, &video.Thumbnail)
	publish(ctx, s.events, EventVideoDeleted, map[string]string{"videoId": video.ID, "owner": video.Owner})
	return nil
}

func (s *VideoService) TogglePublish(ctx context.Context, callerID, videoID string) (*models.Video, error) {
	video, err := s.loadOwned(ctx, callerID, videoID, "toggle")
	if err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	if err := s.videos.Update(ctx, video); err != nil {
		return nil, models.NewInternalError("Failed to toggle publish status", err)
	}
	if video.IsPublished {
		publish(ctx, s.events, EventVideoPublished, map[string]string{"videoId": video.ID, "owner": video.Owner, "title": video.Title})
	}
	return video, nil
}
