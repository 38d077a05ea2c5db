package services

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// CommentService handles comments scoped under a video.
type CommentService struct {
	comments repositories.CommentRepository
	videos   repositories.VideoRepository
}

func NewCommentService(comments repositories.CommentRepository, videos repositories.VideoRepository) *CommentService {
	return &CommentService{comments: comments, videos: videos}
}

func (s *CommentService) requireVideo(ctx context.Context, videoID string) error {
	if err := requireID(videoID, "video"); err != nil {
		return err
	}
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return lookupError(err, "Video")
	}
	return nil
}

func (s *CommentService) List(ctx context.Context, videoID, viewerID string, page, limit int) (*models.Page[models.PostView], error) {
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}
	p := models.NewPagination(page, limit)
	posts, total, err := s.comments.ListByVideo(ctx, videoID, viewerID, p)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch comments", err)
	}
	return models.NewPage(posts, total, p), nil
}

func (s *CommentService) Add(ctx context.Context, callerID, videoID, content string) (*models.Comment, error) {
	if err := requireID(videoID, "video"); err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, models.NewInvalidArgumentError("Content is required")
	}
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:      models.NewID(),
		Content: strings.TrimSpace(content),
		Video:   videoID,
		Owner:   callerID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError("Failed to add comment", err)
	}
	return comment, nil
}

// loadOwned loads a comment that belongs to videoID and is owned by the
// caller.
func (s *CommentService) loadOwned(ctx context.Context, callerID, videoID, commentID, action string) (*models.Comment, error) {
	if err := requireID(videoID, "video"); err != nil {
		return nil, err
	}
	if err := requireID(commentID, "comment"); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, lookupError(err, "Comment")
	}
	if comment.Video != videoID {
		return nil, models.NewNotFoundError("Comment")
	}
	if err := requireOwner(comment.Owner, callerID, "You are not allowed to "+action+" this comment"); err != nil {
		return nil, err
	}
	return comment, nil
}

// CheckOwner reports the error Update would return for the comment itself,
// before any payload is looked at.
func (s *CommentService) CheckOwner(ctx context.Context, callerID, videoID, commentID string) error {
	_, err := s.loadOwned(ctx, callerID, videoID, commentID, "update")
	return err
}

func (s *CommentService) Update(ctx context.Context, callerID, videoID, commentID, content string) (*models.Comment, error) {
	comment, err := s.loadOwned(ctx, callerID, videoID, commentID, "update")
	if err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, models.NewInvalidArgumentError("Content is required")
	}
	comment.Content = strings.TrimSpace(content)
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError("Failed to update comment", err)
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, callerID, videoID, commentID string) error {
	comment, err := s.loadOwned(ctx, callerID, videoID, commentID, "delete")
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return models.NewInternalError("Failed to delete comment", err)
	}
	return nil
}
