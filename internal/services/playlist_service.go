package services

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

// PlaylistService handles business logic related to playlists.
type PlaylistService struct {
	playlists repositories.PlaylistRepository
	videos    repositories.VideoRepository
}

func NewPlaylistService(playlists repositories.PlaylistRepository, videos repositories.VideoRepository) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos}
}

func (s *PlaylistService) Create(ctx context.Context, callerID, name, description string) (*models.Playlist, error) {
	if blank(name, description) {
		return nil, models.NewInvalidArgumentError("Name and description both are required")
	}
	playlist := &models.Playlist{
		ID:          models.NewID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Owner:       callerID,
		Videos:      []string{},
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, models.NewInternalError("Failed to create playlist", err)
	}
	return playlist, nil
}

func (s *PlaylistService) Get(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if err := requireID(playlistID, "playlist"); err != nil {
		return nil, err
	}
	detail, err := s.playlists.Detail(ctx, playlistID)
	if err != nil {
		return nil, lookupError(err, "Playlist")
	}
	return detail, nil
}

func (s *PlaylistService) ListByUser(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	if err := requireID(userID, "user"); err != nil {
		return nil, err
	}
	playlists, err := s.playlists.ListByOwner(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError("failed to fetch playlists", err)
	}
	return playlists, nil
}

func (s *PlaylistService) loadOwned(ctx context.Context, callerID, playlistID, action string) (*models.Playlist, error) {
	if err := requireID(playlistID, "playlist"); err != nil {
		return nil, err
	}
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, lookupError(err, "Playlist")
	}
	if err := requireOwner(playlist.Owner, callerID, "You are not allowed to "+action+" this playlist"); err != nil {
		return nil, err
	}
	return playlist, nil
}

// CheckOwner reports the error Update would return for the playlist itself,
// before any payload is looked at.
func (s *PlaylistService) CheckOwner(ctx context.Context, callerID, playlistID string) error {
	_, err := s.loadOwned(ctx, callerID, playlistID, "update")
	return err
}

func (s *PlaylistService) Update(ctx context.Context, callerID, playlistID, name, description string) (*models.Playlist, error) {
	playlist, err := s.loadOwned(ctx, callerID, playlistID, "update")
	if err != nil {
		return nil, err
	}
	if blank(name, description) {
		return nil, models.NewInvalidArgumentError("Name and description both are required")
	}
	playlist.Name = strings.TrimSpace(name)
	playlist.Description = strings.TrimSpace(description)
	if err := s.playlists.Update(ctx, playlist); err != nil {
		return nil, models.NewInternalError("Failed to update playlist", err)
	}
	return playlist, nil
}

func (s *PlaylistService) Delete(ctx context.Context, callerID, playlistID string) error {
	if _, err := s.loadOwned(ctx, callerID, playlistID, "delete"); err != nil {
		return err
	}
	if err := s.playlists.Delete(ctx, playlistID); err != nil {
		return models.NewInternalError("Failed to delete playlist", err)
	}
	return nil
}

// loadPair checks both resources independently: the caller must own the
// playlist and the video.
func (s *PlaylistService) loadPair(ctx context.Context, callerID, videoID, playlistID string) error {
	if err := requireID(videoID, "video"); err != nil {
		return err
	}
	if err := requireID(playlistID, "playlist"); err != nil {
		return err
	}
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist")
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video")
	}
	if err := requireOwner(playlist.Owner, callerID, "You are not allowed to modify this playlist"); err != nil {
		return err
	}
	return requireOwner(video.Owner, callerID, "You can only add or remove your own videos")
}

func (s *PlaylistService) AddVideo(ctx context.Context, callerID, videoID, playlistID string) (*models.Playlist, error) {
	if err := s.loadPair(ctx, callerID, videoID, playlistID); err != nil {
		return nil, err
	}
	if err := s.playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		return nil, models.NewInternalError("Failed to add video to playlist", err)
	}
	return s.reload(ctx, playlistID)
}

func (s *PlaylistService) RemoveVideo(ctx context.Context, callerID, videoID, playlistID string) (*models.Playlist, error) {
	if err := s.loadPair(ctx, callerID, videoID, playlistID); err != nil {
		return nil, err
	}
	if err := s.playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return nil, models.NewInternalError("Failed to remove video from playlist", err)
	}
	return s.reload(ctx, playlistID)
}

func (s *PlaylistService) reload(ctx context.Context, playlistID string) (*models.Playlist, error) {
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, models.NewInternalError("failed to reload playlist", err)
	}
	return playlist, nil
}
