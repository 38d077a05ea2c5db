package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidtube/internal/models"
)

// GORMPlaylistRepository is a GORM implementation of PlaylistRepository.
type GORMPlaylistRepository struct {
	db *gorm.DB
}

func NewGORMPlaylistRepository(db *gorm.DB) *GORMPlaylistRepository {
	return &GORMPlaylistRepository{db: db}
}

func (r *GORMPlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = models.NewID()
	}
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", translateGORMError(err))
	}
	return nil
}

func (r *GORMPlaylistRepository) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).First(&playlist, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get playlist by ID %s: %w", id, err)
	}

	var videoIDs []string
	err := r.db.WithContext(ctx).Model(&PlaylistVideo{}).
		Where("playlist_id = ?", id).
		Order("position ASC").
		Pluck("video_id", &videoIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load videos of playlist %s: %w", id, err)
	}
	playlist.Videos = videoIDs
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	return &playlist, nil
}

func (r *GORMPlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	playlist.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Playlist{}).Where("id = ?", playlist.ID).Updates(map[string]interface{}{
		"name":        playlist.Name,
		"description": playlist.Description,
		"updated_at":  playlist.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update playlist %s: %w", playlist.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GORMPlaylistRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&PlaylistVideo{}).Error; err != nil {
			return fmt.Errorf("failed to clear playlist %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Playlist{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GORMPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position int64
		err := tx.Model(&PlaylistVideo{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&position).Error
		if err != nil {
			return fmt.Errorf("failed to read playlist %s: %w", playlistID, err)
		}

		entry := &PlaylistVideo{PlaylistID: playlistID, VideoID: videoID, Position: position + 1}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error; err != nil {
			return fmt.Errorf("failed to add video %s to playlist %s: %w", videoID, playlistID, err)
		}
		return touchPlaylist(tx, playlistID)
	})
}

func (r *GORMPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("playlist_id = ? AND video_id = ?", playlistID, videoID).Delete(&PlaylistVideo{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove video %s from playlist %s: %w", videoID, playlistID, err)
		}
		return touchPlaylist(tx, playlistID)
	})
}

func touchPlaylist(tx *gorm.DB, playlistID string) error {
	res := tx.Model(&models.Playlist{}).Where("id = ?", playlistID).UpdateColumn("updated_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("failed to update playlist %s: %w", playlistID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type playlistSummaryRow struct {
	ID          string    `gorm:"column:id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	TotalVideos int64     `gorm:"column:total_videos"`
	TotalViews  int64     `gorm:"column:total_views"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (r *GORMPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.PlaylistSummary, error) {
	var rows []playlistSummaryRow
	err := r.db.WithContext(ctx).Raw(`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM playlist_videos pv JOIN videos v ON v.id = pv.video_id
			WHERE pv.playlist_id = p.id) AS total_videos,
		(SELECT CAST(COALESCE(SUM(v.views), 0) AS BIGINT) FROM playlist_videos pv JOIN videos v ON v.id = pv.video_id
			WHERE pv.playlist_id = p.id) AS total_views
		FROM playlists p WHERE p.owner = ?
		ORDER BY p.created_at DESC, p.id DESC`, ownerID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists of %s: %w", ownerID, err)
	}

	playlists := make([]models.PlaylistSummary, 0, len(rows))
	for _, row := range rows {
		playlists = append(playlists, models.PlaylistSummary{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			TotalVideos: row.TotalVideos,
			TotalViews:  row.TotalViews,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return playlists, nil
}

type playlistDetailRow struct {
	ID             string    `gorm:"column:id"`
	Name           string    `gorm:"column:name"`
	Description    string    `gorm:"column:description"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	OwnerID        string    `gorm:"column:owner_id"`
	OwnerUsername  string    `gorm:"column:owner_username"`
	OwnerFullName  string    `gorm:"column:owner_full_name"`
	OwnerAvatarURL string    `gorm:"column:owner_avatar_url"`
}

// Detail returns the playlist with its published videos in playlist order.
func (r *GORMPlaylistRepository) Detail(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	var row playlistDetailRow
	res := r.db.WithContext(ctx).Raw(`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		p.owner AS owner_id, u.username AS owner_username, u.full_name AS owner_full_name,
		u.avatar_url AS owner_avatar_url
		FROM playlists p LEFT JOIN users u ON u.id = p.owner
		WHERE p.id = ?`, id).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load playlist %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var videoRows []videoCardRow
	err := r.db.WithContext(ctx).Raw(`SELECT `+videoCardColumns+`
		FROM playlist_videos pv
		JOIN videos v ON v.id = pv.video_id
		LEFT JOIN users u ON u.id = v.owner
		WHERE pv.playlist_id = ? AND v.is_published = ?
		ORDER BY pv.position ASC`, id, true).Scan(&videoRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load videos of playlist %s: %w", id, err)
	}

	detail := &models.PlaylistDetail{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Owner: models.OwnerProfile{
			ID:       row.OwnerID,
			Username: row.OwnerUsername,
			FullName: row.OwnerFullName,
			Avatar:   models.ImageURL{URL: row.OwnerAvatarURL},
		},
		Videos:    videoCards(videoRows),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, v := range detail.Videos {
		detail.TotalViews += v.Views
	}
	detail.TotalVideos = int64(len(detail.Videos))
	return detail, nil
}
