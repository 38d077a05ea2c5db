package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vidtube/internal/models"
)

var sqlSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// GORMVideoRepository is a GORM implementation of VideoRepository.
type GORMVideoRepository struct {
	db *gorm.DB
}

func NewGORMVideoRepository(db *gorm.DB) *GORMVideoRepository {
	return &GORMVideoRepository{db: db}
}

func (r *GORMVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", translateGORMError(err))
	}
	return nil
}

func (r *GORMVideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID %s: %w", id, err)
	}
	return &video, nil
}

func (r *GORMVideoRepository) Update(ctx context.Context, video *models.Video) error {
	video.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", video.ID).Updates(map[string]interface{}{
		"title":               video.Title,
		"description":         video.Description,
		"thumbnail_url":       video.Thumbnail.URL,
		"thumbnail_public_id": video.Thumbnail.PublicID,
		"is_published":        video.IsPublished,
		"updated_at":          video.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update video %s: %w", video.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video and everything that hangs off it in one
// transaction.
func (r *GORMVideoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("video = ?", id)
		if err := tx.Where("comment IN (?)", commentIDs).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete comment likes of video %s: %w", id, err)
		}
		if err := tx.Where("video = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes of video %s: %w", id, err)
		}
		if err := tx.Where("video = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments of video %s: %w", id, err)
		}
		if err := tx.Where("video_id = ?", id).Delete(&PlaylistVideo{}).Error; err != nil {
			return fmt.Errorf("failed to remove video %s from playlists: %w", id, err)
		}
		if err := tx.Where("video_id = ?", id).Delete(&WatchHistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to remove video %s from watch history: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Video{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete video %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GORMVideoRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment views of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func feedScope(q FeedQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Table("videos AS v").Where("v.is_published = ?", true)
		if q.Search != "" {
			pattern := likePattern(q.Search)
			db = db.Where(`(LOWER(v.title) LIKE ? ESCAPE '\' OR LOWER(v.description) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		if q.OwnerID != "" {
			db = db.Where("v.owner = ?", q.OwnerID)
		}
		return db
	}
}

// Feed lists published videos: search, owner filter, sort, then page.
func (r *GORMVideoRepository) Feed(ctx context.Context, q FeedQuery) ([]models.VideoCard, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Scopes(feedScope(q)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feed: %w", err)
	}

	column, ok := sqlSortColumns[q.SortBy]
	if !ok {
		column = sqlSortColumns["createdAt"]
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	var rows []videoCardRow
	err := r.db.WithContext(ctx).Scopes(feedScope(q)).
		Joins("LEFT JOIN users AS u ON u.id = v.owner").
		Select(videoCardColumns).
		Order(column + " " + direction + ", v.id " + direction).
		Offset(q.Skip()).
		Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feed: %w", err)
	}
	return videoCards(rows), total, nil
}

type videoDetailRow struct {
	videoCardRow
	OwnerSubscribersCount int64 `gorm:"column:owner_subscribers_count"`
	OwnerIsSubscribed     bool  `gorm:"column:owner_is_subscribed"`
	LikesCount            int64 `gorm:"column:likes_count"`
	IsLiked               bool  `gorm:"column:is_liked"`
}

func (r *GORMVideoRepository) Detail(ctx context.Context, id, viewerID string) (*models.VideoDetail, error) {
	var row videoDetailRow
	res := r.db.WithContext(ctx).Raw(`SELECT `+videoCardColumns+`,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.channel = v.owner) AS owner_subscribers_count,
		EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel = v.owner AND s.subscriber = ?) AS owner_is_subscribed,
		(SELECT COUNT(*) FROM likes l WHERE l.video = v.id) AS likes_count,
		EXISTS(SELECT 1 FROM likes l WHERE l.video = v.id AND l.liked_by = ?) AS is_liked
		FROM videos v LEFT JOIN users u ON u.id = v.owner
		WHERE v.id = ?`, viewerID, viewerID, id).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load video %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	card := row.card()
	return &models.VideoDetail{
		ID:          card.ID,
		VideoFile:   card.VideoFile,
		Thumbnail:   card.Thumbnail,
		Title:       card.Title,
		Description: card.Description,
		Duration:    card.Duration,
		Views:       card.Views,
		IsPublished: card.IsPublished,
		CreatedAt:   card.CreatedAt,
		Owner: models.ChannelOwner{
			OwnerProfile:     card.Owner,
			SubscribersCount: row.OwnerSubscribersCount,
			IsSubscribed:     row.OwnerIsSubscribed,
		},
		LikesCount: row.LikesCount,
		IsLiked:    row.IsLiked,
	}, nil
}

type channelVideoRow struct {
	ID            string    `gorm:"column:id"`
	VideoFileURL  string    `gorm:"column:video_file_url"`
	ThumbnailURL  string    `gorm:"column:thumbnail_url"`
	Title         string    `gorm:"column:title"`
	Description   string    `gorm:"column:description"`
	IsPublished   bool      `gorm:"column:is_published"`
	Views         int64     `gorm:"column:views"`
	LikesCount    int64     `gorm:"column:likes_count"`
	CommentsCount int64     `gorm:"column:comments_count"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (r *GORMVideoRepository) ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error) {
	var rows []channelVideoRow
	err := r.db.WithContext(ctx).Raw(`SELECT v.id, v.video_file_url, v.thumbnail_url, v.title, v.description,
		v.is_published, v.views, v.created_at,
		(SELECT COUNT(*) FROM likes l WHERE l.video = v.id) AS likes_count,
		(SELECT COUNT(*) FROM comments c WHERE c.video = v.id) AS comments_count
		FROM videos v WHERE v.owner = ?
		ORDER BY v.created_at DESC, v.id DESC`, ownerID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list videos of channel %s: %w", ownerID, err)
	}

	videos := make([]models.ChannelVideo, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, models.ChannelVideo{
			ID:            row.ID,
			VideoFile:     models.ImageURL{URL: row.VideoFileURL},
			Thumbnail:     models.ImageURL{URL: row.ThumbnailURL},
			Title:         row.Title,
			Description:   row.Description,
			IsPublished:   row.IsPublished,
			Views:         row.Views,
			LikesCount:    row.LikesCount,
			CommentsCount: row.CommentsCount,
			CreatedAt:     row.CreatedAt,
		})
	}
	return videos, nil
}

type channelStatsRow struct {
	TotalSubscribers int64 `gorm:"column:total_subscribers"`
	TotalViews       int64 `gorm:"column:total_views"`
	TotalLikes       int64 `gorm:"column:total_likes"`
	TotalVideos      int64 `gorm:"column:total_videos"`
}

func (r *GORMVideoRepository) ChannelStats(ctx context.Context, ownerID string) (*models.ChannelStats, error) {
	var stats channelStatsRow
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM subscriptions WHERE channel = ?) AS total_subscribers,
		(SELECT CAST(COALESCE(SUM(views), 0) AS BIGINT) FROM videos WHERE owner = ?) AS total_views,
		(SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video WHERE v.owner = ?) AS total_likes,
		(SELECT COUNT(*) FROM videos WHERE owner = ?) AS total_videos`,
		ownerID, ownerID, ownerID, ownerID).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats of channel %s: %w", ownerID, err)
	}
	return &models.ChannelStats{
		TotalSubscribers: stats.TotalSubscribers,
		TotalViews:       stats.TotalViews,
		TotalLikes:       stats.TotalLikes,
		TotalVideos:      stats.TotalVideos,
	}, nil
}
