package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidtube/internal/models"
)

// GORMLikeRepository is a GORM implementation of LikeRepository.
type GORMLikeRepository struct {
	db *gorm.DB
}

func NewGORMLikeRepository(db *gorm.DB) *GORMLikeRepository {
	return &GORMLikeRepository{db: db}
}

func likeColumn(kind models.LikeKind) (string, error) {
	switch kind {
	case models.LikeVideo, models.LikeComment, models.LikeTweet:
		return string(kind), nil
	default:
		return "", fmt.Errorf("unknown like kind %q", kind)
	}
}

// Toggle deletes the like if present, otherwise inserts it. An insert that
// races with a concurrent one is absorbed by the unique index and still
// reports the like as present.
func (r *GORMLikeRepository) Toggle(ctx context.Context, kind models.LikeKind, targetID, userID string) (bool, error) {
	column, err := likeColumn(kind)
	if err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).Where(column+" = ? AND liked_by = ?", targetID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove %s like: %w", kind, res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := models.NewLike(kind, targetID, userID)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
		return false, fmt.Errorf("failed to add %s like: %w", kind, err)
	}
	return true, nil
}

// LikedVideos lists the videos userID liked, most recent like first.
func (r *GORMLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error) {
	var rows []videoCardRow
	err := r.db.WithContext(ctx).Raw(`SELECT `+videoCardColumns+`
		FROM likes l
		JOIN videos v ON v.id = l.video
		LEFT JOIN users u ON u.id = v.owner
		WHERE l.liked_by = ?
		ORDER BY l.created_at DESC, l.id DESC`, userID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list liked videos of %s: %w", userID, err)
	}
	return videoCards(rows), nil
}
