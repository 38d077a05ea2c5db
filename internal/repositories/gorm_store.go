package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vidtube/internal/models"
)

// WatchHistoryEntry is the SQL side table behind User.WatchHistory.
type WatchHistoryEntry struct {
	UserID    string    `gorm:"primaryKey;type:varchar(24)"`
	VideoID   string    `gorm:"primaryKey;type:varchar(24);index"`
	CreatedAt time.Time `gorm:"index"`
}

func (WatchHistoryEntry) TableName() string { return "watch_history" }

// PlaylistVideo is the SQL side table behind Playlist.Videos.
type PlaylistVideo struct {
	PlaylistID string `gorm:"primaryKey;type:varchar(24)"`
	VideoID    string `gorm:"primaryKey;type:varchar(24);index"`
	Position   int64  `gorm:"not null"`
	CreatedAt  time.Time
}

// OpenSQL opens a GORM connection for driver ("postgres" or "sqlite") and
// migrates the schema.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table used by the GORM backend.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Comment{},
		&models.Tweet{},
		&models.Like{},
		&models.Playlist{},
		&models.Subscription{},
		&WatchHistoryEntry{},
		&PlaylistVideo{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewGORMStore wires the GORM repositories over db.
func NewGORMStore(db *gorm.DB) *Store {
	return &Store{
		Users:         NewGORMUserRepository(db),
		Videos:        NewGORMVideoRepository(db),
		Comments:      NewGORMCommentRepository(db),
		Tweets:        NewGORMTweetRepository(db),
		Likes:         NewGORMLikeRepository(db),
		Playlists:     NewGORMPlaylistRepository(db),
		Subscriptions: NewGORMSubscriptionRepository(db),
		close: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// translateGORMError maps GORM errors onto the repository sentinels.
func translateGORMError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// likePattern builds a case-insensitive LIKE pattern matching s anywhere.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

const videoCardColumns = `v.id, v.video_file_url, v.thumbnail_url, v.title, v.description, v.duration,
	v.views, v.is_published, v.created_at,
	v.owner AS owner_id, u.username AS owner_username, u.full_name AS owner_full_name,
	u.avatar_url AS owner_avatar_url`

// videoCardRow is the flat scan target of videoCardColumns.
type videoCardRow struct {
	ID             string    `gorm:"column:id"`
	VideoFileURL   string    `gorm:"column:video_file_url"`
	ThumbnailURL   string    `gorm:"column:thumbnail_url"`
	Title          string    `gorm:"column:title"`
	Description    string    `gorm:"column:description"`
	Duration       float64   `gorm:"column:duration"`
	Views          int64     `gorm:"column:views"`
	IsPublished    bool      `gorm:"column:is_published"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	OwnerID        string    `gorm:"column:owner_id"`
	OwnerUsername  string    `gorm:"column:owner_username"`
	OwnerFullName  string    `gorm:"column:owner_full_name"`
	OwnerAvatarURL string    `gorm:"column:owner_avatar_url"`
}

func (r videoCardRow) card() models.VideoCard {
	return models.VideoCard{
		ID:          r.ID,
		VideoFile:   models.ImageURL{URL: r.VideoFileURL},
		Thumbnail:   models.ImageURL{URL: r.ThumbnailURL},
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		Views:       r.Views,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt,
		Owner: models.OwnerProfile{
			ID:       r.OwnerID,
			Username: r.OwnerUsername,
			FullName: r.OwnerFullName,
			Avatar:   models.ImageURL{URL: r.OwnerAvatarURL},
		},
	}
}

func videoCards(rows []videoCardRow) []models.VideoCard {
	cards := make([]models.VideoCard, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.card())
	}
	return cards
}

// postRow is the flat scan target for comments and tweets.
type postRow struct {
	ID             string    `gorm:"column:id"`
	Content        string    `gorm:"column:content"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	OwnerID        string    `gorm:"column:owner_id"`
	OwnerUsername  string    `gorm:"column:owner_username"`
	OwnerFullName  string    `gorm:"column:owner_full_name"`
	OwnerAvatarURL string    `gorm:"column:owner_avatar_url"`
	LikesCount     int64     `gorm:"column:likes_count"`
	IsLiked        bool      `gorm:"column:is_liked"`
}

// listPosts pages through table (comments or tweets) rows whose filterColumn
// equals filterValue, newest first, joined with owner and like state.
func listPosts(ctx context.Context, db *gorm.DB, table, likeColumn, filterColumn, filterValue, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Table(table).Where(filterColumn+" = ?", filterValue).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := fmt.Sprintf(`SELECT t.id, t.content, t.created_at, t.updated_at,
		t.owner AS owner_id, u.username AS owner_username, u.full_name AS owner_full_name,
		u.avatar_url AS owner_avatar_url,
		(SELECT COUNT(*) FROM likes l WHERE l.%[2]s = t.id) AS likes_count,
		EXISTS(SELECT 1 FROM likes l WHERE l.%[2]s = t.id AND l.liked_by = ?) AS is_liked
		FROM %[1]s t LEFT JOIN users u ON u.id = t.owner
		WHERE t.%[3]s = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`, table, likeColumn, filterColumn)

	var rows []postRow
	if err := db.WithContext(ctx).Raw(query, viewerID, filterValue, p.Limit, p.Skip()).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}

	posts := make([]models.PostView, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, models.PostView{
			ID:        row.ID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Owner: models.OwnerProfile{
				ID:       row.OwnerID,
				Username: row.OwnerUsername,
				FullName: row.OwnerFullName,
				Avatar:   models.ImageURL{URL: row.OwnerAvatarURL},
			},
			LikesCount: row.LikesCount,
			IsLiked:    row.IsLiked,
		})
	}
	return posts, total, nil
}
