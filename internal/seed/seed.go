// Package seed fills a store with demo channels, videos and engagement.
// It is meant for development databases only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/logger"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options sizes the generated data set.
type Options struct {
	Users            int
	VideosPerUser    int
	CommentsPerVideo int
	TweetsPerUser    int
	// MaxDays spreads creation times over this many past days.
	MaxDays int
	// Seed makes the generated content reproducible.
	Seed int64
}

// Result counts what was written.
type Result struct {
	Users         []*models.User
	Videos        []*models.Video
	Comments      int
	Tweets        int
	Likes         int
	Subscriptions int
	Playlists     int
}

// Seeder writes generated entities through the repositories, so it works
// with either backend.
type Seeder struct {
	store *repositories.Store
	faker *gofakeit.Faker
	opts  Options
	now   time.Time
}

func NewSeeder(store *repositories.Store, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Seeder{
		store: store,
		faker: gofakeit.New(opts.Seed),
		opts:  opts,
		now:   time.Now().UTC(),
	}
}

func (s *Seeder) pastTime() time.Time {
	minutes := s.faker.Number(0, s.opts.MaxDays*24*60)
	return s.now.Add(-time.Duration(minutes) * time.Minute)
}

func (s *Seeder) image(kind string, w, h int) models.BlobRef {
	id := s.faker.UUID()
	return models.BlobRef{
		URL:      fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", id, w, h),
		PublicID: "seed/" + kind + "/" + id,
	}
}

// Run generates users first, then their content, then the engagement
// between them.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	res := &Result{}
	for i := 0; i < s.opts.Users; i++ {
		user, err := s.createUser(ctx, i, string(hash))
		if err != nil {
			return res, err
		}
		res.Users = append(res.Users, user)
	}

	for _, user := range res.Users {
		for i := 0; i < s.opts.VideosPerUser; i++ {
			video, err := s.createVideo(ctx, user)
			if err != nil {
				return res, err
			}
			res.Videos = append(res.Videos, video)
		}
		for i := 0; i < s.opts.TweetsPerUser; i++ {
			if err := s.store.Tweets.Create(ctx, &models.Tweet{
				ID:        models.NewID(),
				Content:   s.faker.Sentence(12),
				Owner:     user.ID,
				CreatedAt: s.pastTime(),
			}); err != nil {
				return res, fmt.Errorf("failed to create tweet: %w", err)
			}
			res.Tweets++
		}
	}

	if err := s.engage(ctx, res); err != nil {
		return res, err
	}

	logger.Info("seed complete",
		zap.Int("users", len(res.Users)),
		zap.Int("videos", len(res.Videos)),
		zap.Int("comments", res.Comments),
		zap.Int("tweets", res.Tweets),
		zap.Int("likes", res.Likes),
		zap.Int("subscriptions", res.Subscriptions),
		zap.Int("playlists", res.Playlists))
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, n int, passwordHash string) (*models.User, error) {
	username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), n)
	user := &models.User{
		ID:         models.NewID(),
		Username:   username,
		Email:      username + "@example.com",
		FullName:   s.faker.Name(),
		Avatar:     s.image("avatar", 256, 256),
		CoverImage: s.image("cover", 1280, 320),
		Password:   passwordHash,
		CreatedAt:  s.pastTime(),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}

func (s *Seeder) createVideo(ctx context.Context, owner *models.User) (*models.Video, error) {
	id := s.faker.UUID()
	video := &models.Video{
		ID: models.NewID(),
		VideoFile: models.BlobRef{
			URL:      "https://example.com/videos/" + id + ".mp4",
			PublicID: "seed/video/" + id,
		},
		Thumbnail:   s.image("thumbnail", 640, 360),
		Title:       strings.TrimSuffix(s.faker.Sentence(5), "."),
		Description: s.faker.Paragraph(1, 3, 12, " "),
		Duration:    float64(s.faker.Number(15, 1800)),
		Views:       int64(s.faker.Number(0, 5000)),
		// Most seeded videos are public so the feed is not empty.
		IsPublished: s.faker.Number(1, 10) <= 8,
		Owner:       owner.ID,
		CreatedAt:   s.pastTime(),
	}
	if err := s.store.Videos.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return video, nil
}

// engage adds comments, likes, subscriptions and one playlist per user.
func (s *Seeder) engage(ctx context.Context, res *Result) error {
	users := res.Users
	if len(users) == 0 {
		return nil
	}
	for _, video := range res.Videos {
		for i := 0; i < s.opts.CommentsPerVideo; i++ {
			author := users[s.faker.Number(0, len(users)-1)]
			comment := &models.Comment{
				ID:        models.NewID(),
				Content:   s.faker.Sentence(10),
				Video:     video.ID,
				Owner:     author.ID,
				CreatedAt: s.pastTime(),
			}
			if err := s.store.Comments.Create(ctx, comment); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			res.Comments++
		}

		for _, user := range users {
			if !s.faker.Bool() {
				continue
			}
			liked, err := s.store.Likes.Toggle(ctx, models.LikeVideo, video.ID, user.ID)
			if err != nil {
				return fmt.Errorf("failed to like video: %w", err)
			}
			if liked {
				res.Likes++
			}
		}
	}

	for i, subscriber := range users {
		for j, channel := range users {
			if i == j || !s.faker.Bool() {
				continue
			}
			subscribed, err := s.store.Subscriptions.Toggle(ctx, channel.ID, subscriber.ID)
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}
			if subscribed {
				res.Subscriptions++
			}
		}
	}

	for _, user := range users {
		playlist := &models.Playlist{
			ID:          models.NewID(),
			Name:        s.faker.HipsterWord() + " mix",
			Description: s.faker.Sentence(8),
			Owner:       user.ID,
		}
		if err := s.store.Playlists.Create(ctx, playlist); err != nil {
			return fmt.Errorf("failed to create playlist: %w", err)
		}
		res.Playlists++
		for _, video := range res.Videos {
			if video.Owner != user.ID {
				continue
			}
			if err := s.store.Playlists.AddVideo(ctx, playlist.ID, video.ID); err != nil {
				return fmt.Errorf("failed to add video to playlist: %w", err)
			}
		}
	}
	return nil
}
