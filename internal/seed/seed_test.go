package seed

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
)

func TestSeeder_Run(t *testing.T) {
	db, err := repositories.OpenSQL("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	store := repositories.NewGORMStore(db)
	ctx := context.Background()
	t.Cleanup(func() { _ = store.Close(ctx) })

	res, err := NewSeeder(store, Options{
		Users:            3,
		VideosPerUser:    2,
		CommentsPerVideo: 2,
		TweetsPerUser:    1,
		Seed:             42,
	}).Run(ctx)
	require.NoError(t, err)

	assert.Len(t, res.Users, 3)
	assert.Len(t, res.Videos, 6)
	assert.Equal(t, 12, res.Comments)
	assert.Equal(t, 3, res.Tweets)
	assert.Equal(t, 3, res.Playlists)

	first := res.Users[0]
	stored, err := store.Users.FindByUsernameOrEmail(ctx, first.Username, "")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(DefaultPassword)))

	published := 0
	for _, v := range res.Videos {
		if v.IsPublished {
			published++
		}
	}
	_, total, err := store.Videos.Feed(ctx, repositories.FeedQuery{
		SortBy:     "createdAt",
		SortDesc:   true,
		Pagination: models.NewPagination(1, models.MaxLimit),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(published), total)

	summaries, err := store.Playlists.ListByOwner(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].TotalVideos)
}
