package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// MongoPlaylistRepository is a MongoDB implementation of PlaylistRepository.
type MongoPlaylistRepository struct {
	playlists *mongo.Collection
}

func NewMongoPlaylistRepository(db *mongo.Database) *MongoPlaylistRepository {
	return &MongoPlaylistRepository{playlists: db.Collection(playlistsCollection)}
}

func (r *MongoPlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = models.NewID()
	}
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	now := time.Now()
	playlist.CreatedAt, playlist.UpdatedAt = now, now
	return insert(ctx, r.playlists, playlist)
}

func (r *MongoPlaylistRepository) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := findOne(ctx, r.playlists, bson.M{"_id": id}, &playlist); err != nil {
		return nil, err
	}
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	return &playlist, nil
}

func (r *MongoPlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	playlist.UpdatedAt = time.Now()
	return updateByID(ctx, r.playlists, playlist.ID, bson.M{"$set": bson.M{
		"name":        playlist.Name,
		"description": playlist.Description,
		"updatedAt":   playlist.UpdatedAt,
	}})
}

func (r *MongoPlaylistRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.playlists, id)
}

func (r *MongoPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	return updateByID(ctx, r.playlists, playlistID, bson.M{
		"$addToSet": bson.M{"videos": videoID},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
}

func (r *MongoPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	return updateByID(ctx, r.playlists, playlistID, bson.M{
		"$pull": bson.M{"videos": videoID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func playlistsByOwnerPipeline(ownerID string) *mongoPipeline {
	return newPipeline().
		Match(bson.M{"owner": ownerID}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Lookup(videosCollection, "videos", "_id", "videoDocs").
		AddFields(bson.M{
			"totalVideos": bson.M{"$size": "$videoDocs"},
			"totalViews":  bson.M{"$sum": "$videoDocs.views"},
		}).
		Project(bson.M{
			"name":        1,
			"description": 1,
			"totalVideos": 1,
			"totalViews":  1,
			"createdAt":   1,
			"updatedAt":   1,
		})
}

func (r *MongoPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.PlaylistSummary, error) {
	playlists := []models.PlaylistSummary{}
	if err := aggregate(ctx, r.playlists, playlistsByOwnerPipeline(ownerID), &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func playlistDetailPipeline(id string) *mongoPipeline {
	videos := newPipeline().
		Match(bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$in": bson.A{"$_id", bson.M{"$ifNull": bson.A{"$$videoIds", bson.A{}}}}},
			bson.M{"$eq": bson.A{"$isPublished", true}},
		}}}).
		Project(videoCardProjection).
		Append(ownerProfile("owner", "owner"))

	return newPipeline().
		Match(bson.M{"_id": id}).
		LookupPipeline(videosCollection, bson.M{"videoIds": "$videos"}, videos, "videoDocs").
		Append(ownerProfile("owner", "owner")).
		Project(bson.M{
			"name":        1,
			"description": 1,
			"owner":       1,
			"createdAt":   1,
			"updatedAt":   1,
			"videoIds":    "$videos",
			"videos":      "$videoDocs",
		})
}

type playlistDetailDoc struct {
	models.PlaylistDetail `bson:",inline"`
	VideoIDs              []string `bson:"videoIds"`
}

// Detail returns the playlist with its published videos in playlist order.
func (r *MongoPlaylistRepository) Detail(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	var docs []playlistDetailDoc
	if err := aggregate(ctx, r.playlists, playlistDetailPipeline(id), &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	detail := docs[0].PlaylistDetail
	detail.Videos = orderVideoCards(docs[0].VideoIDs, detail.Videos)
	detail.TotalVideos = int64(len(detail.Videos))
	for _, v := range detail.Videos {
		detail.TotalViews += v.Views
	}
	return &detail, nil
}
