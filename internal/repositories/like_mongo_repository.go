package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// MongoLikeRepository is a MongoDB implementation of LikeRepository.
type MongoLikeRepository struct {
	likes *mongo.Collection
}

func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{likes: db.Collection(likesCollection)}
}

// Toggle deletes the like if present, otherwise inserts it. Losing an insert
// race to the partial unique index still means the like exists.
func (r *MongoLikeRepository) Toggle(ctx context.Context, kind models.LikeKind, targetID, userID string) (bool, error) {
	field, err := likeColumn(kind)
	if err != nil {
		return false, err
	}

	res, err := r.likes.DeleteOne(ctx, bson.M{field: targetID, "likedBy": userID})
	if err != nil {
		return false, fmt.Errorf("failed to remove %s like: %w", kind, err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	like := models.NewLike(kind, targetID, userID)
	now := time.Now()
	like.CreatedAt, like.UpdatedAt = now, now
	if _, err := r.likes.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to add %s like: %w", kind, err)
	}
	return true, nil
}

func likedVideosPipeline(userID string) *mongoPipeline {
	return newPipeline().
		Match(bson.M{"likedBy": userID, "video": bson.M{"$exists": true}}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Lookup(videosCollection, "video", "_id", "video").
		Unwind("video").
		ReplaceRoot("video").
		Project(videoCardProjection).
		Append(ownerProfile("owner", "owner"))
}

func (r *MongoLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error) {
	cards := []models.VideoCard{}
	if err := aggregate(ctx, r.likes, likedVideosPipeline(userID), &cards); err != nil {
		return nil, err
	}
	return cards, nil
}
