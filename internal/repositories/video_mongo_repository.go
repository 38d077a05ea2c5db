package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// MongoVideoRepository is a MongoDB implementation of VideoRepository.
type MongoVideoRepository struct {
	db            *mongo.Database
	videos        *mongo.Collection
	likes         *mongo.Collection
	comments      *mongo.Collection
	subscriptions *mongo.Collection
}

func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{
		db:            db,
		videos:        db.Collection(videosCollection),
		likes:         db.Collection(likesCollection),
		comments:      db.Collection(commentsCollection),
		subscriptions: db.Collection(subscriptionsCollection),
	}
}

func (r *MongoVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = models.NewID()
	}
	now := time.Now()
	video.CreatedAt, video.UpdatedAt = now, now
	return insert(ctx, r.videos, video)
}

func (r *MongoVideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := findOne(ctx, r.videos, bson.M{"_id": id}, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *MongoVideoRepository) Update(ctx context.Context, video *models.Video) error {
	video.UpdatedAt = time.Now()
	return updateByID(ctx, r.videos, video.ID, bson.M{"$set": bson.M{
		"title":       video.Title,
		"description": video.Description,
		"thumbnail":   video.Thumbnail,
		"isPublished": video.IsPublished,
		"updatedAt":   video.UpdatedAt,
	}})
}

// Delete removes everything referencing the video, then the video itself,
// in one transaction. The first failed write aborts the cascade.
func (r *MongoVideoRepository) Delete(ctx context.Context, id string) error {
	return withTransaction(ctx, r.db.Client(), func(ctx context.Context) error {
		commentIDs, err := r.comments.Distinct(ctx, "_id", bson.M{"video": id})
		if err != nil {
			return fmt.Errorf("failed to collect comments of video %s: %w", id, err)
		}
		if len(commentIDs) > 0 {
			if _, err := r.likes.DeleteMany(ctx, bson.M{"comment": bson.M{"$in": commentIDs}}); err != nil {
				return fmt.Errorf("failed to delete comment likes of video %s: %w", id, err)
			}
		}
		if _, err := r.likes.DeleteMany(ctx, bson.M{"video": id}); err != nil {
			return fmt.Errorf("failed to delete likes of video %s: %w", id, err)
		}
		if _, err := r.comments.DeleteMany(ctx, bson.M{"video": id}); err != nil {
			return fmt.Errorf("failed to delete comments of video %s: %w", id, err)
		}
		if _, err := r.db.Collection(playlistsCollection).UpdateMany(ctx,
			bson.M{"videos": id}, bson.M{"$pull": bson.M{"videos": id}}); err != nil {
			return fmt.Errorf("failed to remove video %s from playlists: %w", id, err)
		}
		if _, err := r.db.Collection(usersCollection).UpdateMany(ctx,
			bson.M{"watchHistory": id}, bson.M{"$pull": bson.M{"watchHistory": id}}); err != nil {
			return fmt.Errorf("failed to remove video %s from watch history: %w", id, err)
		}
		return deleteByID(ctx, r.videos, id)
	})
}

func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id string) error {
	return updateByID(ctx, r.videos, id, bson.M{"$inc": bson.M{"views": 1}})
}

// feedPipeline matches, sorts and pages the feed, then joins owners on the
// page only.
func feedPipeline(q FeedQuery) *mongoPipeline {
	filter := bson.M{"isPublished": true}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"description": pattern}}
	}
	if q.OwnerID != "" {
		filter["owner"] = q.OwnerID
	}

	field, ok := SortFields[q.SortBy]
	if !ok {
		field = SortFields["createdAt"]
	}
	direction := 1
	if q.SortDesc {
		direction = -1
	}

	tail := newPipeline().
		Project(videoCardProjection).
		Append(ownerProfile("owner", "owner"))
	return newPipeline().
		Match(filter).
		Sort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}}).
		Paginate(q.Pagination, tail)
}

func (r *MongoVideoRepository) Feed(ctx context.Context, q FeedQuery) ([]models.VideoCard, int64, error) {
	var pages []facetPage[models.VideoCard]
	if err := aggregate(ctx, r.videos, feedPipeline(q), &pages); err != nil {
		return nil, 0, err
	}
	if len(pages) == 0 {
		return []models.VideoCard{}, 0, nil
	}
	return pages[0].Docs, pages[0].total(), nil
}

// detailPipeline joins likes and the owner with its subscribers.
func detailPipeline(id, viewerID string) *mongoPipeline {
	owner := newPipeline().
		Match(bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ownerId"}}}).
		Lookup(subscriptionsCollection, "_id", "channel", "subscribers").
		AddFields(bson.M{
			"subscribersCount": bson.M{"$size": "$subscribers"},
			"isSubscribed":     bson.M{"$in": bson.A{viewerID, "$subscribers.subscriber"}},
		}).
		Project(bson.M{
			"username":         1,
			"fullName":         1,
			"avatar.url":       1,
			"subscribersCount": 1,
			"isSubscribed":     1,
		})

	return newPipeline().
		Match(bson.M{"_id": id}).
		Append(likeState("video", viewerID)).
		LookupPipeline(usersCollection, bson.M{"ownerId": "$owner"}, owner, "owner").
		AddFields(bson.M{"owner": first("owner")})
}

func (r *MongoVideoRepository) Detail(ctx context.Context, id, viewerID string) (*models.VideoDetail, error) {
	var details []models.VideoDetail
	if err := aggregate(ctx, r.videos, detailPipeline(id, viewerID), &details); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return &details[0], nil
}

func (r *MongoVideoRepository) ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error) {
	pipeline := newPipeline().
		Match(bson.M{"owner": ownerID}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Lookup(likesCollection, "_id", "video", "likes").
		Lookup(commentsCollection, "_id", "video", "comments").
		AddFields(bson.M{
			"likesCount":    bson.M{"$size": "$likes"},
			"commentsCount": bson.M{"$size": "$comments"},
		}).
		Project(bson.M{"likes": 0, "comments": 0})

	videos := []models.ChannelVideo{}
	if err := aggregate(ctx, r.videos, pipeline, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *MongoVideoRepository) ChannelStats(ctx context.Context, ownerID string) (*models.ChannelStats, error) {
	stats := &models.ChannelStats{}

	subscribers, err := r.subscriptions.CountDocuments(ctx, bson.M{"channel": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers of %s: %w", ownerID, err)
	}
	stats.TotalSubscribers = subscribers

	var totals []struct {
		Views  int64 `bson:"totalViews"`
		Videos int64 `bson:"totalVideos"`
	}
	pipeline := newPipeline().
		Match(bson.M{"owner": ownerID}).
		Group(bson.M{
			"_id":         nil,
			"totalViews":  bson.M{"$sum": "$views"},
			"totalVideos": bson.M{"$sum": 1},
		})
	if err := aggregate(ctx, r.videos, pipeline, &totals); err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		stats.TotalViews = totals[0].Views
		stats.TotalVideos = totals[0].Videos
	}

	videoIDs, err := r.videos.Distinct(ctx, "_id", bson.M{"owner": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list videos of %s: %w", ownerID, err)
	}
	if len(videoIDs) > 0 {
		likes, err := r.likes.CountDocuments(ctx, bson.M{"video": bson.M{"$in": videoIDs}})
		if err != nil {
			return nil, fmt.Errorf("failed to count likes of %s: %w", ownerID, err)
		}
		stats.TotalLikes = likes
	}
	return stats, nil
}
