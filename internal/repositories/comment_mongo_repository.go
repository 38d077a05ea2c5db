package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// postsPipeline pages through comments or tweets matching filter, newest
// first, with owner profile and like state.
func postsPipeline(filter bson.M, likeField, viewerID string, p models.Pagination) *mongoPipeline {
	tail := newPipeline().
		Append(ownerProfile("owner", "owner")).
		Append(likeState(likeField, viewerID))
	return newPipeline().
		Match(filter).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Paginate(p, tail)
}

func listMongoPosts(ctx context.Context, coll *mongo.Collection, pipeline *mongoPipeline) ([]models.PostView, int64, error) {
	var pages []facetPage[models.PostView]
	if err := aggregate(ctx, coll, pipeline, &pages); err != nil {
		return nil, 0, err
	}
	if len(pages) == 0 {
		return []models.PostView{}, 0, nil
	}
	return pages[0].Docs, pages[0].total(), nil
}

// MongoCommentRepository is a MongoDB implementation of CommentRepository.
type MongoCommentRepository struct {
	comments *mongo.Collection
	likes    *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{
		comments: db.Collection(commentsCollection),
		likes:    db.Collection(likesCollection),
	}
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	now := time.Now()
	comment.CreatedAt, comment.UpdatedAt = now, now
	return insert(ctx, r.comments, comment)
}

func (r *MongoCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := findOne(ctx, r.comments, bson.M{"_id": id}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *MongoCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()
	return updateByID(ctx, r.comments, comment.ID, bson.M{"$set": bson.M{
		"content":   comment.Content,
		"updatedAt": comment.UpdatedAt,
	}})
}

func (r *MongoCommentRepository) Delete(ctx context.Context, id string) error {
	return withTransaction(ctx, r.comments.Database().Client(), func(ctx context.Context) error {
		if _, err := r.likes.DeleteMany(ctx, bson.M{"comment": id}); err != nil {
			return fmt.Errorf("failed to delete likes of comment %s: %w", id, err)
		}
		return deleteByID(ctx, r.comments, id)
	})
}

func (r *MongoCommentRepository) ListByVideo(ctx context.Context, videoID, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	return listMongoPosts(ctx, r.comments, postsPipeline(bson.M{"video": videoID}, "comment", viewerID, p))
}

// MongoTweetRepository is a MongoDB implementation of TweetRepository.
type MongoTweetRepository struct {
	tweets *mongo.Collection
	likes  *mongo.Collection
}

func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{
		tweets: db.Collection(tweetsCollection),
		likes:  db.Collection(likesCollection),
	}
}

func (r *MongoTweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	if tweet.ID == "" {
		tweet.ID = models.NewID()
	}
	now := time.Now()
	tweet.CreatedAt, tweet.UpdatedAt = now, now
	return insert(ctx, r.tweets, tweet)
}

func (r *MongoTweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := findOne(ctx, r.tweets, bson.M{"_id": id}, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

func (r *MongoTweetRepository) Update(ctx context.Context, tweet *models.Tweet) error {
	tweet.UpdatedAt = time.Now()
	return updateByID(ctx, r.tweets, tweet.ID, bson.M{"$set": bson.M{
		"content":   tweet.Content,
		"updatedAt": tweet.UpdatedAt,
	}})
}

func (r *MongoTweetRepository) Delete(ctx context.Context, id string) error {
	return withTransaction(ctx, r.tweets.Database().Client(), func(ctx context.Context) error {
		if _, err := r.likes.DeleteMany(ctx, bson.M{"tweet": id}); err != nil {
			return fmt.Errorf("failed to delete likes of tweet %s: %w", id, err)
		}
		return deleteByID(ctx, r.tweets, id)
	})
}

func (r *MongoTweetRepository) ListByOwner(ctx context.Context, ownerID, viewerID string, p models.Pagination) ([]models.PostView, int64, error) {
	return listMongoPosts(ctx, r.tweets, postsPipeline(bson.M{"owner": ownerID}, "tweet", viewerID, p))
}
