package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vidtube/internal/models"
)

const (
	usersCollection         = "users"
	videosCollection        = "videos"
	commentsCollection      = "comments"
	tweetsCollection        = "tweets"
	likesCollection         = "likes"
	playlistsCollection     = "playlists"
	subscriptionsCollection = "subscriptions"
)

// ConnectMongo opens a client for uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoStore wires the Mongo repositories over db after making sure the
// indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := EnsureMongoIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &Store{
		Users:         NewMongoUserRepository(db),
		Videos:        NewMongoVideoRepository(db),
		Comments:      NewMongoCommentRepository(db),
		Tweets:        NewMongoTweetRepository(db),
		Likes:         NewMongoLikeRepository(db),
		Playlists:     NewMongoPlaylistRepository(db),
		Subscriptions: NewMongoSubscriptionRepository(db),
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}, nil
}

// mongoIndexes lists the indexes per collection. The like indexes are partial
// so each target kind has its own (target, user) uniqueness.
func mongoIndexes() map[string][]mongo.IndexModel {
	likeIndex := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}, {Key: "likedBy", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_" + field + "_likedBy").
				SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true}}),
		}
	}
	return map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		videosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		tweetsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		likesCollection: {
			likeIndex("video"),
			likeIndex("comment"),
			likeIndex("tweet"),
			{Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		playlistsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		subscriptionsCollection: {
			{
				Keys:    bson.D{{Key: "channel", Value: 1}, {Key: "subscriber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "subscriber", Value: 1}}},
		},
	}
}

// EnsureMongoIndexes creates the indexes of every collection. Existing
// indexes with the same definition are left alone.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, indexes := range mongoIndexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// withTransaction runs fn in a multi-document transaction. Standalone servers
// reject transactions; there fn runs without one and still stops at its first
// failed write.
func withTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if transactionsUnsupported(err) {
		return fn(ctx)
	}
	return err
}

// transactionsUnsupported matches the IllegalOperation error a standalone
// server returns for transactional writes.
func transactionsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}

// findOne decodes the single document matching filter into out.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	if err := coll.FindOne(ctx, filter).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to find in %s: %w", coll.Name(), err)
	}
	return nil
}

// aggregate runs pipeline on coll and decodes every result into out.
func aggregate(ctx context.Context, coll *mongo.Collection, pipeline *mongoPipeline, out interface{}) error {
	cursor, err := coll.Aggregate(ctx, pipeline.Build())
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s aggregation: %w", coll.Name(), err)
	}
	return nil
}

// updateByID applies update to the document with id and reports ErrNotFound
// when nothing matched.
func updateByID(ctx context.Context, coll *mongo.Collection, id string, update bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update %s %s: %w", coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteByID removes the document with id and reports ErrNotFound when
// nothing matched.
func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

// orderVideoCards arranges cards in the order of ids, dropping ids without a
// card.
func orderVideoCards(ids []string, cards []models.VideoCard) []models.VideoCard {
	byID := make(map[string]models.VideoCard, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}
	ordered := make([]models.VideoCard, 0, len(cards))
	for _, id := range ids {
		if card, ok := byID[id]; ok {
			ordered = append(ordered, card)
		}
	}
	return ordered
}
