package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// MongoSubscriptionRepository is a MongoDB implementation of
// SubscriptionRepository.
type MongoSubscriptionRepository struct {
	subscriptions *mongo.Collection
}

func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{subscriptions: db.Collection(subscriptionsCollection)}
}

func (r *MongoSubscriptionRepository) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	res, err := r.subscriptions.DeleteOne(ctx, bson.M{"channel": channelID, "subscriber": subscriberID})
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe from %s: %w", channelID, err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	now := time.Now()
	sub := &models.Subscription{
		ID:         models.NewID(),
		Channel:    channelID,
		Subscriber: subscriberID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := r.subscriptions.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to subscribe to %s: %w", channelID, err)
	}
	return true, nil
}

func subscribersPipeline(channelID string) *mongoPipeline {
	return newPipeline().
		Match(bson.M{"channel": channelID}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Lookup(usersCollection, "subscriber", "_id", "subscriber").
		Unwind("subscriber").
		Lookup(subscriptionsCollection, "subscriber._id", "channel", "subscriberSubscribers").
		Project(bson.M{
			"_id":                    "$subscriber._id",
			"username":               "$subscriber.username",
			"fullName":               "$subscriber.fullName",
			"avatar":                 bson.M{"url": "$subscriber.avatar.url"},
			"subscribersCount":       bson.M{"$size": "$subscriberSubscribers"},
			"subscribedToSubscriber": bson.M{"$in": bson.A{channelID, "$subscriberSubscribers.subscriber"}},
		})
}

func (r *MongoSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.SubscriberView, error) {
	subscribers := []models.SubscriberView{}
	if err := aggregate(ctx, r.subscriptions, subscribersPipeline(channelID), &subscribers); err != nil {
		return nil, err
	}
	return subscribers, nil
}

func subscribedChannelsPipeline(subscriberID string) *mongoPipeline {
	latest := newPipeline().
		Match(bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$owner", "$$channelId"}},
			bson.M{"$eq": bson.A{"$isPublished", true}},
		}}}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Limit(1).
		Project(bson.M{"title": 1, "thumbnail.url": 1, "views": 1, "createdAt": 1})

	return newPipeline().
		Match(bson.M{"subscriber": subscriberID}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Lookup(usersCollection, "channel", "_id", "channel").
		Unwind("channel").
		LookupPipeline(videosCollection, bson.M{"channelId": "$channel._id"}, latest, "latestVideo").
		Project(bson.M{
			"_id":         "$channel._id",
			"username":    "$channel.username",
			"fullName":    "$channel.fullName",
			"avatar":      bson.M{"url": "$channel.avatar.url"},
			"latestVideo": first("latestVideo"),
		})
}

func (r *MongoSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscribedChannel, error) {
	channels := []models.SubscribedChannel{}
	if err := aggregate(ctx, r.subscriptions, subscribedChannelsPipeline(subscriberID), &channels); err != nil {
		return nil, err
	}
	return channels, nil
}
