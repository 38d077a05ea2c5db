package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// MongoUserRepository is a MongoDB implementation of UserRepository.
type MongoUserRepository struct {
	users  *mongo.Collection
	videos *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users:  db.Collection(usersCollection),
		videos: db.Collection(videosCollection),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	return insert(ctx, r.users, user)
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.users, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}
	var user models.User
	if err := findOne(ctx, r.users, bson.M{"$or": or}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	return updateByID(ctx, r.users, user.ID, bson.M{"$set": bson.M{
		"fullName":   user.FullName,
		"email":      user.Email,
		"avatar":     user.Avatar,
		"coverImage": user.CoverImage,
		"password":   user.Password,
		"updatedAt":  user.UpdatedAt,
	}})
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	return updateByID(ctx, r.users, userID, bson.M{"$set": bson.M{"refreshToken": token}})
}

func (r *MongoUserRepository) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	return updateByID(ctx, r.users, userID, bson.M{"$addToSet": bson.M{"watchHistory": videoID}})
}

func (r *MongoUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	pipeline := newPipeline().
		Match(bson.M{"username": username}).
		Lookup(subscriptionsCollection, "_id", "channel", "subscribers").
		Lookup(subscriptionsCollection, "_id", "subscriber", "subscribedTo").
		AddFields(bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":              bson.M{"$in": bson.A{viewerID, "$subscribers.subscriber"}},
		}).
		Project(bson.M{
			"username":                  1,
			"fullName":                  1,
			"email":                     1,
			"avatar.url":                1,
			"coverImage.url":            1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
			"createdAt":                 1,
		})

	var profiles []models.ChannelProfile
	if err := aggregate(ctx, r.users, pipeline, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

func (r *MongoUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.WatchHistory) == 0 {
		return []models.VideoCard{}, nil
	}

	pipeline := newPipeline().
		Match(bson.M{"_id": bson.M{"$in": user.WatchHistory}}).
		Project(videoCardProjection).
		Append(ownerProfile("owner", "owner"))

	var cards []models.VideoCard
	if err := aggregate(ctx, r.videos, pipeline, &cards); err != nil {
		return nil, fmt.Errorf("failed to load watch history of %s: %w", userID, err)
	}
	return orderVideoCards(user.WatchHistory, cards), nil
}
