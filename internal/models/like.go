package models

import "time"

// LikeKind names the kind of resource a Like points at. The values double as
// the column/field name holding the target id.
type LikeKind string

const (
	LikeVideo   LikeKind = "video"
	LikeComment LikeKind = "comment"
	LikeTweet   LikeKind = "tweet"
)

// Like marks that a user liked exactly one video, comment or tweet. The
// existence of the row is the "liked" state.
type Like struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Video     *string   `json:"video,omitempty" bson:"video,omitempty" gorm:"type:varchar(24);uniqueIndex:idx_likes_video_user"`
	Comment   *string   `json:"comment,omitempty" bson:"comment,omitempty" gorm:"type:varchar(24);uniqueIndex:idx_likes_comment_user"`
	Tweet     *string   `json:"tweet,omitempty" bson:"tweet,omitempty" gorm:"type:varchar(24);uniqueIndex:idx_likes_tweet_user"`
	LikedBy   string    `json:"likedBy" bson:"likedBy" gorm:"type:varchar(24);not null;uniqueIndex:idx_likes_video_user;uniqueIndex:idx_likes_comment_user;uniqueIndex:idx_likes_tweet_user"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewLike builds a Like of the given kind for targetID.
func NewLike(kind LikeKind, targetID, userID string) *Like {
	target := targetID
	like := &Like{ID: NewID(), LikedBy: userID}
	switch kind {
	case LikeVideo:
		like.Video = &target
	case LikeComment:
		like.Comment = &target
	case LikeTweet:
		like.Tweet = &target
	}
	return like
}

// Subscription records that Subscriber follows Channel.
type Subscription struct {
	ID         string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Channel    string    `json:"channel" bson:"channel" gorm:"type:varchar(24);not null;uniqueIndex:idx_subscriptions_pair"`
	Subscriber string    `json:"subscriber" bson:"subscriber" gorm:"type:varchar(24);not null;uniqueIndex:idx_subscriptions_pair;index"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}
