package models

import "time"

// ImageURL is the public part of a BlobRef exposed in read models.
type ImageURL struct {
	URL string `json:"url" bson:"url"`
}

// OwnerProfile is the public projection of a user embedded in other views.
type OwnerProfile struct {
	ID       string   `json:"_id" bson:"_id"`
	Username string   `json:"username" bson:"username"`
	FullName string   `json:"fullName" bson:"fullName"`
	Avatar   ImageURL `json:"avatar" bson:"avatar"`
}

// VideoCard is a video as it appears in lists: feed, history, liked videos
// and playlist contents.
type VideoCard struct {
	ID          string       `json:"_id" bson:"_id"`
	VideoFile   ImageURL     `json:"videoFile" bson:"videoFile"`
	Thumbnail   ImageURL     `json:"thumbnail" bson:"thumbnail"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Duration    float64      `json:"duration" bson:"duration"`
	Views       int64        `json:"views" bson:"views"`
	IsPublished bool         `json:"isPublished" bson:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	Owner       OwnerProfile `json:"owner" bson:"owner"`
}

// ChannelOwner is the owner block of a video detail.
type ChannelOwner struct {
	OwnerProfile     `bson:",inline"`
	SubscribersCount int64 `json:"subscribersCount" bson:"subscribersCount"`
	IsSubscribed     bool  `json:"isSubscribed" bson:"isSubscribed"`
}

// VideoDetail is the single-video view.
type VideoDetail struct {
	ID          string       `json:"_id" bson:"_id"`
	VideoFile   ImageURL     `json:"videoFile" bson:"videoFile"`
	Thumbnail   ImageURL     `json:"thumbnail" bson:"thumbnail"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Duration    float64      `json:"duration" bson:"duration"`
	Views       int64        `json:"views" bson:"views"`
	IsPublished bool         `json:"isPublished" bson:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	Owner       ChannelOwner `json:"owner" bson:"owner"`
	LikesCount  int64        `json:"likesCount" bson:"likesCount"`
	IsLiked     bool         `json:"isLiked" bson:"isLiked"`
}

// PostView is a comment or tweet enriched with its owner and like state.
type PostView struct {
	ID         string       `json:"_id" bson:"_id"`
	Content    string       `json:"content" bson:"content"`
	CreatedAt  time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt" bson:"updatedAt"`
	Owner      OwnerProfile `json:"owner" bson:"owner"`
	LikesCount int64        `json:"likesCount" bson:"likesCount"`
	IsLiked    bool         `json:"isLiked" bson:"isLiked"`
}

// ChannelProfile is the public page of a channel.
type ChannelProfile struct {
	ID                        string    `json:"_id" bson:"_id"`
	Username                  string    `json:"username" bson:"username"`
	FullName                  string    `json:"fullName" bson:"fullName"`
	Email                     string    `json:"email" bson:"email"`
	Avatar                    ImageURL  `json:"avatar" bson:"avatar"`
	CoverImage                ImageURL  `json:"coverImage" bson:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount" bson:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount" bson:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed" bson:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt" bson:"createdAt"`
}

type ChannelStats struct {
	TotalSubscribers int64 `json:"totalSubscribers" bson:"totalSubscribers"`
	TotalViews       int64 `json:"totalViews" bson:"totalViews"`
	TotalLikes       int64 `json:"totalLikes" bson:"totalLikes"`
	TotalVideos      int64 `json:"totalVideos" bson:"totalVideos"`
}

// ChannelVideo is a dashboard row: one of the caller's own videos.
type ChannelVideo struct {
	ID            string    `json:"_id" bson:"_id"`
	VideoFile     ImageURL  `json:"videoFile" bson:"videoFile"`
	Thumbnail     ImageURL  `json:"thumbnail" bson:"thumbnail"`
	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description" bson:"description"`
	IsPublished   bool      `json:"isPublished" bson:"isPublished"`
	Views         int64     `json:"views" bson:"views"`
	LikesCount    int64     `json:"likesCount" bson:"likesCount"`
	CommentsCount int64     `json:"commentsCount" bson:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

type SubscriberView struct {
	OwnerProfile           `bson:",inline"`
	SubscribedToSubscriber bool  `json:"subscribedToSubscriber" bson:"subscribedToSubscriber"`
	SubscribersCount       int64 `json:"subscribersCount" bson:"subscribersCount"`
}

// LatestVideo is the newest published upload of a channel.
type LatestVideo struct {
	ID        string    `json:"_id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Thumbnail ImageURL  `json:"thumbnail" bson:"thumbnail"`
	Views     int64     `json:"views" bson:"views"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type SubscribedChannel struct {
	OwnerProfile `bson:",inline"`
	LatestVideo  *LatestVideo `json:"latestVideo" bson:"latestVideo,omitempty"`
}

type PlaylistSummary struct {
	ID          string    `json:"_id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	TotalVideos int64     `json:"totalVideos" bson:"totalVideos"`
	TotalViews  int64     `json:"totalViews" bson:"totalViews"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type PlaylistDetail struct {
	ID          string       `json:"_id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	Description string       `json:"description" bson:"description"`
	Owner       OwnerProfile `json:"owner" bson:"owner"`
	Videos      []VideoCard  `json:"videos" bson:"videos"`
	TotalVideos int64        `json:"totalVideos" bson:"totalVideos"`
	TotalViews  int64        `json:"totalViews" bson:"totalViews"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}
