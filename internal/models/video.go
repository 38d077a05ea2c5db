package models

import "time"

// Video is an uploaded media item owned by a channel.
type Video struct {
	ID          string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	VideoFile   BlobRef   `json:"videoFile" bson:"videoFile" gorm:"embedded;embeddedPrefix:video_file_"`
	Thumbnail   BlobRef   `json:"thumbnail" bson:"thumbnail" gorm:"embedded;embeddedPrefix:thumbnail_"`
	Title       string    `json:"title" bson:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" bson:"description" gorm:"type:text"`
	Duration    float64   `json:"duration" bson:"duration"`
	Views       int64     `json:"views" bson:"views" gorm:"not null;default:0"`
	IsPublished bool      `json:"isPublished" bson:"isPublished" gorm:"index"`
	Owner       string    `json:"owner" bson:"owner" gorm:"type:varchar(24);index;not null"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
