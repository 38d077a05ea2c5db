package models

import "time"

// BlobRef points at a media object held by the blob store.
type BlobRef struct {
	URL      string `json:"url" bson:"url" gorm:"column:url;type:text"`
	PublicID string `json:"public_id" bson:"public_id" gorm:"column:public_id;type:varchar(255)"`
}

// IsZero reports whether the reference points at nothing.
func (b BlobRef) IsZero() bool {
	return b.URL == "" && b.PublicID == ""
}

// User represents a registered account, which doubles as a channel.
type User struct {
	ID           string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Username     string    `json:"username" bson:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	FullName     string    `json:"fullName" bson:"fullName" gorm:"type:varchar(255);not null"`
	Avatar       BlobRef   `json:"avatar" bson:"avatar" gorm:"embedded;embeddedPrefix:avatar_"`
	CoverImage   BlobRef   `json:"coverImage" bson:"coverImage" gorm:"embedded;embeddedPrefix:cover_image_"`
	WatchHistory []string  `json:"watchHistory" bson:"watchHistory" gorm:"-"`
	Password     string    `json:"-" bson:"password" gorm:"type:varchar(255);not null"`
	RefreshToken string    `json:"-" bson:"refreshToken" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}
