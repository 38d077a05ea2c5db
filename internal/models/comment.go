package models

import "time"

// Comment is a remark left on a video.
type Comment struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Content   string    `json:"content" bson:"content" gorm:"type:text;not null"`
	Video     string    `json:"video" bson:"video" gorm:"type:varchar(24);index;not null"`
	Owner     string    `json:"owner" bson:"owner" gorm:"type:varchar(24);index;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Tweet is a short text post on a channel.
type Tweet struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Content   string    `json:"content" bson:"content" gorm:"type:text;not null"`
	Owner     string    `json:"owner" bson:"owner" gorm:"type:varchar(24);index;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
