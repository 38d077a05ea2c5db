package models

import "time"

// Playlist is an owner-curated ordered set of videos.
type Playlist struct {
	ID          string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(24)"`
	Name        string    `json:"name" bson:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" bson:"description" gorm:"type:text"`
	Owner       string    `json:"owner" bson:"owner" gorm:"type:varchar(24);index;not null"`
	Videos      []string  `json:"videos" bson:"videos" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasVideo reports whether videoID is already part of the playlist.
func (p *Playlist) HasVideo(videoID string) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}
