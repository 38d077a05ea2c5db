package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex-digit ObjectID string. Both store backends key
// documents by these strings so identifier validation is backend independent.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed ObjectID hex string.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
