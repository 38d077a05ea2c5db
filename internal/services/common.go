package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/pkg/blobstore"
	"vidtube/pkg/logger"
)

// Event routing keys.
const (
	EventUserRegistered = "user.registered"
	EventVideoPublished = "video.published"
	EventVideoDeleted   = "video.deleted"
)

// EventPublisher sends domain events. A nil publisher drops them.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data interface{}) error
}

func publish(ctx context.Context, events EventPublisher, routingKey string, data interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, routingKey, data); err != nil {
		logger.Warn("failed to publish event", zap.String("event", routingKey), zap.Error(err))
	}
}

// requireID rejects malformed identifiers before any lookup.
func requireID(id, resource string) error {
	if !models.IsValidID(id) {
		return models.NewInvalidArgumentError("Invalid " + resource + " id")
	}
	return nil
}

// lookupError turns a repository read failure into NotFound or Internal.
func lookupError(err error, resource string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return models.NewNotFoundError(resource)
	}
	return models.NewInternalError("failed to load "+strings.ToLower(resource), err)
}

func requireOwner(ownerID, callerID, message string) error {
	if ownerID != callerID {
		return models.NewForbiddenError(message)
	}
	return nil
}

// blank reports whether any of values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// upload stores f and returns its reference, or nil when the store failed.
func upload(ctx context.Context, store blobstore.Store, f *blobstore.File) *models.BlobRef {
	obj, err := store.Upload(ctx, *f)
	if err != nil {
		logger.Warn("blob upload failed", zap.String("name", f.Name), zap.Error(err))
		return nil
	}
	return &models.BlobRef{URL: obj.URL, PublicID: obj.PublicID}
}

// release deletes blobs that are no longer referenced. Failures are logged.
func release(ctx context.Context, store blobstore.Store, refs ...*models.BlobRef) {
	for _, ref := range refs {
		if ref == nil || ref.PublicID == "" {
			continue
		}
		if err := store.Delete(ctx, ref.PublicID); err != nil {
			logger.Warn("blob cleanup failed", zap.String("public_id", ref.PublicID), zap.Error(err))
		}
	}
}
