package gateway

import "context"

// StorageGateway object storage for rendered clip artifacts
type StorageGateway interface {
	// UploadClip uploads a rendered clip and returns its public URL
	UploadClip(ctx context.Context, localPath, objectKey, contentType string) (string, error)

	// RemoveClip deletes a stored clip artifact
	RemoveClip(ctx context.Context, objectKey string) error
}
