package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"highlight-service/ddd/domain/gateway"
	"highlight-service/internal/resource"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// MinioStorage stores rendered clip artifacts in MinIO.
type MinioStorage struct {
	minioResource *resource.MinioResource
	cfg           *config.Config
}

func NewMinioStorage(minioResource *resource.MinioResource, cfg *config.Config) gateway.StorageGateway {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &MinioStorage{
		minioResource: minioResource,
		cfg:           cfg,
	}
}

// UploadClip uploads a rendered clip and returns its public URL.
func (s *MinioStorage) UploadClip(ctx context.Context, localPath, objectKey, contentType string) (string, error) {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	file, err := os.Open(localPath)
	if err != nil {
		logger.Error("Failed to open clip file", map[string]interface{}{
			"local_path": localPath,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("open clip file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		logger.Error("Failed to stat clip file", map[string]interface{}{
			"local_path": localPath,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("stat clip file failed: %w", err)
	}

	if contentType == "" {
		contentType = contentTypeFromExtension(objectKey)
	}

	_, err = client.PutObject(ctx, bucketName, objectKey, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload clip to MinIO", map[string]interface{}{
			"local_path": localPath,
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("upload clip to minio failed: %w", err)
	}

	logger.Info("Clip uploaded", map[string]interface{}{
		"object_key": objectKey,
		"size":       fileInfo.Size(),
	})

	return s.buildPublicURL(objectKey), nil
}

// RemoveClip deletes a stored clip artifact.
func (s *MinioStorage) RemoveClip(ctx context.Context, objectKey string) error {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	if err := client.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		logger.Error("Failed to remove clip from MinIO", map[string]interface{}{
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return fmt.Errorf("remove clip from minio failed: %w", err)
	}
	return nil
}

// buildPublicURL prefixes the object key with the configured public base.
// Without one the MinIO endpoint itself serves as the base.
func (s *MinioStorage) buildPublicURL(objectKey string) string {
	key := strings.TrimLeft(objectKey, "/")

	base := ""
	if s.cfg != nil {
		base = strings.TrimSpace(s.cfg.Public.StorageBase)
	}
	if base == "" && s.cfg != nil {
		scheme := "http"
		if s.cfg.Minio.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, s.cfg.Minio.Endpoint, s.minioResource.GetBucketName())
	}
	if base == "" {
		return key
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + "/" + key
}

func contentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
