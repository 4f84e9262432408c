package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"highlight-service/pkg/assert"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
	"highlight-service/pkg/manager"
)

var (
	minioResourceOnce      sync.Once
	singletonMinioResource *MinioResource
)

// MinioResource manages the object storage client used for rendered clips.
type MinioResource struct {
	client     *minio.Client
	bucketName string
}

// DefaultMinioResource returns the global MinIO resource instance.
func DefaultMinioResource() *MinioResource {
	assert.NotCircular()
	minioResourceOnce.Do(func() {
		singletonMinioResource = &MinioResource{}
	})
	assert.NotNil(singletonMinioResource)
	return singletonMinioResource
}

// MustOpen builds the client and makes sure the clip bucket exists.
func (r *MinioResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MinioResource")
	}

	minioCfg := cfg.Minio
	if minioCfg.Endpoint == "" {
		panic("minio endpoint is required")
	}
	if minioCfg.BucketName == "" {
		panic("minio bucket_name is required")
	}

	endpoint := minioCfg.Endpoint
	accessKey := minioCfg.AccessKeyID
	secretKey := minioCfg.SecretAccessKey

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create minio client: %v", err))
	}

	r.client = client
	r.bucketName = minioCfg.BucketName

	r.ensureBucket()

	logger.Info("MinIO resource initialized", map[string]interface{}{
		"endpoint":    endpoint,
		"bucket_name": r.bucketName,
	})
}

func (r *MinioResource) ensureBucket() {
	ctx := context.Background()
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		panic(fmt.Sprintf("failed to check minio bucket: %v", err))
	}
	if exists {
		return
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		panic(fmt.Sprintf("failed to create minio bucket: %v", err))
	}
}

// GetClient exposes the raw MinIO client.
func (r *MinioResource) GetClient() *minio.Client {
	return r.client
}

// GetBucketName returns the configured clip bucket.
func (r *MinioResource) GetBucketName() string {
	return r.bucketName
}

// Close is a no-op since minio-go keeps no persistent connection.
func (r *MinioResource) Close() {}

// MinioResourcePlugin wires the resource into the manager.
type MinioResourcePlugin struct{}

func (p *MinioResourcePlugin) Name() string {
	return "minioResource"
}

func (p *MinioResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMinioResource()
}
