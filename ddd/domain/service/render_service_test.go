package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEncoder struct {
	calls int
	err   error
}

func (e *stubEncoder) Encode(ctx context.Context, asset *vo.MediaAsset, spec *vo.ClipSpec, outputPath string, opts port.EncodeOptions) (*port.EncodeResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &port.EncodeResult{
		OutputPath:      outputPath,
		DurationSeconds: spec.EndSeconds - spec.StartSeconds,
		SizeBytes:       1 << 20,
	}, nil
}

type stubStorage struct {
	uploads  []string
	removes  []string
	uploadFn func(objectKey string) (string, error)
}

func (s *stubStorage) UploadClip(ctx context.Context, localPath, objectKey, contentType string) (string, error) {
	s.uploads = append(s.uploads, objectKey)
	if s.uploadFn != nil {
		return s.uploadFn(objectKey)
	}
	return "https://cdn.example.com/" + objectKey, nil
}

func (s *stubStorage) RemoveClip(ctx context.Context, objectKey string) error {
	s.removes = append(s.removes, objectKey)
	return nil
}

type stubRenderCache struct {
	entries map[string]string
	puts    map[string]time.Duration
	getErr  error
}

func newStubRenderCache() *stubRenderCache {
	return &stubRenderCache{entries: map[string]string{}, puts: map[string]time.Duration{}}
}

func (c *stubRenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	objectKey, ok := c.entries[key]
	return objectKey, ok, nil
}

func (c *stubRenderCache) Put(ctx context.Context, key, objectKey string, ttl time.Duration) error {
	c.entries[key] = objectKey
	c.puts[key] = ttl
	return nil
}

func renderTestConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Pipeline.OutputDir = t.TempDir()
	cfg.Pipeline.FFmpeg.Timeout = 5 * time.Minute
	return cfg
}

func renderTestAsset() *vo.MediaAsset {
	return &vo.MediaAsset{
		SourceID:        "srcabc123",
		LocalPath:       "/tmp/srcabc123.mp4",
		DurationSeconds: 300,
		Width:           1920,
		Height:          1080,
		SizeBytes:       1 << 24,
	}
}

func renderTestTask() *entity.HighlightTaskEntity {
	return entity.NewHighlightTaskEntity("task-render", "user-1", "https://example.com/v.mp4",
		3, 15, 60, vo.AspectModeMobile, vo.QualityHigh, "")
}

func TestRenderHappyPathStoresClip(t *testing.T) {
	encoder := &stubEncoder{}
	storage := &stubStorage{}
	cache := newStubRenderCache()
	svc := NewRenderService(encoder, &stubProber{}, storage, cache, renderTestConfig(t))

	seg, err := vo.NewSegment(30, 55, 0.9, vo.EvidenceAudioEnergy)
	require.NoError(t, err)

	clip, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 0, *seg, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, encoder.calls)
	assert.True(t, clip.IsRendered())
	assert.InDelta(t, 25.0, clip.DurationSeconds(), 0.001)

	wantKey := "clips/task-render/srcabc123_clip_30-55.mp4"
	require.Len(t, storage.uploads, 1)
	assert.Equal(t, wantKey, storage.uploads[0])
	assert.Equal(t, "https://cdn.example.com/"+wantKey, clip.PublicURL())

	// The finished render is remembered for a day.
	cacheKey := RenderCacheKey("srcabc123", *seg, vo.AspectModeMobile, vo.QualityHigh)
	assert.Equal(t, wantKey, cache.entries[cacheKey])
	assert.Equal(t, 24*time.Hour, cache.puts[cacheKey])
}

func TestRenderCacheHitSkipsEncoder(t *testing.T) {
	encoder := &stubEncoder{}
	storage := &stubStorage{}
	cache := newStubRenderCache()
	cfg := renderTestConfig(t)
	cfg.Public.StorageBase = "cdn.example.com"

	seg, err := vo.NewSegment(10, 30, 0.8, vo.EvidenceSceneChange)
	require.NoError(t, err)
	cacheKey := RenderCacheKey("srcabc123", *seg, vo.AspectModeMobile, vo.QualityHigh)
	cache.entries[cacheKey] = "clips/earlier-task/srcabc123_clip_10-30.mp4"

	svc := NewRenderService(encoder, &stubProber{}, storage, cache, cfg)
	clip, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 1, *seg, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, encoder.calls)
	assert.Empty(t, storage.uploads)
	assert.True(t, clip.IsRendered())
	assert.InDelta(t, 20.0, clip.DurationSeconds(), 0.001)
	assert.Equal(t, "http://cdn.example.com/clips/earlier-task/srcabc123_clip_10-30.mp4", clip.PublicURL())
}

func TestRenderCacheErrorFallsThroughToEncode(t *testing.T) {
	encoder := &stubEncoder{}
	cache := newStubRenderCache()
	cache.getErr = errors.New("redis timeout")
	svc := NewRenderService(encoder, &stubProber{}, &stubStorage{}, cache, renderTestConfig(t))

	seg, _ := vo.NewSegment(10, 30, 0.8, vo.EvidenceSceneChange)
	_, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 0, *seg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, encoder.calls)
}

func TestRenderNilCacheWorks(t *testing.T) {
	encoder := &stubEncoder{}
	svc := NewRenderService(encoder, &stubProber{}, &stubStorage{}, nil, renderTestConfig(t))

	seg, _ := vo.NewSegment(0, 20, 0.5, vo.EvidenceUniform)
	clip, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 0, *seg, nil)
	require.NoError(t, err)
	assert.True(t, clip.IsRendered())
}

func TestRenderInvalidAspectRejected(t *testing.T) {
	encoder := &stubEncoder{}
	svc := NewRenderService(encoder, &stubProber{}, &stubStorage{}, nil, renderTestConfig(t))

	task := entity.NewHighlightTaskEntity("task-bad", "user-1", "https://example.com/v.mp4",
		1, 15, 60, vo.AspectMode("square"), vo.QualityMedium, "")
	seg, _ := vo.NewSegment(0, 20, 0.5, vo.EvidenceUniform)

	_, err := svc.Render(context.Background(), task, renderTestAsset(), 0, *seg, nil)
	require.Error(t, err)
	assert.True(t, vo.IsRenderError(err, vo.RenderUnsupportedAspect))
	assert.Equal(t, 0, encoder.calls)
}

func TestRenderEncoderErrorPassedThrough(t *testing.T) {
	wantErr := vo.NewRenderError(vo.RenderTimeout, errors.New("encode exceeded 900s"))
	svc := NewRenderService(&stubEncoder{err: wantErr}, &stubProber{}, &stubStorage{}, nil, renderTestConfig(t))

	seg, _ := vo.NewSegment(0, 20, 0.5, vo.EvidenceUniform)
	_, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 0, *seg, nil)
	require.Error(t, err)
	assert.True(t, vo.IsRenderError(err, vo.RenderTimeout))
}

func TestRenderUploadFailureIsEncodeFailure(t *testing.T) {
	storage := &stubStorage{uploadFn: func(string) (string, error) {
		return "", errors.New("minio: connection reset")
	}}
	svc := NewRenderService(&stubEncoder{}, &stubProber{}, storage, nil, renderTestConfig(t))

	seg, _ := vo.NewSegment(0, 20, 0.5, vo.EvidenceUniform)
	_, err := svc.Render(context.Background(), renderTestTask(), renderTestAsset(), 0, *seg, nil)
	require.Error(t, err)
	assert.True(t, vo.IsRenderError(err, vo.RenderEncodeFailure))
}

func TestRenderTaskOutputDirWins(t *testing.T) {
	dir := t.TempDir()
	task := entity.NewHighlightTaskEntity("task-dir", "user-1", "https://example.com/v.mp4",
		1, 15, 60, vo.AspectModeMobile, vo.QualityMedium, dir)
	svc := NewRenderService(&stubEncoder{}, &stubProber{}, &stubStorage{}, nil, renderTestConfig(t))

	seg, _ := vo.NewSegment(5, 25, 0.6, vo.EvidenceAudioEnergy)
	clip, err := svc.Render(context.Background(), task, renderTestAsset(), 0, *seg, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(clip.LocalPath()))
}

func TestRenderCacheKeyDistinguishesInputs(t *testing.T) {
	seg1, _ := vo.NewSegment(10, 30, 0.5, vo.EvidenceUniform)
	seg2, _ := vo.NewSegment(10, 31, 0.5, vo.EvidenceUniform)

	base := RenderCacheKey("src", *seg1, vo.AspectModeMobile, vo.QualityHigh)
	keys := []string{
		RenderCacheKey("other", *seg1, vo.AspectModeMobile, vo.QualityHigh),
		RenderCacheKey("src", *seg2, vo.AspectModeMobile, vo.QualityHigh),
		RenderCacheKey("src", *seg1, vo.AspectModeNative, vo.QualityHigh),
		RenderCacheKey("src", *seg1, vo.AspectModeMobile, vo.QualityLow),
	}
	for i, key := range keys {
		assert.NotEqual(t, base, key, "variant %d", i)
	}

	// Same inputs, same key, regardless of score or evidence.
	seg1b, _ := vo.NewSegment(10, 30, 0.9, vo.EvidenceSceneChange)
	assert.Equal(t, base, RenderCacheKey("src", *seg1b, vo.AspectModeMobile, vo.QualityHigh))
	assert.Equal(t, fmt.Sprintf("render:src:%.3f-%.3f:%s:%s", 10.0, 30.0, vo.AspectModeMobile, vo.QualityHigh), base)
}
