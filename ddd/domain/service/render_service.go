package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/gateway"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// renderCacheTTL how long a finished render stays reusable
const renderCacheTTL = 24 * time.Hour

// RenderService turns one selected segment into a stored clip
type RenderService interface {
	// Render encodes, measures and uploads a clip for the segment
	Render(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, index int, seg vo.Segment, progressCb port.ProgressCallback) (*entity.ClipEntity, error)
}

type renderServiceImpl struct {
	encoder port.ClipEncoder
	prober  port.MediaProber
	storage gateway.StorageGateway
	cache   gateway.RenderCache
	cfg     *config.Config
}

// NewRenderService creates the clip renderer
func NewRenderService(encoder port.ClipEncoder, prober port.MediaProber, storage gateway.StorageGateway, cache gateway.RenderCache, cfg *config.Config) RenderService {
	return &renderServiceImpl{
		encoder: encoder,
		prober:  prober,
		storage: storage,
		cache:   cache,
		cfg:     cfg,
	}
}

func (s *renderServiceImpl) Render(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, index int, seg vo.Segment, progressCb port.ProgressCallback) (*entity.ClipEntity, error) {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}

	if !task.Aspect().IsValid() {
		return nil, vo.NewRenderError(vo.RenderUnsupportedAspect, fmt.Errorf("aspect mode %q", task.Aspect()))
	}
	spec, err := vo.NewClipSpec(index, seg.StartSeconds, seg.EndSeconds, task.Aspect(), task.Quality())
	if err != nil {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, err)
	}

	clip := entity.NewClipEntity(task.TaskUUID(), index, seg, task.Aspect(), task.Quality())

	// Identical inputs map to the same stored artifact, so a re-render of
	// the same segment skips the encoder entirely.
	cacheKey := RenderCacheKey(asset.SourceID, seg, task.Aspect(), task.Quality())
	if s.cache != nil {
		if objectKey, ok, cacheErr := s.cache.Get(ctx, cacheKey); cacheErr == nil && ok {
			logger.Infof("render cache hit task_uuid=%s clip_index=%d object_key=%s", task.TaskUUID(), index, objectKey)
			clip.SetDurationSeconds(seg.DurationSeconds())
			clip.SetStored(objectKey, s.buildClipURL(objectKey))
			return clip, nil
		}
	}

	outputDir := s.outputDir(task)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, fmt.Errorf("create output dir: %w", err))
	}
	outputPath := filepath.Join(outputDir, clipFileName(asset.LocalPath, seg))

	opts := port.EncodeOptions{
		ProgressCb:  progressCb,
		TimeoutSecs: int(s.cfg.Pipeline.FFmpeg.Timeout.Seconds()),
	}
	result, err := s.encoder.Encode(ctx, asset, spec, outputPath, opts)
	if err != nil {
		return nil, err
	}

	clip.SetLocalPath(result.OutputPath)
	clip.SetDurationSeconds(result.DurationSeconds)

	objectKey := fmt.Sprintf("clips/%s/%s", task.TaskUUID(), filepath.Base(result.OutputPath))
	publicURL, err := s.storage.UploadClip(ctx, result.OutputPath, objectKey, "video/mp4")
	if err != nil {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, fmt.Errorf("upload clip: %w", err))
	}
	clip.SetStored(objectKey, publicURL)

	if s.cache != nil {
		if err := s.cache.Put(ctx, cacheKey, objectKey, renderCacheTTL); err != nil {
			logger.Warnf("render cache put failed key=%s error=%v", cacheKey, err)
		}
	}

	logger.Infof("clip rendered task_uuid=%s clip_uuid=%s index=%d range=%.1f-%.1fs url=%s",
		task.TaskUUID(), clip.ClipUUID(), index, seg.StartSeconds, seg.EndSeconds, publicURL)
	return clip, nil
}

func (s *renderServiceImpl) outputDir(task *entity.HighlightTaskEntity) string {
	if task.OutputDir() != "" {
		return task.OutputDir()
	}
	return filepath.Join(s.cfg.Pipeline.OutputDir, task.TaskUUID())
}

func (s *renderServiceImpl) buildClipURL(objectKey string) string {
	base := strings.TrimSpace(s.cfg.Public.StorageBase)
	if base == "" {
		return objectKey
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(objectKey, "/")
}

// RenderCacheKey identifies one render by everything that shapes its output
func RenderCacheKey(sourceID string, seg vo.Segment, aspect vo.AspectMode, quality vo.QualityTier) string {
	return fmt.Sprintf("render:%s:%.3f-%.3f:%s:%s", sourceID, seg.StartSeconds, seg.EndSeconds, aspect, quality)
}

// clipFileName derives the output name <stem>_clip_<start>-<end>.mp4
func clipFileName(sourcePath string, seg vo.Segment) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return fmt.Sprintf("%s_clip_%d-%d.mp4", stem, int(seg.StartSeconds), int(seg.EndSeconds))
}
