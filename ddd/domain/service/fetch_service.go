package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// FetchService acquires the source video of a task as a local file
type FetchService interface {
	// Fetch downloads and validates the task's source URL
	Fetch(ctx context.Context, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error)
}

type fetchServiceImpl struct {
	downloaders *port.DownloaderRegistry
	prober      port.MediaProber
	cfg         *config.Config
}

// NewFetchService creates the source fetcher
func NewFetchService(downloaders *port.DownloaderRegistry, prober port.MediaProber, cfg *config.Config) FetchService {
	return &fetchServiceImpl{
		downloaders: downloaders,
		prober:      prober,
		cfg:         cfg,
	}
}

// Fetch resolves the source URL to a validated local asset. A cached copy
// of the same source is reused without downloading again. Retrying is the
// orchestrator's concern, one call is one attempt.
func (s *fetchServiceImpl) Fetch(ctx context.Context, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}

	sourceURL := strings.TrimSpace(task.SourceURL())
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	sourceID := SourceID(sourceURL)
	cacheDir := s.cfg.Pipeline.CacheDir
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, vo.NewFetchError(vo.FetchUnreachable, sourceURL, fmt.Errorf("create cache dir: %w", err))
	}

	cachePath := filepath.Join(cacheDir, sourceID+".mp4")
	if asset, ok := s.reuseCached(ctx, sourceURL, sourceID, cachePath); ok {
		logger.Infof("source cache hit task_uuid=%s source_id=%s path=%s", task.TaskUUID(), sourceID, cachePath)
		return asset, nil
	}

	downloader, ok := s.downloaders.Resolve(sourceURL)
	if !ok {
		return nil, vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("no downloader accepts this URL"))
	}

	logger.Infof("fetching source task_uuid=%s downloader=%s url=%s", task.TaskUUID(), downloader.Name(), sourceURL)

	opts := port.DownloadOptions{
		MaxHeight:   2160,
		TimeoutSecs: int(s.cfg.Pipeline.YtDlp.Timeout.Seconds()),
	}
	asset, err := downloader.Download(ctx, sourceURL, cacheDir, opts)
	if err != nil {
		return nil, vo.NewFetchError(vo.FetchUnreachable, sourceURL, err)
	}

	// Move the download to its deterministic cache location so a later
	// task for the same source reuses it.
	if asset.LocalPath != cachePath {
		if err := os.Rename(asset.LocalPath, cachePath); err == nil {
			asset.LocalPath = cachePath
		}
	}
	asset.SourceURL = sourceURL
	if asset.SourceID == "" {
		asset.SourceID = sourceID
	}

	if err := s.verifyAsset(ctx, asset); err != nil {
		_ = os.Remove(asset.LocalPath)
		return nil, vo.NewFetchError(vo.FetchCorrupt, sourceURL, err)
	}

	asset.Cached = s.cfg.Pipeline.KeepSource
	logger.Infof("source fetched task_uuid=%s source_id=%s duration=%.1fs size=%d",
		task.TaskUUID(), asset.SourceID, asset.DurationSeconds, asset.SizeBytes)
	return asset, nil
}

// reuseCached returns the cached asset when it exists and still probes clean
func (s *fetchServiceImpl) reuseCached(ctx context.Context, sourceURL, sourceID, cachePath string) (*vo.MediaAsset, bool) {
	info, err := os.Stat(cachePath)
	if err != nil || info.Size() == 0 {
		return nil, false
	}
	probe, err := s.prober.Probe(ctx, cachePath)
	if err != nil || probe.DurationSeconds <= 0 {
		_ = os.Remove(cachePath)
		return nil, false
	}
	return &vo.MediaAsset{
		SourceID:        sourceID,
		SourceURL:       sourceURL,
		LocalPath:       cachePath,
		DurationSeconds: probe.DurationSeconds,
		Width:           probe.Width,
		Height:          probe.Height,
		SizeBytes:       info.Size(),
		Format:          probe.Format,
		Cached:          true,
	}, true
}

// verifyAsset fills in probe facts and rejects empty or unparsable files
func (s *fetchServiceImpl) verifyAsset(ctx context.Context, asset *vo.MediaAsset) error {
	info, err := os.Stat(asset.LocalPath)
	if err != nil {
		return fmt.Errorf("downloaded file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("downloaded file is empty")
	}
	asset.SizeBytes = info.Size()

	probe, err := s.prober.Probe(ctx, asset.LocalPath)
	if err != nil {
		return fmt.Errorf("container not parsable: %w", err)
	}
	if probe.DurationSeconds <= 0 {
		return fmt.Errorf("container reports no duration")
	}
	if asset.DurationSeconds <= 0 {
		asset.DurationSeconds = probe.DurationSeconds
	}
	if asset.Width == 0 {
		asset.Width = probe.Width
	}
	if asset.Height == 0 {
		asset.Height = probe.Height
	}
	if asset.Format == "" {
		asset.Format = probe.Format
	}
	return nil
}

// SourceID derives a stable cache identifier from a source URL
func SourceID(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:16]
}

// validateSourceURL rejects URLs no downloader could meaningfully handle.
// YouTube URLs additionally need a plausible 11-character video id.
func validateSourceURL(sourceURL string) error {
	if sourceURL == "" {
		return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("source URL is empty"))
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("malformed URL: %w", err))
	}

	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("URL has no host"))
		}
		if isYouTubeHost(parsed.Host) {
			if id := youtubeVideoID(parsed); len(id) != 11 {
				return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("invalid youtube video id %q", id))
			}
		}
		return nil
	case "file", "":
		path := parsed.Path
		if parsed.Scheme == "" {
			path = sourceURL
		}
		if _, err := os.Stat(path); err != nil {
			return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("local file not found: %w", err))
		}
		return nil
	default:
		return vo.NewFetchError(vo.FetchUnsupported, sourceURL, fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	switch host {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be":
		return true
	default:
		return false
	}
}

func youtubeVideoID(parsed *url.URL) string {
	if strings.Contains(parsed.Host, "youtu.be") {
		return strings.Trim(parsed.Path, "/")
	}
	return parsed.Query().Get("v")
}
