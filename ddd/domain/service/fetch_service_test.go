package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDownloader struct {
	name     string
	handles  func(string) bool
	download func(ctx context.Context, sourceURL, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error)
	calls    int
}

func (d *stubDownloader) Name() string { return d.name }

func (d *stubDownloader) CanHandle(sourceURL string) bool {
	if d.handles == nil {
		return true
	}
	return d.handles(sourceURL)
}

func (d *stubDownloader) Download(ctx context.Context, sourceURL, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
	d.calls++
	if d.download == nil {
		return nil, errors.New("no download func")
	}
	return d.download(ctx, sourceURL, destDir, opts)
}

type stubProber struct {
	result *port.ProbeResult
	err    error
}

func (p *stubProber) Probe(ctx context.Context, path string) (*port.ProbeResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.result != nil {
		return p.result, nil
	}
	return &port.ProbeResult{DurationSeconds: 120, Width: 1920, Height: 1080, Format: "mp4"}, nil
}

func fetchTestConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Pipeline.CacheDir = t.TempDir()
	return cfg
}

func fetchTestTask(sourceURL string) *entity.HighlightTaskEntity {
	return entity.NewHighlightTaskEntity("", "user-1", sourceURL,
		3, 15, 60, vo.AspectModeMobile, vo.QualityMedium, "")
}

// writeDownloadedFile simulates a downloader dropping a file into destDir.
func writeDownloadedFile(t *testing.T, destDir, name string) string {
	t.Helper()
	path := filepath.Join(destDir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake mp4 payload"), 0o644))
	return path
}

func TestFetchRejectsUnsupportedURLs(t *testing.T) {
	dl := &stubDownloader{name: "stub"}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, fetchTestConfig(t))

	cases := []string{
		"",
		"ftp://example.com/video.mp4",
		"https://",
		"https://www.youtube.com/watch?v=short",
		"https://youtu.be/bad",
	}
	for _, sourceURL := range cases {
		_, err := svc.Fetch(context.Background(), fetchTestTask(sourceURL))
		require.Error(t, err, "url %q", sourceURL)
		assert.True(t, vo.IsFetchError(err, vo.FetchUnsupported), "url %q got %v", sourceURL, err)
	}
	// Validation fails before any downloader is consulted.
	assert.Equal(t, 0, dl.calls)
}

func TestFetchAcceptsValidYouTubeURLs(t *testing.T) {
	cfg := fetchTestConfig(t)
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, sourceURL, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return nil, errors.New("network down")
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, cfg)

	// An 11-character id passes validation and reaches the downloader.
	_, err := svc.Fetch(context.Background(), fetchTestTask("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchUnreachable))
	assert.Equal(t, 1, dl.calls)
}

func TestFetchNoDownloaderAcceptsURL(t *testing.T) {
	reg := port.NewDownloaderRegistry()
	reg.Register(&stubDownloader{name: "picky", handles: func(string) bool { return false }})
	svc := NewFetchService(reg, &stubProber{}, fetchTestConfig(t))

	_, err := svc.Fetch(context.Background(), fetchTestTask("https://example.com/video.mp4"))
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchUnsupported))
}

func TestFetchDownloadMovedToCachePath(t *testing.T) {
	cfg := fetchTestConfig(t)
	sourceURL := "https://example.com/video.mp4"
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			path := writeDownloadedFile(t, destDir, "tmp_download.mp4")
			return &vo.MediaAsset{LocalPath: path, Title: "demo"}, nil
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, cfg)

	asset, err := svc.Fetch(context.Background(), fetchTestTask(sourceURL))
	require.NoError(t, err)

	wantPath := filepath.Join(cfg.Pipeline.CacheDir, SourceID(sourceURL)+".mp4")
	assert.Equal(t, wantPath, asset.LocalPath)
	assert.FileExists(t, wantPath)
	assert.Equal(t, SourceID(sourceURL), asset.SourceID)
	assert.Equal(t, sourceURL, asset.SourceURL)
	assert.InDelta(t, 120.0, asset.DurationSeconds, 0.001)
	assert.Equal(t, 1920, asset.Width)
	assert.Greater(t, asset.SizeBytes, int64(0))
	// KeepSource defaults off, so the asset is marked disposable.
	assert.False(t, asset.Cached)
}

func TestFetchKeepSourceMarksAssetCached(t *testing.T) {
	cfg := fetchTestConfig(t)
	cfg.Pipeline.KeepSource = true
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return &vo.MediaAsset{LocalPath: writeDownloadedFile(t, destDir, "d.mp4")}, nil
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, cfg)

	asset, err := svc.Fetch(context.Background(), fetchTestTask("https://example.com/keep.mp4"))
	require.NoError(t, err)
	assert.True(t, asset.Cached)
}

func TestFetchDownloadFailureIsUnreachable(t *testing.T) {
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, fetchTestConfig(t))

	_, err := svc.Fetch(context.Background(), fetchTestTask("https://example.com/video.mp4"))
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchUnreachable))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchCorruptDownloadRemoved(t *testing.T) {
	cfg := fetchTestConfig(t)
	sourceURL := "https://example.com/corrupt.mp4"
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return &vo.MediaAsset{LocalPath: writeDownloadedFile(t, destDir, "c.mp4")}, nil
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{err: errors.New("moov atom not found")}, cfg)

	_, err := svc.Fetch(context.Background(), fetchTestTask(sourceURL))
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchCorrupt))
	assert.NoFileExists(t, filepath.Join(cfg.Pipeline.CacheDir, SourceID(sourceURL)+".mp4"))
}

func TestFetchZeroDurationIsCorrupt(t *testing.T) {
	cfg := fetchTestConfig(t)
	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return &vo.MediaAsset{LocalPath: writeDownloadedFile(t, destDir, "z.mp4")}, nil
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{result: &port.ProbeResult{DurationSeconds: 0}}, cfg)

	_, err := svc.Fetch(context.Background(), fetchTestTask("https://example.com/zero.mp4"))
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchCorrupt))
}

func TestFetchReusesCachedSource(t *testing.T) {
	cfg := fetchTestConfig(t)
	sourceURL := "https://example.com/cached.mp4"
	cachePath := filepath.Join(cfg.Pipeline.CacheDir, SourceID(sourceURL)+".mp4")
	require.NoError(t, os.WriteFile(cachePath, []byte("cached payload"), 0o644))

	dl := &stubDownloader{name: "stub"}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, &stubProber{}, cfg)

	asset, err := svc.Fetch(context.Background(), fetchTestTask(sourceURL))
	require.NoError(t, err)
	assert.Equal(t, cachePath, asset.LocalPath)
	assert.True(t, asset.Cached)
	assert.Equal(t, 0, dl.calls)
}

func TestFetchBadCacheEntryRedownloaded(t *testing.T) {
	cfg := fetchTestConfig(t)
	sourceURL := "https://example.com/stale.mp4"
	cachePath := filepath.Join(cfg.Pipeline.CacheDir, SourceID(sourceURL)+".mp4")
	require.NoError(t, os.WriteFile(cachePath, []byte("truncated"), 0o644))

	probes := 0
	prober := &flakyProber{probe: func(path string) (*port.ProbeResult, error) {
		probes++
		if probes == 1 {
			// The stale cache entry fails its probe and gets evicted.
			return nil, errors.New("invalid data found")
		}
		return &port.ProbeResult{DurationSeconds: 90, Width: 1280, Height: 720, Format: "mp4"}, nil
	}}

	dl := &stubDownloader{
		name: "stub",
		download: func(ctx context.Context, u, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
			return &vo.MediaAsset{LocalPath: writeDownloadedFile(t, destDir, "fresh.mp4")}, nil
		},
	}
	reg := port.NewDownloaderRegistry()
	reg.Register(dl)
	svc := NewFetchService(reg, prober, cfg)

	asset, err := svc.Fetch(context.Background(), fetchTestTask(sourceURL))
	require.NoError(t, err)
	assert.Equal(t, 1, dl.calls)
	assert.InDelta(t, 90.0, asset.DurationSeconds, 0.001)
}

type flakyProber struct {
	probe func(path string) (*port.ProbeResult, error)
}

func (p *flakyProber) Probe(ctx context.Context, path string) (*port.ProbeResult, error) {
	return p.probe(path)
}

func TestSourceIDStable(t *testing.T) {
	a := SourceID("https://example.com/video.mp4")
	b := SourceID("https://example.com/video.mp4")
	c := SourceID("https://example.com/other.mp4")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
