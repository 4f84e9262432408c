package port

import (
	"context"
	"sync"

	"highlight-service/ddd/domain/vo"
)

// DownloadOptions controls downloader behaviour.
type DownloadOptions struct {
	ProgressCb  ProgressCallback
	MaxHeight   int
	TimeoutSecs int
}

// Downloader resolves a source URL to a local media file.
type Downloader interface {
	// Name identifies the adapter in logs and cache keys.
	Name() string

	// CanHandle reports whether this adapter understands the URL.
	CanHandle(sourceURL string) bool

	// Download fetches the source into destDir and returns the local asset.
	Download(ctx context.Context, sourceURL, destDir string, opts DownloadOptions) (*vo.MediaAsset, error)
}

// DownloaderRegistry resolves URLs to the first adapter that accepts them,
// in registration order.
type DownloaderRegistry struct {
	mu          sync.RWMutex
	downloaders []Downloader
}

func NewDownloaderRegistry() *DownloaderRegistry {
	return &DownloaderRegistry{}
}

// Register appends a downloader to the resolution chain
func (r *DownloaderRegistry) Register(d Downloader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloaders = append(r.downloaders, d)
}

// Resolve picks the first downloader that can handle the URL
func (r *DownloaderRegistry) Resolve(sourceURL string) (Downloader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.downloaders {
		if d.CanHandle(sourceURL) {
			return d, true
		}
	}
	return nil, false
}

// Names lists the registered adapters in order
func (r *DownloaderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.downloaders))
	for _, d := range r.downloaders {
		names = append(names, d.Name())
	}
	return names
}
