package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
)

// LocalFileDownloader serves file:// URLs and bare filesystem paths by
// copying the source into the cache directory. The original file is never
// touched, so pipeline cleanup only ever removes the copy.
type LocalFileDownloader struct{}

func NewLocalFileDownloader() *LocalFileDownloader {
	return &LocalFileDownloader{}
}

func (d *LocalFileDownloader) Name() string {
	return "local-file"
}

func (d *LocalFileDownloader) CanHandle(sourceURL string) bool {
	path, ok := localPath(sourceURL)
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (d *LocalFileDownloader) Download(ctx context.Context, sourceURL, destDir string, _ port.DownloadOptions) (*vo.MediaAsset, error) {
	path, ok := localPath(sourceURL)
	if !ok {
		return nil, fmt.Errorf("not a local path: %s", sourceURL)
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(destDir, "local_"+filepath.Base(path))
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create cache copy: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("copy source file: %w", err)
	}
	if ctx.Err() != nil {
		_ = os.Remove(destPath)
		return nil, ctx.Err()
	}

	return &vo.MediaAsset{
		SourceURL: sourceURL,
		LocalPath: destPath,
		SizeBytes: written,
	}, nil
}

// localPath strips an optional file:// scheme and rejects other schemes.
func localPath(sourceURL string) (string, bool) {
	if strings.HasPrefix(strings.ToLower(sourceURL), "file://") {
		parsed, err := url.Parse(sourceURL)
		if err != nil {
			return "", false
		}
		return parsed.Path, true
	}
	if strings.Contains(sourceURL, "://") {
		return "", false
	}
	return sourceURL, true
}

var _ port.Downloader = (*LocalFileDownloader)(nil)
