package downloader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// YtDlpDownloader fetches http(s) sources with the yt-dlp binary.
type YtDlpDownloader struct {
	cfg *config.Config
}

func NewYtDlpDownloader(cfg *config.Config) *YtDlpDownloader {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &YtDlpDownloader{cfg: cfg}
}

func (d *YtDlpDownloader) Name() string {
	return "yt-dlp"
}

// CanHandle accepts any http(s) URL. Site support is yt-dlp's problem.
func (d *YtDlpDownloader) CanHandle(sourceURL string) bool {
	lower := strings.ToLower(sourceURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Download runs yt-dlp into destDir and returns the merged mp4. The output
// name is a one-off token; the caller decides the final cache location.
func (d *YtDlpDownloader) Download(ctx context.Context, sourceURL, destDir string, opts port.DownloadOptions) (*vo.MediaAsset, error) {
	cfg := d.cfg
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}

	timeout := cfg.Pipeline.YtDlp.Timeout
	if opts.TimeoutSecs > 0 {
		timeout = time.Duration(opts.TimeoutSecs) * time.Second
	}
	dlCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token := "dl_" + uuid.New().String()
	args := BuildYtDlpArgs(cfg, sourceURL, destDir, token, opts.MaxHeight)

	binary := cfg.Pipeline.YtDlp.BinaryPath
	if binary == "" {
		binary = "yt-dlp"
	}
	cmd := exec.CommandContext(dlCtx, binary, args...)
	logger.Infof("yt-dlp download url=%s dest=%s command=%s %s", sourceURL, destDir, binary, strings.Join(args, " "))

	if err := d.runDownload(dlCtx, cmd, opts.ProgressCb); err != nil {
		d.cleanupPartials(destDir, token)
		if dlCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("download exceeded %s", timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	outputPath, err := findDownloadedFile(destDir, token)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat downloaded file: %w", err)
	}

	return &vo.MediaAsset{
		SourceURL: sourceURL,
		LocalPath: outputPath,
		SizeBytes: info.Size(),
	}, nil
}

// runDownload follows yt-dlp's stdout, forwarding `[download]  42.3%` lines
// as progress callbacks, and keeps a stderr tail for the error message.
func (d *YtDlpDownloader) runDownload(ctx context.Context, cmd *exec.Cmd, progressCb port.ProgressCallback) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start yt-dlp: %w", err)
	}

	outDone := make(chan struct{})
	go func() {
		defer close(outDone)
		scanDownloadProgress(ctx, stdout, progressCb)
	}()

	tail := make([]string, 0, 50)
	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if len(tail) >= 50 {
				tail = tail[1:]
			}
			tail = append(tail, scanner.Text())
		}
	}()

	err = cmd.Wait()
	<-outDone
	<-errDone
	if err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("yt-dlp failed: %w: %s", err, strings.Join(tail, "\n"))
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

// scanDownloadProgress parses `[download]  42.3% of ...` lines. yt-dlp
// writes them with --newline one per line.
func scanDownloadProgress(ctx context.Context, r io.Reader, progressCb port.ProgressCallback) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := scanner.Text()
		if progressCb == nil {
			continue
		}
		pct, ok := parseDownloadPercent(line)
		if !ok {
			continue
		}
		if pct > 99 {
			pct = 99
		}
		progressCb(pct)
	}
}

func parseDownloadPercent(line string) (int, bool) {
	if !strings.HasPrefix(line, "[download]") {
		return 0, false
	}
	fields := strings.Fields(line)
	for _, f := range fields[1:] {
		if !strings.HasSuffix(f, "%") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

// BuildYtDlpArgs assembles the yt-dlp argument list. Exported so argument
// construction stays testable without the binary.
func BuildYtDlpArgs(cfg *config.Config, sourceURL, destDir, token string, maxHeight int) []string {
	format := "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	if cfg != nil && strings.TrimSpace(cfg.Pipeline.YtDlp.Format) != "" {
		format = cfg.Pipeline.YtDlp.Format
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"--restrict-filenames",
		"-f", format,
		"--merge-output-format", "mp4",
		"-P", destDir,
		"-o", token + ".%(ext)s",
	}
	if maxHeight > 0 {
		args = append(args, "-S", fmt.Sprintf("res:%d", maxHeight))
	}
	args = append(args, sourceURL)
	return args
}

// findDownloadedFile locates the produced file for the output token,
// preferring the merged mp4 over leftover intermediate streams.
func findDownloadedFile(destDir, token string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(destDir, token+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp produced no output for %s", token)
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".mp4") {
			return m, nil
		}
	}
	return matches[0], nil
}

func (d *YtDlpDownloader) cleanupPartials(destDir, token string) {
	matches, err := filepath.Glob(filepath.Join(destDir, token+"*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

var _ port.Downloader = (*YtDlpDownloader)(nil)
