package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// FFmpegClipEncoder implements port.ClipEncoder with the local ffmpeg binary.
type FFmpegClipEncoder struct {
	cfg *config.Config
}

func NewFFmpegClipEncoder(cfg *config.Config) *FFmpegClipEncoder {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &FFmpegClipEncoder{cfg: cfg}
}

// Encode cuts the segment out of the asset, re-encoding with the preset of
// the requested quality tier and the framing of the aspect mode.
func (e *FFmpegClipEncoder) Encode(ctx context.Context, asset *vo.MediaAsset, spec *vo.ClipSpec, outputPath string, opts port.EncodeOptions) (*port.EncodeResult, error) {
	if asset == nil || spec == nil {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, errors.New("nil asset or spec"))
	}
	if !spec.Aspect.IsValid() {
		return nil, vo.NewRenderError(vo.RenderUnsupportedAspect, fmt.Errorf("aspect mode %q", spec.Aspect))
	}

	cfg := e.cfg
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}

	timeout := cfg.Pipeline.FFmpeg.Timeout
	if opts.TimeoutSecs > 0 {
		timeout = time.Duration(opts.TimeoutSecs) * time.Second
	}
	encodeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := BuildClipArgs(cfg, asset, spec, outputPath)
	binary := cfg.Pipeline.FFmpeg.BinaryPath
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(encodeCtx, binary, args...)
	logger.Infof("ffmpeg encode output=%s command=%s %s", outputPath, binary, strings.Join(args, " "))

	if err := e.runEncode(encodeCtx, cmd, spec.DurationSeconds(), opts.ProgressCb); err != nil {
		_ = os.Remove(outputPath)
		if encodeCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, vo.NewRenderError(vo.RenderTimeout, fmt.Errorf("encode exceeded %s", timeout))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, fmt.Errorf("output missing: %w", err))
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, errors.New("output is empty"))
	}

	width, height := targetDimensions(spec)
	return &port.EncodeResult{
		OutputPath:      outputPath,
		DurationSeconds: spec.DurationSeconds(),
		SizeBytes:       info.Size(),
		Width:           width,
		Height:          height,
	}, nil
}

// runEncode starts ffmpeg, follows its stderr for progress and returns the
// exit error with a captured stderr tail on failure.
func (e *FFmpegClipEncoder) runEncode(ctx context.Context, cmd *exec.Cmd, durationSec float64, progressCb port.ProgressCallback) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	progressDone := make(chan struct{})
	buf := make([]string, 0, 200)
	go func() {
		defer close(progressDone)
		e.scanEncodeProgress(ctx, stderr, durationSec, &buf, progressCb)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-progressDone
		<-done
		return ctx.Err()
	case err := <-done:
		<-progressDone
		if err != nil {
			tail := buf
			if n := len(tail); n > 50 {
				tail = tail[n-50:]
			}
			if len(tail) > 0 {
				logger.Errorf("ffmpeg failed tail_stderr=%s", strings.Join(tail, "\n"))
			}
			return fmt.Errorf("ffmpeg exit: %w", err)
		}
		return nil
	}
}

// scanEncodeProgress parses `-progress pipe:2` key=value output and the
// classic `time=HH:MM:SS` stats lines into percentage callbacks.
func (e *FFmpegClipEncoder) scanEncodeProgress(ctx context.Context, stderr io.ReadCloser, durationSec float64, capture *[]string, progressCb port.ProgressCallback) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	reTime := regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := scanner.Text()

		if strings.HasPrefix(line, "out_time_ms=") {
			if ms, err := strconv.ParseFloat(strings.TrimPrefix(line, "out_time_ms="), 64); err == nil && durationSec > 0 {
				sec := ms / 1e6
				emitEncodeProgress(sec, durationSec, progressCb)
			}
			continue
		}

		if m := reTime.FindStringSubmatch(line); len(m) == 4 && durationSec > 0 {
			hh, _ := strconv.ParseFloat(m[1], 64)
			mm, _ := strconv.ParseFloat(m[2], 64)
			ss, _ := strconv.ParseFloat(m[3], 64)
			sec := hh*3600 + mm*60 + ss
			emitEncodeProgress(sec, durationSec, progressCb)
			continue
		}

		if capture != nil {
			b := *capture
			if len(b) >= 200 {
				b = b[1:]
			}
			b = append(b, line)
			*capture = b
		}
	}
}

func emitEncodeProgress(currentSec, totalSec float64, cb port.ProgressCallback) {
	if cb == nil || totalSec <= 0 {
		return
	}
	pct := int((currentSec / totalSec) * 100)
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	cb(pct)
}

// BuildClipArgs assembles the ffmpeg argument list for one clip. Exported so
// argument construction stays testable without running ffmpeg.
func BuildClipArgs(cfg *config.Config, asset *vo.MediaAsset, spec *vo.ClipSpec, outputPath string) []string {
	preset := spec.Quality.Preset()

	args := make([]string, 0, 24)
	args = append(args,
		"-ss", formatSeconds(spec.StartSeconds),
		"-to", formatSeconds(spec.EndSeconds),
		"-i", asset.LocalPath,
		"-progress", "pipe:2",
		"-nostats",
	)

	args = append(args, "-vf", videoFilter(spec.Aspect, preset))

	videoCodec := "libx264"
	videoPreset := "medium"
	threads := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Pipeline.FFmpeg.VideoCodec) != "" {
			videoCodec = cfg.Pipeline.FFmpeg.VideoCodec
		}
		if strings.TrimSpace(cfg.Pipeline.FFmpeg.VideoPreset) != "" {
			videoPreset = cfg.Pipeline.FFmpeg.VideoPreset
		}
		if cfg.Pipeline.FFmpeg.Threads > 0 {
			threads = cfg.Pipeline.FFmpeg.Threads
		}
	}

	args = append(args,
		"-c:v", videoCodec,
		"-preset", videoPreset,
		"-b:v", preset.VideoBitrate,
		"-c:a", "aac",
		"-b:a", preset.AudioBitrate,
		"-movflags", "+faststart",
	)
	if threads > 0 {
		args = append(args, "-threads", strconv.Itoa(threads))
	}
	args = append(args, "-y", outputPath)
	return args
}

// videoFilter builds the -vf chain. Mobile mode center-crops the source to a
// 9:16 frame before scaling to the preset's portrait size; native mode only
// scales to the preset width keeping the source aspect.
func videoFilter(aspect vo.AspectMode, preset vo.QualityPreset) string {
	if aspect == vo.AspectModeMobile {
		w, h := preset.PortraitSize()
		return fmt.Sprintf("crop=ih*9/16:ih,scale=%d:%d", w, h)
	}
	return fmt.Sprintf("scale=%d:-2", preset.Width)
}

func targetDimensions(spec *vo.ClipSpec) (int, int) {
	preset := spec.Quality.Preset()
	if spec.Aspect == vo.AspectModeMobile {
		return preset.PortraitSize()
	}
	return preset.Width, preset.Height
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
