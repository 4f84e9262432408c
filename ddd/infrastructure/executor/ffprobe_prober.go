package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"highlight-service/ddd/domain/port"
	"highlight-service/pkg/config"
)

// FFprobeProber implements port.MediaProber with the local ffprobe binary.
type FFprobeProber struct {
	cfg *config.Config
}

func NewFFprobeProber(cfg *config.Config) *FFprobeProber {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &FFprobeProber{cfg: cfg}
}

type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Probe inspects the container and first video stream of a local file.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (*port.ProbeResult, error) {
	binary := "ffprobe"
	if p.cfg != nil && p.cfg.Pipeline.FFmpeg.ProbePath != "" {
		binary = p.cfg.Pipeline.FFmpeg.ProbePath
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &port.ProbeResult{
		Format: parsed.Format.FormatName,
	}
	result.DurationSeconds = parseProbeFloat(parsed.Format.Duration)
	result.SizeBytes = parseProbeInt(parsed.Format.Size)

	for _, stream := range parsed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		result.Width = stream.Width
		result.Height = stream.Height
		result.Codec = stream.CodecName
		if result.DurationSeconds <= 0 {
			result.DurationSeconds = parseProbeFloat(stream.Duration)
		}
		break
	}

	if result.SizeBytes == 0 {
		if info, statErr := os.Stat(path); statErr == nil {
			result.SizeBytes = info.Size()
		}
	}
	return result, nil
}

func parseProbeFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseProbeInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
