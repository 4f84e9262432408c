package signal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
)

// audioSampleRate mono resample rate used to bucket samples into windows
const audioSampleRate = 8000

// loudWindowFactor a window this far above the mean level lands exactly on
// the default selection threshold of 0.5
const loudWindowFactor = 1.2

// AudioEnergyScorer scores windows by their RMS audio level. Loud moments
// (cheers, shots, commentary peaks) rank high, silence ranks zero.
type AudioEnergyScorer struct {
	cfg *config.Config
}

func NewAudioEnergyScorer(cfg *config.Config) *AudioEnergyScorer {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &AudioEnergyScorer{cfg: cfg}
}

func (s *AudioEnergyScorer) Name() string {
	return vo.EvidenceAudioEnergy
}

// ScoreWindows measures per-window RMS with ffmpeg's astats filter and maps
// levels relative to the mean into [0,1].
func (s *AudioEnergyScorer) ScoreWindows(ctx context.Context, asset *vo.MediaAsset, windowSeconds float64) ([]float64, error) {
	if windowSeconds <= 0 {
		windowSeconds = 1.0
	}
	numWindows := windowCount(asset.DurationSeconds, windowSeconds)

	levels, err := s.measureWindowLevels(ctx, asset.LocalPath, windowSeconds)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no audio stream measured in %s", asset.LocalPath)
	}

	levels = fitWindows(levels, numWindows)
	return scoreAgainstMean(levels), nil
}

// measureWindowLevels runs ffmpeg with astats resetting once per window and
// parses the printed RMS level per audio frame into linear amplitudes.
func (s *AudioEnergyScorer) measureWindowLevels(ctx context.Context, path string, windowSeconds float64) ([]float64, error) {
	samplesPerWindow := int(float64(audioSampleRate) * windowSeconds)
	if samplesPerWindow <= 0 {
		samplesPerWindow = audioSampleRate
	}

	filter := fmt.Sprintf(
		"aresample=%d,asetnsamples=n=%d,astats=metadata=1:reset=1,ametadata=print:key=lavfi.astats.Overall.RMS_level:file=-",
		audioSampleRate, samplesPerWindow,
	)

	binary := "ffmpeg"
	if s.cfg != nil && s.cfg.Pipeline.FFmpeg.BinaryPath != "" {
		binary = s.cfg.Pipeline.FFmpeg.BinaryPath
	}
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner",
		"-i", path,
		"-vn",
		"-af", filter,
		"-f", "null", "-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg astats: %w", err)
	}

	levels := parseRMSLevels(stdout)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg astats: %w", err)
	}
	return levels, nil
}

// parseRMSLevels reads ametadata print output lines of the form
// `lavfi.astats.Overall.RMS_level=-23.41` into linear amplitudes.
func parseRMSLevels(r io.Reader) []float64 {
	const key = "lavfi.astats.Overall.RMS_level="
	var levels []float64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, key) {
			continue
		}
		raw := strings.TrimPrefix(line, key)
		if raw == "-inf" || raw == "inf" || raw == "nan" {
			levels = append(levels, 0)
			continue
		}
		db, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			levels = append(levels, 0)
			continue
		}
		levels = append(levels, math.Pow(10, db/20))
	}
	return levels
}

// scoreAgainstMean maps linear levels to scores so that a window at
// loudWindowFactor times the mean scores 0.5, louder scores higher, capped
// at 1. A silent asset scores all zeros.
func scoreAgainstMean(levels []float64) []float64 {
	var sum float64
	for _, v := range levels {
		sum += v
	}
	mean := sum / float64(len(levels))
	scores := make([]float64, len(levels))
	if mean <= 0 {
		return scores
	}
	for i, v := range levels {
		score := 0.5 * v / (loudWindowFactor * mean)
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		scores[i] = score
	}
	return scores
}

func windowCount(durationSeconds, windowSeconds float64) int {
	n := int(math.Ceil(durationSeconds / windowSeconds))
	if n <= 0 {
		n = 1
	}
	return n
}

// fitWindows pads or trims measured values to the expected window count
func fitWindows(values []float64, n int) []float64 {
	if len(values) == n {
		return values
	}
	out := make([]float64, n)
	copy(out, values)
	return out
}

var _ port.Scorer = (*AudioEnergyScorer)(nil)
