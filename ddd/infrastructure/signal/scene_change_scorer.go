package signal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
)

const (
	// sceneCaptureFloor scene scores below this are noise and not captured
	sceneCaptureFloor = 0.1
	// sceneCutLevel a scene score at this level counts as a full hard cut
	sceneCutLevel = 0.4
)

// SceneChangeScorer scores windows by visual activity. Windows containing a
// hard cut score 1, gradual changes score proportionally, static footage 0.
type SceneChangeScorer struct {
	cfg *config.Config
}

func NewSceneChangeScorer(cfg *config.Config) *SceneChangeScorer {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	return &SceneChangeScorer{cfg: cfg}
}

func (s *SceneChangeScorer) Name() string {
	return vo.EvidenceSceneChange
}

// ScoreWindows detects scene changes with ffmpeg's select filter and scores
// each window by the strongest change it contains.
func (s *SceneChangeScorer) ScoreWindows(ctx context.Context, asset *vo.MediaAsset, windowSeconds float64) ([]float64, error) {
	if windowSeconds <= 0 {
		windowSeconds = 1.0
	}
	numWindows := windowCount(asset.DurationSeconds, windowSeconds)

	changes, err := s.detectSceneChanges(ctx, asset.LocalPath)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, numWindows)
	for _, change := range changes {
		idx := int(change.atSeconds / windowSeconds)
		if idx < 0 || idx >= numWindows {
			continue
		}
		score := change.score / sceneCutLevel
		if score > 1 {
			score = 1
		}
		if score > scores[idx] {
			scores[idx] = score
		}
	}
	return scores, nil
}

type sceneChange struct {
	atSeconds float64
	score     float64
}

// detectSceneChanges prints frames whose scene score exceeds the capture
// floor and parses their timestamps and scores.
func (s *SceneChangeScorer) detectSceneChanges(ctx context.Context, path string) ([]sceneChange, error) {
	filter := fmt.Sprintf("select='gt(scene,%g)',metadata=print:key=lavfi.scene_score:file=-", sceneCaptureFloor)

	binary := "ffmpeg"
	if s.cfg != nil && s.cfg.Pipeline.FFmpeg.BinaryPath != "" {
		binary = s.cfg.Pipeline.FFmpeg.BinaryPath
	}
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner",
		"-i", path,
		"-an",
		"-vf", filter,
		"-f", "null", "-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg scene detect: %w", err)
	}

	changes := parseSceneChanges(stdout)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg scene detect: %w", err)
	}
	return changes, nil
}

// parseSceneChanges reads metadata print output, pairing each frame header
// `frame:N pts:P pts_time:T` with its following `lavfi.scene_score=V` line.
func parseSceneChanges(r io.Reader) []sceneChange {
	var changes []sceneChange
	var pendingTime float64
	var havePending bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "frame:") {
			if idx := strings.Index(line, "pts_time:"); idx >= 0 {
				raw := strings.TrimSpace(line[idx+len("pts_time:"):])
				if t, err := strconv.ParseFloat(raw, 64); err == nil {
					pendingTime = t
					havePending = true
				}
			}
			continue
		}

		if strings.HasPrefix(line, "lavfi.scene_score=") && havePending {
			raw := strings.TrimPrefix(line, "lavfi.scene_score=")
			if score, err := strconv.ParseFloat(raw, 64); err == nil {
				changes = append(changes, sceneChange{atSeconds: pendingTime, score: score})
			}
			havePending = false
		}
	}
	return changes
}

var _ port.Scorer = (*SceneChangeScorer)(nil)
