package service

import (
	"context"
	"math"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// SelectionService picks highlight segments from an asset
type SelectionService interface {
	// Select returns up to desiredCount segments within [minSec, maxSec].
	// Fewer segments than requested is a valid degraded result.
	Select(ctx context.Context, asset *vo.MediaAsset, desiredCount int, minSec, maxSec float64) ([]vo.Segment, error)
}

// Default combination weights per scorer, from tuning on real footage.
// Config overrides per name, unlisted scorers weigh 1.0.
var defaultScorerWeights = map[string]float64{
	vo.EvidenceAudioEnergy: 0.7,
	vo.EvidenceSceneChange: 0.8,
	vo.EvidenceUniform:     0.3,
}

// uniformFallbackScore score assigned to fallback segments so any signal
// candidate outranks them
const uniformFallbackScore = 0.3

type selectionServiceImpl struct {
	scorers *port.ScorerRegistry
	cfg     *config.Config
}

// NewSelectionService creates the segment selector
func NewSelectionService(scorers *port.ScorerRegistry, cfg *config.Config) SelectionService {
	return &selectionServiceImpl{
		scorers: scorers,
		cfg:     cfg,
	}
}

// candidate run of adjacent high-score windows before bounds enforcement
type candidate struct {
	start    float64
	end      float64
	score    float64
	evidence string
}

func (s *selectionServiceImpl) Select(ctx context.Context, asset *vo.MediaAsset, desiredCount int, minSec, maxSec float64) ([]vo.Segment, error) {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	duration := asset.DurationSeconds
	if duration < minSec {
		return nil, vo.ErrInsufficientSignal
	}

	sel := s.cfg.Pipeline.Selection
	windowSec := sel.WindowSeconds
	if windowSec <= 0 {
		windowSec = 1.0
	}

	combined, perScorer, names := s.scoreWindows(ctx, asset, windowSec, duration)

	candidates := mergeHighWindows(combined, perScorer, names, s.weights(names), windowSec, duration, sel.ScoreThreshold)
	candidates = enforceBounds(candidates, minSec, maxSec, duration)

	selected := pickNonOverlapping(candidates, desiredCount)

	if len(selected) < desiredCount && sel.UniformFallback {
		selected = s.fillUniform(selected, desiredCount, minSec, maxSec, duration, sel.EdgeExclusion)
	}

	// An asset exactly at the minimum bound has no interior room for the
	// fallback. One maximal segment is still a correct answer.
	if len(selected) == 0 {
		selected = append(selected, vo.Segment{
			StartSeconds: 0,
			EndSeconds:   math.Min(duration, maxSec),
			Score:        uniformFallbackScore,
			Evidence:     vo.EvidenceUniform,
		})
	}

	vo.SortSegments(selected)
	if len(selected) > desiredCount {
		selected = selected[:desiredCount]
	}

	logger.Infof("segments selected source_id=%s requested=%d selected=%d duration=%.1fs",
		asset.SourceID, desiredCount, len(selected), duration)
	return selected, nil
}

// scoreWindows runs every registered scorer and combines scores by weighted
// average. Scorers that fail are skipped, their weight drops out.
func (s *selectionServiceImpl) scoreWindows(ctx context.Context, asset *vo.MediaAsset, windowSec, duration float64) ([]float64, map[string][]float64, []string) {
	numWindows := int(math.Ceil(duration / windowSec))
	if numWindows <= 0 {
		numWindows = 1
	}

	perScorer := make(map[string][]float64)
	var names []string
	for _, scorer := range s.scorers.All() {
		scores, err := scorer.ScoreWindows(ctx, asset, windowSec)
		if err != nil {
			logger.Warnf("scorer failed, skipping name=%s source_id=%s error=%v", scorer.Name(), asset.SourceID, err)
			continue
		}
		scores = fitLength(scores, numWindows)
		perScorer[scorer.Name()] = scores
		names = append(names, scorer.Name())
	}

	weights := s.weights(names)
	combined := make([]float64, numWindows)
	var totalWeight float64
	for _, name := range names {
		totalWeight += weights[name]
	}
	if totalWeight <= 0 {
		return combined, perScorer, names
	}
	for i := 0; i < numWindows; i++ {
		var sum float64
		for _, name := range names {
			sum += perScorer[name][i] * weights[name]
		}
		combined[i] = clamp01(sum / totalWeight)
	}
	return combined, perScorer, names
}

// weights resolves the combination weight for each scorer name
func (s *selectionServiceImpl) weights(names []string) map[string]float64 {
	out := make(map[string]float64, len(names))
	configured := s.cfg.Pipeline.Selection.ScorerWeights
	for _, name := range names {
		if w, ok := configured[name]; ok && w > 0 {
			out[name] = w
			continue
		}
		if w, ok := defaultScorerWeights[name]; ok {
			out[name] = w
			continue
		}
		out[name] = 1.0
	}
	return out
}

// mergeHighWindows folds adjacent windows above the threshold into candidates
func mergeHighWindows(combined []float64, perScorer map[string][]float64, names []string, weights map[string]float64, windowSec, duration, threshold float64) []candidate {
	if threshold <= 0 {
		threshold = 0.5
	}
	var out []candidate
	runStart := -1
	for i := 0; i <= len(combined); i++ {
		above := i < len(combined) && combined[i] >= threshold
		if above && runStart < 0 {
			runStart = i
			continue
		}
		if !above && runStart >= 0 {
			out = append(out, buildCandidate(combined, perScorer, names, weights, runStart, i, windowSec, duration))
			runStart = -1
		}
	}
	return out
}

// buildCandidate turns a run of windows [from, to) into a scored candidate
func buildCandidate(combined []float64, perScorer map[string][]float64, names []string, weights map[string]float64, from, to int, windowSec, duration float64) candidate {
	var sum float64
	for i := from; i < to; i++ {
		sum += combined[i]
	}
	score := clamp01(sum / float64(to-from))

	// Evidence names the scorer that contributed most over the run.
	evidence := vo.EvidenceUniform
	best := -1.0
	for _, name := range names {
		var s float64
		for i := from; i < to; i++ {
			s += perScorer[name][i]
		}
		contribution := (s / float64(to-from)) * weights[name]
		if contribution > best {
			best = contribution
			evidence = name
		}
	}

	return candidate{
		start:    float64(from) * windowSec,
		end:      math.Min(float64(to)*windowSec, duration),
		score:    score,
		evidence: evidence,
	}
}

// enforceBounds trims long candidates to max and stretches short ones to
// min when the asset leaves room. Candidates that still miss min are dropped.
func enforceBounds(candidates []candidate, minSec, maxSec, duration float64) []candidate {
	out := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.end-c.start > maxSec {
			c.end = c.start + maxSec
		}
		if c.end-c.start < minSec {
			if c.start+minSec <= duration {
				c.end = c.start + minSec
			} else if c.end-minSec >= 0 {
				c.start = c.end - minSec
			}
		}
		if c.end-c.start < minSec {
			continue
		}
		out = append(out, c)
	}
	return out
}

// pickNonOverlapping keeps the best candidates, highest score first, ties
// by earlier start, suppressing anything that overlaps a kept one
func pickNonOverlapping(candidates []candidate, desiredCount int) []vo.Segment {
	segments := make([]vo.Segment, 0, len(candidates))
	for _, c := range candidates {
		segments = append(segments, vo.Segment{
			StartSeconds: c.start,
			EndSeconds:   c.end,
			Score:        c.score,
			Evidence:     c.evidence,
		})
	}
	vo.SortSegments(segments)

	kept := make([]vo.Segment, 0, desiredCount)
	for _, seg := range segments {
		if len(kept) >= desiredCount {
			break
		}
		if overlapsAny(seg, kept) {
			continue
		}
		kept = append(kept, seg)
	}
	return kept
}

// fillUniform adds evenly distributed segments from the middle of the asset
// until the requested count is reached. The first and last edge fraction of
// the asset are excluded, a tail segment may be trimmed down to 80% of the
// target length but never below the minimum bound.
func (s *selectionServiceImpl) fillUniform(selected []vo.Segment, desiredCount int, minSec, maxSec, duration, edge float64) []vo.Segment {
	if edge <= 0 || edge >= 0.5 {
		edge = 0.1
	}
	usableStart := duration * edge
	usableEnd := duration * (1 - edge)
	usable := usableEnd - usableStart
	if usable <= 0 {
		return selected
	}

	target := maxSec
	step := usable / float64(desiredCount)
	for i := 0; i < desiredCount && len(selected) < desiredCount; i++ {
		start := usableStart + float64(i)*step
		end := math.Min(start+target, duration)
		// Summing start and target can overshoot the bound by an ulp.
		for end-start > maxSec {
			end = math.Nextafter(end, start)
		}
		length := end - start
		if length < 0.8*target || length < minSec {
			continue
		}
		seg := vo.Segment{
			StartSeconds: start,
			EndSeconds:   end,
			Score:        uniformFallbackScore,
			Evidence:     vo.EvidenceUniform,
		}
		if overlapsAny(seg, selected) {
			continue
		}
		selected = append(selected, seg)
	}
	return selected
}

func overlapsAny(seg vo.Segment, others []vo.Segment) bool {
	for _, o := range others {
		if seg.Overlaps(o) {
			return true
		}
	}
	return false
}

func fitLength(scores []float64, n int) []float64 {
	if len(scores) == n {
		return scores
	}
	out := make([]float64, n)
	copy(out, scores)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
