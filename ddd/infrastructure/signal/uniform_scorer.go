package signal

import (
	"context"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
)

// uniformBaseScore constant contribution per window
const uniformBaseScore = 1.0

// UniformScorer gives every window the same score. Under its low default
// weight it acts as a floor in the combined score so footage without audio
// or cuts still produces candidates through the fallback path.
type UniformScorer struct{}

func NewUniformScorer() *UniformScorer {
	return &UniformScorer{}
}

func (s *UniformScorer) Name() string {
	return vo.EvidenceUniform
}

func (s *UniformScorer) ScoreWindows(_ context.Context, asset *vo.MediaAsset, windowSeconds float64) ([]float64, error) {
	if windowSeconds <= 0 {
		windowSeconds = 1.0
	}
	scores := make([]float64, windowCount(asset.DurationSeconds, windowSeconds))
	for i := range scores {
		scores[i] = uniformBaseScore
	}
	return scores, nil
}

var _ port.Scorer = (*UniformScorer)(nil)
