package port

import (
	"context"
	"sync"

	"highlight-service/ddd/domain/vo"
)

// Scorer assigns an interest score to each fixed-size window of an asset.
// The returned slice has one value in [0,1] per window, first window at
// t=0. A scorer that cannot analyze the asset returns an error and is
// skipped by the selector.
type Scorer interface {
	// Name identifies the scorer; it doubles as the evidence label.
	Name() string

	// ScoreWindows scores ceil(duration/windowSeconds) windows.
	ScoreWindows(ctx context.Context, asset *vo.MediaAsset, windowSeconds float64) ([]float64, error)
}

// ScorerRegistry holds the scorers consulted during selection.
type ScorerRegistry struct {
	mu      sync.RWMutex
	scorers []Scorer
}

func NewScorerRegistry() *ScorerRegistry {
	return &ScorerRegistry{}
}

// Register appends a scorer
func (r *ScorerRegistry) Register(s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers = append(r.scorers, s)
}

// All returns the registered scorers in registration order
func (r *ScorerRegistry) All() []Scorer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scorer, len(r.scorers))
	copy(out, r.scorers)
	return out
}

// Len reports how many scorers are registered
func (r *ScorerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scorers)
}
