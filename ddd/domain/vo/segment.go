package vo

import (
	"fmt"
	"sort"
)

// Segment scored candidate interval within a source asset
type Segment struct {
	StartSeconds float64
	EndSeconds   float64
	Score        float64
	Evidence     string
}

// Segment evidence labels, matching the registered scorer names.
const (
	EvidenceAudioEnergy = "audio-energy"
	EvidenceSceneChange = "scene-change"
	EvidenceUniform     = "uniform"
)

// NewSegment builds a validated segment
func NewSegment(startSeconds, endSeconds, score float64, evidence string) (*Segment, error) {
	if startSeconds < 0 {
		return nil, fmt.Errorf("segment start must not be negative: %.3f", startSeconds)
	}
	if endSeconds <= startSeconds {
		return nil, fmt.Errorf("segment end %.3f must be after start %.3f", endSeconds, startSeconds)
	}
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("segment score must be within [0,1]: %.3f", score)
	}
	return &Segment{
		StartSeconds: startSeconds,
		EndSeconds:   endSeconds,
		Score:        score,
		Evidence:     evidence,
	}, nil
}

// DurationSeconds length of the segment
func (s Segment) DurationSeconds() float64 {
	return s.EndSeconds - s.StartSeconds
}

// Overlaps checks whether two segments share any interval
func (s Segment) Overlaps(other Segment) bool {
	return s.StartSeconds < other.EndSeconds && other.StartSeconds < s.EndSeconds
}

// SortSegments orders segments by descending score, ties broken by earlier start.
// Stable so equal candidates keep their discovery order.
func SortSegments(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Score != segments[j].Score {
			return segments[i].Score > segments[j].Score
		}
		return segments[i].StartSeconds < segments[j].StartSeconds
	})
}

// SortSegmentsByStart orders segments chronologically
func SortSegmentsByStart(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartSeconds < segments[j].StartSeconds
	})
}
