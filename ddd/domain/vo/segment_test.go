package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegmentValidation(t *testing.T) {
	seg, err := NewSegment(10, 25, 0.8, EvidenceAudioEnergy)
	require.NoError(t, err)
	assert.Equal(t, 15.0, seg.DurationSeconds())
	assert.Equal(t, EvidenceAudioEnergy, seg.Evidence)

	_, err = NewSegment(-1, 10, 0.5, EvidenceUniform)
	assert.Error(t, err)

	_, err = NewSegment(10, 10, 0.5, EvidenceUniform)
	assert.Error(t, err)

	_, err = NewSegment(20, 10, 0.5, EvidenceUniform)
	assert.Error(t, err)

	_, err = NewSegment(0, 10, 1.2, EvidenceUniform)
	assert.Error(t, err)

	_, err = NewSegment(0, 10, -0.1, EvidenceUniform)
	assert.Error(t, err)
}

func TestSegmentOverlaps(t *testing.T) {
	a := Segment{StartSeconds: 10, EndSeconds: 20}

	assert.True(t, a.Overlaps(Segment{StartSeconds: 15, EndSeconds: 25}))
	assert.True(t, a.Overlaps(Segment{StartSeconds: 5, EndSeconds: 15}))
	assert.True(t, a.Overlaps(Segment{StartSeconds: 12, EndSeconds: 18}))
	assert.True(t, a.Overlaps(Segment{StartSeconds: 5, EndSeconds: 25}))

	// Touching endpoints share no interval.
	assert.False(t, a.Overlaps(Segment{StartSeconds: 20, EndSeconds: 30}))
	assert.False(t, a.Overlaps(Segment{StartSeconds: 0, EndSeconds: 10}))
	assert.False(t, a.Overlaps(Segment{StartSeconds: 30, EndSeconds: 40}))
}

func TestSortSegmentsScoreDescThenStart(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 50, EndSeconds: 60, Score: 0.7},
		{StartSeconds: 10, EndSeconds: 20, Score: 0.9},
		{StartSeconds: 30, EndSeconds: 40, Score: 0.7},
		{StartSeconds: 0, EndSeconds: 5, Score: 0.2},
	}

	SortSegments(segments)

	assert.Equal(t, 10.0, segments[0].StartSeconds)
	// Equal scores break by earlier start.
	assert.Equal(t, 30.0, segments[1].StartSeconds)
	assert.Equal(t, 50.0, segments[2].StartSeconds)
	assert.Equal(t, 0.0, segments[3].StartSeconds)
}

func TestSortSegmentsByStart(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 50, EndSeconds: 60, Score: 0.9},
		{StartSeconds: 10, EndSeconds: 20, Score: 0.1},
		{StartSeconds: 30, EndSeconds: 40, Score: 0.5},
	}

	SortSegmentsByStart(segments)

	assert.Equal(t, []float64{10, 30, 50}, []float64{
		segments[0].StartSeconds, segments[1].StartSeconds, segments[2].StartSeconds,
	})
}
