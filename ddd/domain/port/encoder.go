package port

import (
	"context"

	"highlight-service/ddd/domain/vo"
)

// ProgressCallback is invoked by adapters to report percentage progress (0-100).
type ProgressCallback func(progress int)

// EncodeOptions controls encoder behaviour.
type EncodeOptions struct {
	ProgressCb  ProgressCallback
	TimeoutSecs int
}

// EncodeResult facts about a finished encode.
type EncodeResult struct {
	OutputPath      string
	DurationSeconds float64
	SizeBytes       int64
	Width           int
	Height          int
}

// ClipEncoder renders one segment of a local asset into an output file.
type ClipEncoder interface {
	Encode(ctx context.Context, asset *vo.MediaAsset, spec *vo.ClipSpec, outputPath string, opts EncodeOptions) (*EncodeResult, error)
}

// ProbeResult container facts reported by the prober.
type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
	Codec           string
	Format          string
	SizeBytes       int64
}

// MediaProber inspects a local media file. Used for fetch integrity checks
// and for measuring rendered clips.
type MediaProber interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}
