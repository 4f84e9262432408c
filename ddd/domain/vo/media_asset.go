package vo

import "fmt"

// MediaAsset fetched source video resolved to a local file
type MediaAsset struct {
	SourceID        string
	SourceURL       string
	LocalPath       string
	Title           string
	DurationSeconds float64
	Width           int
	Height          int
	SizeBytes       int64
	Format          string
	Cached          bool
}

// Validate checks the asset is usable for selection and rendering
func (a *MediaAsset) Validate() error {
	if a.LocalPath == "" {
		return fmt.Errorf("media asset has no local path")
	}
	if a.DurationSeconds <= 0 {
		return fmt.Errorf("media asset duration must be positive: %.3f", a.DurationSeconds)
	}
	if a.SizeBytes <= 0 {
		return fmt.Errorf("media asset is empty: %d bytes", a.SizeBytes)
	}
	return nil
}

// IsPortrait checks whether the source is already taller than wide
func (a *MediaAsset) IsPortrait() bool {
	return a.Height > a.Width
}
