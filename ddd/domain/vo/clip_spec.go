package vo

import (
	"fmt"
)

// AspectMode output framing of a rendered clip
type AspectMode string

const (
	// AspectModeNative keeps the source aspect ratio
	AspectModeNative AspectMode = "native"
	// AspectModeMobile center-crops to a 9:16 portrait frame
	AspectModeMobile AspectMode = "mobile_9x16"
)

// IsValid checks whether the aspect mode is supported
func (m AspectMode) IsValid() bool {
	return m == AspectModeNative || m == AspectModeMobile
}

// String returns the aspect mode string
func (m AspectMode) String() string {
	return string(m)
}

// QualityTier named output quality preset
type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
	QualityUltra  QualityTier = "ultra"
)

// IsValid checks whether the quality tier is supported
func (q QualityTier) IsValid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh, QualityUltra:
		return true
	default:
		return false
	}
}

// String returns the quality tier string
func (q QualityTier) String() string {
	return string(q)
}

// QualityPreset concrete encoder settings for a quality tier
type QualityPreset struct {
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
}

var qualityPresets = map[QualityTier]QualityPreset{
	QualityLow:    {Width: 854, Height: 480, VideoBitrate: "1000k", AudioBitrate: "96k"},
	QualityMedium: {Width: 1280, Height: 720, VideoBitrate: "2500k", AudioBitrate: "128k"},
	QualityHigh:   {Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
	QualityUltra:  {Width: 3840, Height: 2160, VideoBitrate: "15000k", AudioBitrate: "192k"},
}

// Preset resolves the encoder settings for the tier, medium when unknown
func (q QualityTier) Preset() QualityPreset {
	if p, ok := qualityPresets[q]; ok {
		return p
	}
	return qualityPresets[QualityMedium]
}

// PortraitSize returns the preset dimensions rotated for a 9:16 frame
func (p QualityPreset) PortraitSize() (width, height int) {
	return p.Height, p.Width
}

// ClipSpec rendering request for one segment of a task
type ClipSpec struct {
	Index        int
	StartSeconds float64
	EndSeconds   float64
	Aspect       AspectMode
	Quality      QualityTier
}

// NewClipSpec builds a validated clip spec
func NewClipSpec(index int, startSeconds, endSeconds float64, aspect AspectMode, quality QualityTier) (*ClipSpec, error) {
	if index < 0 {
		return nil, fmt.Errorf("clip index must not be negative: %d", index)
	}
	if startSeconds < 0 {
		return nil, fmt.Errorf("clip start must not be negative: %.3f", startSeconds)
	}
	if endSeconds <= startSeconds {
		return nil, fmt.Errorf("clip end %.3f must be after start %.3f", endSeconds, startSeconds)
	}
	if !aspect.IsValid() {
		return nil, fmt.Errorf("unsupported aspect mode: %s", aspect)
	}
	if !quality.IsValid() {
		return nil, fmt.Errorf("unsupported quality tier: %s", quality)
	}
	return &ClipSpec{
		Index:        index,
		StartSeconds: startSeconds,
		EndSeconds:   endSeconds,
		Aspect:       aspect,
		Quality:      quality,
	}, nil
}

// DurationSeconds length of the requested clip
func (c *ClipSpec) DurationSeconds() float64 {
	return c.EndSeconds - c.StartSeconds
}
