package vo

import "fmt"

// Platform identifiers understood by the publish scheduler.
const (
	PlatformTikTok         = "tiktok"
	PlatformInstagramReels = "instagram_reels"
	PlatformYouTubeShorts  = "youtube_shorts"
	PlatformTwitter        = "twitter"
)

// PlatformSpec delivery constraints of a publish platform
type PlatformSpec struct {
	Platform           string
	RequiredAspect     AspectMode
	MaxDurationSeconds float64
	OptimalMinSeconds  float64
	OptimalMaxSeconds  float64
	Width              int
	Height             int
	VideoBitrate       string
	Framerate          int
	DefaultHours       []int
}

var platformSpecs = map[string]PlatformSpec{
	PlatformTikTok: {
		Platform:           PlatformTikTok,
		RequiredAspect:     AspectModeMobile,
		MaxDurationSeconds: 180,
		OptimalMinSeconds:  15,
		OptimalMaxSeconds:  60,
		Width:              1080,
		Height:             1920,
		VideoBitrate:       "3000k",
		Framerate:          30,
		DefaultHours:       []int{13, 16, 19, 22},
	},
	PlatformInstagramReels: {
		Platform:           PlatformInstagramReels,
		RequiredAspect:     AspectModeMobile,
		MaxDurationSeconds: 90,
		OptimalMinSeconds:  15,
		OptimalMaxSeconds:  30,
		Width:              1080,
		Height:             1920,
		VideoBitrate:       "3500k",
		Framerate:          30,
		DefaultHours:       []int{11, 14, 17, 20},
	},
	PlatformYouTubeShorts: {
		Platform:           PlatformYouTubeShorts,
		RequiredAspect:     AspectModeMobile,
		MaxDurationSeconds: 60,
		OptimalMinSeconds:  30,
		OptimalMaxSeconds:  60,
		Width:              1080,
		Height:             1920,
		VideoBitrate:       "4000k",
		Framerate:          60,
		DefaultHours:       []int{12, 15, 18, 21},
	},
	PlatformTwitter: {
		Platform:           PlatformTwitter,
		RequiredAspect:     AspectModeNative,
		MaxDurationSeconds: 140,
		OptimalMinSeconds:  6,
		OptimalMaxSeconds:  30,
		Width:              1280,
		Height:             720,
		VideoBitrate:       "2000k",
		Framerate:          30,
		DefaultHours:       []int{9, 12, 18, 21},
	},
}

// GetPlatformSpec looks up the constraint table for a platform id
func GetPlatformSpec(platform string) (PlatformSpec, bool) {
	spec, ok := platformSpecs[platform]
	return spec, ok
}

// KnownPlatforms lists every platform in the constraint table
func KnownPlatforms() []string {
	return []string{PlatformTikTok, PlatformInstagramReels, PlatformYouTubeShorts, PlatformTwitter}
}

// ValidateClip checks a rendered clip against the platform constraints
func (p PlatformSpec) ValidateClip(aspect AspectMode, durationSeconds float64) error {
	if durationSeconds <= 0 {
		return fmt.Errorf("clip duration must be positive: %.3f", durationSeconds)
	}
	if durationSeconds > p.MaxDurationSeconds {
		return fmt.Errorf("clip duration %.1fs exceeds %s limit of %.0fs",
			durationSeconds, p.Platform, p.MaxDurationSeconds)
	}
	if p.RequiredAspect != "" && aspect != p.RequiredAspect {
		return fmt.Errorf("platform %s requires aspect %s, clip is %s",
			p.Platform, p.RequiredAspect, aspect)
	}
	return nil
}
