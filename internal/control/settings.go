// Package control holds the runtime-mutable configuration of the depth pipeline
// and the input events that change it.
package control

import "github.com/ayusman/depthportrait/internal/segment"

// Threshold and tilt limits.
const (
	MinThreshold = 0
	MaxThreshold = 255
	MinTilt      = -30
	MaxTilt      = 30
)

// Defaults used on first start.
const (
	DefaultNearThreshold     = 230
	DefaultFarThreshold      = 100
	DefaultBlobAreaThreshold = 10000
	DefaultTiltAngle         = 18
)

// Settings is the complete runtime configuration consumed by the frame loop.
// Values are replaced as a whole between frames; nothing mutates a Settings
// in place.
type Settings struct {
	NearThreshold     int              `json:"near_threshold"`
	FarThreshold      int              `json:"far_threshold"`
	BlobAreaThreshold int              `json:"blob_area_threshold"`
	TiltAngle         int              `json:"tilt_angle"`
	ShowDepth         bool             `json:"show_depth"`
	PointCloud        bool             `json:"point_cloud"`
	NearPolarity      segment.Polarity `json:"near_polarity"`
	FarPolarity       segment.Polarity `json:"far_polarity"`
}

// Default returns the startup configuration.
func Default() Settings {
	return Settings{
		NearThreshold:     DefaultNearThreshold,
		FarThreshold:      DefaultFarThreshold,
		BlobAreaThreshold: DefaultBlobAreaThreshold,
		TiltAngle:         DefaultTiltAngle,
		NearPolarity:      segment.Inverted,
		FarPolarity:       segment.Normal,
	}
}

// Apply returns the settings that result from handling a single input event.
// Unknown events return s unchanged.
func (s Settings) Apply(e Event) Settings {
	switch e {
	case FarUp:
		s.FarThreshold = clamp(s.FarThreshold+1, MinThreshold, MaxThreshold)
	case FarDown:
		s.FarThreshold = clamp(s.FarThreshold-1, MinThreshold, MaxThreshold)
	case NearUp:
		s.NearThreshold = clamp(s.NearThreshold+1, MinThreshold, MaxThreshold)
	case NearDown:
		s.NearThreshold = clamp(s.NearThreshold-1, MinThreshold, MaxThreshold)
	case ToggleDepth:
		s.ShowDepth = !s.ShowDepth
	case TogglePointCloud:
		s.PointCloud = !s.PointCloud
	case TiltUp:
		s.TiltAngle = clamp(s.TiltAngle+1, MinTilt, MaxTilt)
	case TiltDown:
		s.TiltAngle = clamp(s.TiltAngle-1, MinTilt, MaxTilt)
	}
	return s
}

// Normalize clamps every field into its valid range. Settings coming from
// storage or the HTTP API pass through here before they reach the pipeline.
func (s Settings) Normalize() Settings {
	s.NearThreshold = clamp(s.NearThreshold, MinThreshold, MaxThreshold)
	s.FarThreshold = clamp(s.FarThreshold, MinThreshold, MaxThreshold)
	s.TiltAngle = clamp(s.TiltAngle, MinTilt, MaxTilt)
	if s.BlobAreaThreshold < 0 {
		s.BlobAreaThreshold = 0
	}
	if !s.NearPolarity.Valid() {
		s.NearPolarity = segment.Inverted
	}
	if !s.FarPolarity.Valid() {
		s.FarPolarity = segment.Normal
	}
	return s
}

// NearPass returns the near-plane threshold pass.
func (s Settings) NearPass() segment.Pass {
	return segment.Pass{Threshold: s.NearThreshold, Polarity: s.NearPolarity}
}

// FarPass returns the far-plane threshold pass.
func (s Settings) FarPass() segment.Pass {
	return segment.Pass{Threshold: s.FarThreshold, Polarity: s.FarPolarity}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
