package quality

import "github.com/Carmen-Shannon/vista-go/common"

// FullShadowMapResolution is the width and height in texels of the shadow
// depth texture at quality level 1.0. Lower levels scale it down linearly,
// snapped to a multiple of 256 so depth texture rows stay aligned.
const FullShadowMapResolution = 2048

// minShadowMapResolution is the floor below which shadows become useless
// blobs; DeriveSettings never goes under it.
const minShadowMapResolution = 256

// minPixelDensity is the render-scale floor at quality level 0.
const minPixelDensity float32 = 0.5

// Effect gate thresholds: each effect turns on once the quality level reaches
// its threshold, cheapest effect first.
const (
	bloomThreshold       float32 = 0.6
	ssaoThreshold        float32 = 0.7
	softShadowsThreshold float32 = 0.8
)

// Settings holds the concrete rendering knobs derived from a quality level.
// Consumed by the renderer and shadow subsystem; never mutated by them.
type Settings struct {
	// PixelDensity is the render-target scale relative to the window surface,
	// in [minPixelDensity, 1.0].
	PixelDensity float32

	// ShadowMapResolution is the shadow depth texture size in texels.
	ShadowMapResolution int

	// Bloom, SSAO, and SoftShadows gate the corresponding post/shadow effects.
	Bloom       bool
	SSAO        bool
	SoftShadows bool
}

// DeriveSettings maps a quality level to concrete settings. The mapping is
// deterministic: the same level always yields the same settings, so the
// renderer can compare successive Settings values to detect changes.
//
// Parameters:
//   - level: the quality level in [0, 1]
//
// Returns:
//   - Settings: the derived settings
func DeriveSettings(level float32) Settings {
	level = common.Clamp(level, 0, 1)

	shadowRes := int(level * FullShadowMapResolution)
	shadowRes -= shadowRes % 256
	if shadowRes < minShadowMapResolution {
		shadowRes = minShadowMapResolution
	}

	return Settings{
		PixelDensity:        common.Lerp(minPixelDensity, 1, level),
		ShadowMapResolution: shadowRes,
		Bloom:               level >= bloomThreshold,
		SSAO:                level >= ssaoThreshold,
		SoftShadows:         level >= softShadowsThreshold,
	}
}
