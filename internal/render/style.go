package render

import (
	"image/color"
	"math"
)

const (
	// referenceShortSide is the canvas short side at which the base sizes apply.
	referenceShortSide = 1500.0
	baseLineWidth      = 6.0
	baseMarkerRadius   = 30.0
	minStyleScale      = 0.25

	// overlayOpacity is applied to the whole course layer when it is
	// composited onto the map.
	overlayOpacity = 0.7
)

// Style holds the pixel sizes used to draw courses on one canvas.
type Style struct {
	LineWidth    float64
	MarkerRadius float64
	// FinishRadius is the radius of the inner finish ring.
	FinishRadius float64
	LabelSize    float64
}

// NewStyle scales the base sizes to a width x height canvas.
func NewStyle(width, height int) Style {
	short := math.Min(float64(width), float64(height))
	scale := math.Max(short/referenceShortSide, minStyleScale)
	return Style{
		LineWidth:    baseLineWidth * scale,
		MarkerRadius: baseMarkerRadius * scale,
		FinishRadius: baseMarkerRadius * scale * 2 / 3,
		LabelSize:    baseMarkerRadius * scale * 1.2,
	}
}

// Courses are drawn in fully saturated colours of one lightness.
const (
	paletteStartHue  = 300.0
	paletteHueStep   = 137.508
	paletteLightness = 0.30
)

// CourseColor returns the colour of the i-th course on a canvas. Course 0 is
// the purple overprint colour, later courses step the hue by the golden
// angle.
func CourseColor(i int) color.RGBA {
	hue := paletteStartHue + float64(i)*paletteHueStep
	return color.RGBA{
		R: hueChannel(hue + 120),
		G: hueChannel(hue),
		B: hueChannel(hue - 120),
		A: 0xFF,
	}
}

// hueChannel is one RGB component of the palette colour, given the hue in
// degrees shifted for that component. With full saturation and lightness
// at most one half the component ramps from zero to twice the lightness.
func hueChannel(deg float64) uint8 {
	t := math.Mod(deg, 360)
	if t < 0 {
		t += 360
	}
	var w float64
	switch {
	case t < 60:
		w = t / 60
	case t < 180:
		w = 1
	case t < 240:
		w = (240 - t) / 60
	}
	return uint8(math.Round(w * 2 * paletteLightness * 255))
}
