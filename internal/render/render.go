// Package render draws orienteering courses onto a georeferenced map image.
//
// Rendering is split into three independent steps: Plan lays the courses out
// in pixel space, the painter rasterises the plan onto a transparent overlay
// that is composited onto a copy of the map, and OutputBounds works out where
// the final canvas sits in the world.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"livelox_dl/internal/geo"
)

// ErrRenderFailure is returned when the map cannot be drawn on.
var ErrRenderFailure = errors.New("render failure")

// Options toggles optional rendering features. The zero value draws the
// courses over the whole map without labels.
type Options struct {
	// Labels writes the control sequence numbers next to interior controls.
	Labels bool
	// CropToRoutes crops the canvas to the drawn courses plus CropMargin
	// pixels on every side.
	CropToRoutes bool
	CropMargin   int
}

// Result is a rendered map and the world position of its corners.
type Result struct {
	Image  *image.RGBA
	Bounds geo.Quad
}

// Render draws routes onto a copy of src. The canvas is src scaled by 1/res;
// quad locates src (and therefore the canvas) in the world. src is never
// modified.
func Render(src image.Image, quad geo.Quad, res geo.Resolution, routes []geo.Route, opts Options) (*Result, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrRenderFailure)
	}
	sb := src.Bounds()
	w, h, err := geo.CanvasSize(sb.Dx(), sb.Dy(), res)
	if err != nil {
		return nil, err
	}
	m, err := geo.NewMapper(quad, w, h)
	if err != nil {
		return nil, err
	}

	canvas := newCanvas(src, w, h)
	st := NewStyle(w, h)
	plans := Plan(routes, m, st)

	if extent, ok := Extent(plans, st); ok {
		overlay := image.NewRGBA(canvas.Bounds())
		drawPlans(overlay, plans, st)
		if opts.Labels {
			drawLabels(overlay, plans, st)
		}
		composite(canvas, overlay, overlayOpacity)

		if opts.CropToRoutes {
			crop := extent.Inset(-opts.CropMargin).Intersect(canvas.Bounds())
			if !crop.Empty() && crop != canvas.Bounds() {
				return &Result{Image: cropCanvas(canvas, crop), Bounds: OutputBounds(m, crop)}, nil
			}
		}
	}

	return &Result{Image: canvas, Bounds: OutputBounds(m, canvas.Bounds())}, nil
}

// OutputBounds returns the world corners of the crop rectangle on the canvas
// described by m, in Quad order. An uncropped canvas returns m's quad as is.
func OutputBounds(m *geo.Mapper, crop image.Rectangle) geo.Quad {
	w, h := m.Size()
	if crop == image.Rect(0, 0, w, h) {
		return m.Quad()
	}
	x0, y0 := float64(crop.Min.X), float64(crop.Min.Y)
	x1, y1 := float64(crop.Max.X), float64(crop.Max.Y)
	return geo.Quad{
		geo.TopLeft:     m.ToGeo(geo.PixelPoint{X: x0, Y: y0}),
		geo.TopRight:    m.ToGeo(geo.PixelPoint{X: x1, Y: y0}),
		geo.BottomRight: m.ToGeo(geo.PixelPoint{X: x1, Y: y1}),
		geo.BottomLeft:  m.ToGeo(geo.PixelPoint{X: x0, Y: y1}),
	}
}

// newCanvas returns a w x h white canvas with src drawn over it, scaled when
// the sizes differ.
func newCanvas(src image.Image, w, h int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(canvas, canvas.Bounds(), src, sb.Min, draw.Over)
		return canvas
	}
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, sb, xdraw.Over, nil)
	return canvas
}

func cropCanvas(canvas *image.RGBA, crop image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), canvas, crop.Min, draw.Src)
	return out
}
