package render

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"livelox_dl/internal/geo"
)

func testQuad() geo.Quad {
	return geo.Quad{
		{Lat: 60.0, Lon: 10.0},
		{Lat: 60.0, Lon: 10.1},
		{Lat: 59.95, Lon: 10.1},
		{Lat: 59.95, Lon: 10.0},
	}
}

func centeredRoute() geo.Route {
	return geo.Route{
		{Lat: 59.985, Lon: 10.03},
		{Lat: 59.975, Lon: 10.05},
		{Lat: 59.965, Lon: 10.07},
	}
}

// patterned returns an opaque RGBA image with a deterministic texture.
func patterned(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8((x*7 + y*3) % 256)
			img.Pix[i+1] = uint8((x + y*5) % 256)
			img.Pix[i+2] = uint8((x*y + 11) % 256)
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

func white(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func TestRender_EndToEndScenario(t *testing.T) {
	src := patterned(2000, 1500)

	res, err := Render(src, testQuad(), 1.0, []geo.Route{centeredRoute()}, Options{})
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), res.Image.Bounds())
	assert.Equal(t, testQuad(), res.Bounds)
	assert.NotEqual(t, src.Pix, res.Image.Pix, "route should be drawn")
}

func TestRender_NoRoutesIsPixelIdentical(t *testing.T) {
	src := patterned(320, 240)

	for name, routes := range map[string][]geo.Route{
		"nil":         nil,
		"empty route": {{}},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Render(src, testQuad(), 1.0, routes, Options{Labels: true, CropToRoutes: true})
			require.NoError(t, err)
			assert.Equal(t, src.Rect, res.Image.Rect)
			assert.True(t, bytes.Equal(src.Pix, res.Image.Pix))
			assert.Equal(t, testQuad(), res.Bounds)
		})
	}
}

func TestRender_DoesNotMutateSource(t *testing.T) {
	src := patterned(400, 300)
	before := append([]byte(nil), src.Pix...)

	_, err := Render(src, testQuad(), 1.0, []geo.Route{centeredRoute()}, Options{Labels: true})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, src.Pix))
}

func TestRender_Idempotent(t *testing.T) {
	src := patterned(600, 450)
	routes := []geo.Route{centeredRoute(), {{Lat: 59.99, Lon: 10.01}, {Lat: 59.96, Lon: 10.09}}}
	opts := Options{Labels: true}

	a, err := Render(src, testQuad(), 1.0, routes, opts)
	require.NoError(t, err)
	b, err := Render(src, testQuad(), 1.0, routes, opts)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Image.Pix, b.Image.Pix))
	assert.Equal(t, a.Bounds, b.Bounds)
}

func TestRender_DrawsMarkersWithOverlayOpacity(t *testing.T) {
	src := white(2000, 1500)
	route := centeredRoute()

	res, err := Render(src, testQuad(), 1.0, []geo.Route{route}, Options{})
	require.NoError(t, err)

	m, err := geo.NewMapper(testQuad(), 2000, 1500)
	require.NoError(t, err)
	st := NewStyle(2000, 1500)
	purple := CourseColor(0)

	// On the middle control's ring.
	c := m.ToPixel(route[1])
	x := int(math.Round(c.X + st.MarkerRadius))
	y := int(math.Round(c.Y))
	got := res.Image.RGBAAt(x, y)
	want := blend(purple, overlayOpacity)
	assert.InDelta(t, want.R, got.R, 2)
	assert.InDelta(t, want.G, got.G, 2)
	assert.InDelta(t, want.B, got.B, 2)

	// Inside the ring nothing is drawn.
	center := res.Image.RGBAAt(int(math.Round(c.X)), int(math.Round(c.Y)))
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, center)

	// Far corner stays untouched.
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, res.Image.RGBAAt(5, 5))
}

func blend(c color.RGBA, opacity float64) color.RGBA {
	mix := func(v uint8) uint8 {
		return uint8(math.Round(float64(v)*opacity + 255*(1-opacity)))
	}
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: 0xFF}
}

func TestRender_ResolutionScalesCanvas(t *testing.T) {
	src := patterned(800, 600)

	res, err := Render(src, testQuad(), 2.0, []geo.Route{centeredRoute()}, Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), res.Image.Bounds())
	assert.Equal(t, testQuad(), res.Bounds)
}

func TestRender_CropToRoutes(t *testing.T) {
	src := patterned(2000, 1500)
	route := centeredRoute()

	res, err := Render(src, testQuad(), 1.0, []geo.Route{route}, Options{CropToRoutes: true, CropMargin: 50})
	require.NoError(t, err)

	b := res.Image.Bounds()
	assert.Less(t, b.Dx(), 2000)
	assert.Less(t, b.Dy(), 1500)
	assert.Equal(t, image.Point{}, b.Min)

	// Every control stays inside the cropped bounds.
	q := res.Bounds
	for _, g := range route {
		assert.Greater(t, g.Lat, q[geo.BottomLeft].Lat)
		assert.Less(t, g.Lat, q[geo.TopLeft].Lat)
		assert.Greater(t, g.Lon, q[geo.TopLeft].Lon)
		assert.Less(t, g.Lon, q[geo.TopRight].Lon)
	}
	// ... and the cropped bounds stay inside the map.
	for _, p := range q {
		assert.GreaterOrEqual(t, p.Lat, 59.95)
		assert.LessOrEqual(t, p.Lat, 60.0)
		assert.GreaterOrEqual(t, p.Lon, 10.0)
		assert.LessOrEqual(t, p.Lon, 10.1)
	}
}

func TestOutputBounds(t *testing.T) {
	m, err := geo.NewMapper(testQuad(), 2000, 1500)
	require.NoError(t, err)

	assert.Equal(t, testQuad(), OutputBounds(m, image.Rect(0, 0, 2000, 1500)))

	q := OutputBounds(m, image.Rect(500, 375, 1500, 1125))
	assert.InDelta(t, 59.9875, q[geo.TopLeft].Lat, 1e-9)
	assert.InDelta(t, 10.025, q[geo.TopLeft].Lon, 1e-9)
	assert.InDelta(t, 59.9875, q[geo.TopRight].Lat, 1e-9)
	assert.InDelta(t, 10.075, q[geo.TopRight].Lon, 1e-9)
	assert.InDelta(t, 59.9625, q[geo.BottomRight].Lat, 1e-9)
	assert.InDelta(t, 10.075, q[geo.BottomRight].Lon, 1e-9)
	assert.InDelta(t, 59.9625, q[geo.BottomLeft].Lat, 1e-9)
	assert.InDelta(t, 10.025, q[geo.BottomLeft].Lon, 1e-9)
}

func TestRender_LabelsChangeOutput(t *testing.T) {
	src := white(800, 600)
	routes := []geo.Route{centeredRoute()}

	plain, err := Render(src, testQuad(), 1.0, routes, Options{})
	require.NoError(t, err)
	labelled, err := Render(src, testQuad(), 1.0, routes, Options{Labels: true})
	require.NoError(t, err)

	assert.False(t, bytes.Equal(plain.Image.Pix, labelled.Image.Pix))
}

func TestRender_LabelledRendersAreRepeatable(t *testing.T) {
	src := white(800, 600)
	routes := []geo.Route{centeredRoute()}

	first, err := Render(src, testQuad(), 1.0, routes, Options{Labels: true})
	require.NoError(t, err)
	second, err := Render(src, testQuad(), 1.0, routes, Options{Labels: true})
	require.NoError(t, err)

	assert.Equal(t, first.Image.Pix, second.Image.Pix)
}

func TestLabelFace(t *testing.T) {
	fallback := basicfont.Face7x13
	assert.Same(t, fallback, labelFace(0, fallback))

	face := labelFace(14, fallback)
	_, ok := face.(*opentype.Face)
	require.True(t, ok)
	assert.NoError(t, face.Close())
}

func TestRender_Errors(t *testing.T) {
	_, err := Render(nil, testQuad(), 1.0, nil, Options{})
	assert.ErrorIs(t, err, ErrRenderFailure)

	_, err = Render(image.NewRGBA(image.Rect(0, 0, 0, 0)), testQuad(), 1.0, nil, Options{})
	assert.ErrorIs(t, err, ErrRenderFailure)

	flat := geo.Quad{{Lat: 60, Lon: 10}, {Lat: 60, Lon: 10}, {Lat: 60, Lon: 10}, {Lat: 60, Lon: 10}}
	_, err = Render(patterned(10, 10), flat, 1.0, nil, Options{})
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)

	_, err = Render(patterned(10, 10), testQuad(), 0, nil, Options{})
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)
}

func TestRender_PointsOutsideMapAreTolerated(t *testing.T) {
	src := patterned(300, 200)
	route := geo.Route{
		{Lat: 60.5, Lon: 9.0},
		{Lat: 59.975, Lon: 10.05},
		{Lat: 59.0, Lon: 11.0},
	}

	res, err := Render(src, testQuad(), 1.0, []geo.Route{route}, Options{Labels: true, CropToRoutes: true})
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), res.Image.Bounds())
}
