package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned for malformed map geometry: a quadrilateral
// without exactly four corners, a collapsed quadrilateral or an unusable
// resolution.
var ErrInvalidGeometry = errors.New("invalid map geometry")

// Corner indices of a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// GeoPoint is a WGS84 position.
type GeoPoint struct {
	Lat float64
	Lon float64
}

func (g GeoPoint) String() string {
	return fmt.Sprintf("(%g, %g)", g.Lat, g.Lon)
}

// PixelPoint is an image-space position with the origin in the top-left corner.
type PixelPoint struct {
	X float64
	Y float64
}

// Quad locates a raster map in the world. Corners are ordered
// TopLeft, TopRight, BottomRight, BottomLeft and correspond to the image
// corners (0,0), (w,0), (w,h), (0,h).
//
// The mapping between the two assumes the image is a near-rectangular
// projection patch. Strongly skewed quads are accepted but lose accuracy.
type Quad [4]GeoPoint

// NewQuad builds a Quad from corners already in Quad order.
func NewQuad(points []GeoPoint) (Quad, error) {
	var q Quad
	if len(points) != 4 {
		return q, fmt.Errorf("%w: quadrilateral needs 4 corners, got %d", ErrInvalidGeometry, len(points))
	}
	copy(q[:], points)
	return q, nil
}

// Resolution is the number of source image pixels per output pixel.
type Resolution float64

// Valid reports whether r can be used to size a canvas.
func (r Resolution) Valid() bool {
	f := float64(r)
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CanvasSize returns the output canvas size for a source image of w x h pixels.
func CanvasSize(w, h int, res Resolution) (int, int, error) {
	if !res.Valid() {
		return 0, 0, fmt.Errorf("%w: resolution %v", ErrInvalidGeometry, float64(res))
	}
	cw := int(math.Round(float64(w) / float64(res)))
	ch := int(math.Round(float64(h) / float64(res)))
	if cw <= 0 || ch <= 0 {
		return 0, 0, fmt.Errorf("%w: canvas %dx%d for %dx%d at resolution %v", ErrInvalidGeometry, cw, ch, w, h, float64(res))
	}
	return cw, ch, nil
}

// Route is one course's controls in traversal order.
type Route []GeoPoint
