package geo

import (
	"fmt"
	"math"
)

// degenerateEpsilon is the smallest determinant (in squared degrees, relative
// to the quad's extent) accepted for the corner transform.
const degenerateEpsilon = 1e-12

// matrix3 is a row-major 3x3 projective transform.
type matrix3 [9]float64

func (m matrix3) apply(x, y float64) (float64, float64) {
	w := m[6]*x + m[7]*y + m[8]
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

func (m matrix3) det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

func (m matrix3) inverse() (matrix3, bool) {
	d := m.det()
	if d == 0 || math.IsNaN(d) {
		return matrix3{}, false
	}
	inv := matrix3{
		m[4]*m[8] - m[5]*m[7], m[2]*m[7] - m[1]*m[8], m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8], m[0]*m[8] - m[2]*m[6], m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6], m[1]*m[6] - m[0]*m[7], m[0]*m[4] - m[1]*m[3],
	}
	for i := range inv {
		inv[i] /= d
	}
	return inv, true
}

// Mapper converts between geographic positions and pixel positions on a
// width x height surface spanned by a Quad.
//
// The corner quad is treated as the projective image of the unit square, so
// the four corners land exactly on the four image corners and straight edges
// stay straight. Longitude is the horizontal axis and latitude the vertical
// one; both are taken relative to the top-left corner to keep the transform
// well conditioned.
type Mapper struct {
	quad   Quad
	width  float64
	height float64
	origin GeoPoint
	toGeo  matrix3 // unit square -> (lon, lat) offsets
	toUnit matrix3 // (lon, lat) offsets -> unit square
}

// NewMapper prepares the transform for quad on a width x height surface.
func NewMapper(quad Quad, width, height int) (*Mapper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface size %dx%d", ErrInvalidGeometry, width, height)
	}
	origin := quad[TopLeft]
	var xs, ys [4]float64
	for i, p := range quad {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
			return nil, fmt.Errorf("%w: corner %d is not finite", ErrInvalidGeometry, i)
		}
		xs[i] = p.Lon - origin.Lon
		ys[i] = p.Lat - origin.Lat
	}

	toGeo, ok := squareToQuad(xs, ys)
	if !ok {
		return nil, fmt.Errorf("%w: quadrilateral %v is degenerate", ErrInvalidGeometry, quad)
	}
	extent := math.Max(spread(xs), spread(ys))
	if math.Abs(toGeo.det()) <= degenerateEpsilon*extent*extent {
		return nil, fmt.Errorf("%w: quadrilateral %v is degenerate", ErrInvalidGeometry, quad)
	}
	toUnit, ok := toGeo.inverse()
	if !ok {
		return nil, fmt.Errorf("%w: quadrilateral %v is degenerate", ErrInvalidGeometry, quad)
	}

	return &Mapper{
		quad:   quad,
		width:  float64(width),
		height: float64(height),
		origin: origin,
		toGeo:  toGeo,
		toUnit: toUnit,
	}, nil
}

// Quad returns the corners the mapper was built from.
func (m *Mapper) Quad() Quad {
	return m.quad
}

// Size returns the surface size in pixels.
func (m *Mapper) Size() (int, int) {
	return int(m.width), int(m.height)
}

// ToPixel projects g onto the surface. Positions outside the quad map
// outside [0,w) x [0,h); nothing is clamped.
func (m *Mapper) ToPixel(g GeoPoint) PixelPoint {
	u, v := m.toUnit.apply(g.Lon-m.origin.Lon, g.Lat-m.origin.Lat)
	return PixelPoint{X: u * m.width, Y: v * m.height}
}

// ToGeo is the inverse of ToPixel.
func (m *Mapper) ToGeo(p PixelPoint) GeoPoint {
	x, y := m.toGeo.apply(p.X/m.width, p.Y/m.height)
	return GeoPoint{Lat: y + m.origin.Lat, Lon: x + m.origin.Lon}
}

// ToPixel projects g onto the output canvas of a srcWidth x srcHeight map
// image rendered at res.
func ToPixel(g GeoPoint, quad Quad, res Resolution, srcWidth, srcHeight int) (PixelPoint, error) {
	w, h, err := CanvasSize(srcWidth, srcHeight, res)
	if err != nil {
		return PixelPoint{}, err
	}
	m, err := NewMapper(quad, w, h)
	if err != nil {
		return PixelPoint{}, err
	}
	return m.ToPixel(g), nil
}

// squareToQuad returns the projective transform taking (0,0), (1,0), (1,1),
// (0,1) to the four given corners.
func squareToQuad(xs, ys [4]float64) (matrix3, bool) {
	sx := xs[0] - xs[1] + xs[2] - xs[3]
	sy := ys[0] - ys[1] + ys[2] - ys[3]

	var g, h float64
	if math.Abs(sx) > 0 || math.Abs(sy) > 0 {
		dx1, dx2 := xs[1]-xs[2], xs[3]-xs[2]
		dy1, dy2 := ys[1]-ys[2], ys[3]-ys[2]
		den := dx1*dy2 - dx2*dy1
		if den == 0 {
			return matrix3{}, false
		}
		g = (sx*dy2 - dx2*sy) / den
		h = (dx1*sy - sx*dy1) / den
	}

	return matrix3{
		xs[1] - xs[0] + g*xs[1], xs[3] - xs[0] + h*xs[3], xs[0],
		ys[1] - ys[0] + g*ys[1], ys[3] - ys[0] + h*ys[3], ys[0],
		g, h, 1,
	}, true
}

func spread(vs [4]float64) float64 {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}
