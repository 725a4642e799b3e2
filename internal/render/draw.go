package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"livelox_dl/internal/geo"
)

// bezierCircleK places cubic control points for a quarter circle.
const bezierCircleK = 0.5522847498

// painter rasterises course shapes onto an overlay. Every shape is filled in
// its own pass with an opaque colour, so overlapping shapes of one course
// merge instead of cancelling out.
type painter struct {
	dst *image.RGBA
	z   vector.Rasterizer
}

func newPainter(dst *image.RGBA) *painter {
	return &painter{dst: dst}
}

func toVec(p geo.PixelPoint) vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// fill rasterises the path produced by build inside the pixel box around
// the shape. build receives the box origin and must emit coordinates
// relative to it.
func (p *painter) fill(box image.Rectangle, c color.Color, build func(z *vector.Rasterizer, origin vec.Vec2)) {
	box = box.Intersect(p.dst.Bounds())
	if box.Empty() {
		return
	}
	p.z.Reset(box.Dx(), box.Dy())
	build(&p.z, vec.Vec2{X: float64(box.Min.X), Y: float64(box.Min.Y)})
	p.z.Draw(p.dst, box, image.NewUniform(c), image.Point{})
}

func boxAround(center vec.Vec2, radius float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(center.X-radius))-1, int(math.Floor(center.Y-radius))-1,
		int(math.Ceil(center.X+radius))+1, int(math.Ceil(center.Y+radius))+1,
	)
}

func moveTo(z *vector.Rasterizer, p vec.Vec2) {
	z.MoveTo(float32(p.X), float32(p.Y))
}

func lineTo(z *vector.Rasterizer, p vec.Vec2) {
	z.LineTo(float32(p.X), float32(p.Y))
}

// circle appends a closed circle. Reversed circles punch holes into the
// circles drawn around them.
func circle(z *vector.Rasterizer, c vec.Vec2, r float64, reverse bool) {
	kr := bezierCircleK * r
	sign := 1.0
	if reverse {
		sign = -1
	}
	pt := func(dx, dy float64) (float32, float32) {
		return float32(c.X + dx), float32(c.Y + sign*dy)
	}

	z.MoveTo(pt(0, -r))
	x1, y1 := pt(kr, -r)
	x2, y2 := pt(r, -kr)
	x3, y3 := pt(r, 0)
	z.CubeTo(x1, y1, x2, y2, x3, y3)
	x1, y1 = pt(r, kr)
	x2, y2 = pt(kr, r)
	x3, y3 = pt(0, r)
	z.CubeTo(x1, y1, x2, y2, x3, y3)
	x1, y1 = pt(-kr, r)
	x2, y2 = pt(-r, kr)
	x3, y3 = pt(-r, 0)
	z.CubeTo(x1, y1, x2, y2, x3, y3)
	x1, y1 = pt(-r, -kr)
	x2, y2 = pt(-kr, -r)
	x3, y3 = pt(0, -r)
	z.CubeTo(x1, y1, x2, y2, x3, y3)
	z.ClosePath()
}

// ring strokes a circle of radius r with the given line width.
func (p *painter) ring(center geo.PixelPoint, r, width float64, c color.Color) {
	cv := toVec(center)
	outer := r + width/2
	inner := r - width/2
	p.fill(boxAround(cv, outer), c, func(z *vector.Rasterizer, origin vec.Vec2) {
		local := cv.Sub(origin)
		circle(z, local, outer, false)
		if inner > 0 {
			circle(z, local, inner, true)
		}
	})
}

// triangle strokes an equilateral triangle with circumradius r whose first
// vertex points along heading.
func (p *painter) triangle(center geo.PixelPoint, heading, r, width float64, c color.Color) {
	cv := toVec(center)
	// Offsetting the sides of an equilateral triangle by d moves its
	// vertices by 2d.
	outer := r + width
	inner := r - width
	vertices := func(z *vector.Rasterizer, local vec.Vec2, radius float64, reverse bool) {
		step := 2 * math.Pi / 3
		if reverse {
			step = -step
		}
		for i := 0; i < 3; i++ {
			a := heading + float64(i)*step
			dir := vec.Vec2{X: math.Cos(a), Y: math.Sin(a)}
			v := local.Add(dir.Mul(radius))
			if i == 0 {
				moveTo(z, v)
			} else {
				lineTo(z, v)
			}
		}
		z.ClosePath()
	}
	p.fill(boxAround(cv, outer), c, func(z *vector.Rasterizer, origin vec.Vec2) {
		local := cv.Sub(origin)
		vertices(z, local, outer, false)
		if inner > 0 {
			vertices(z, local, inner, true)
		}
	})
}

// segment strokes the straight line from a to b with butt caps.
func (p *painter) segment(a, b geo.PixelPoint, width float64, c color.Color) {
	av, bv := toVec(a), toVec(b)
	d := bv.Sub(av)
	length := d.Length()
	if length == 0 {
		return
	}
	t := d.Mul(1 / length)
	n := vec.Vec2{X: -t.Y, Y: t.X} // unit normal
	n = n.Mul(width / 2)

	box := boxAround(av, width).Union(boxAround(bv, width))
	p.fill(box, c, func(z *vector.Rasterizer, origin vec.Vec2) {
		a0, b0 := av.Sub(origin), bv.Sub(origin)
		moveTo(z, a0.Add(n))
		lineTo(z, b0.Add(n))
		lineTo(z, b0.Sub(n))
		lineTo(z, a0.Sub(n))
		z.ClosePath()
	})
}

// drawPlans paints all courses onto dst.
func drawPlans(dst *image.RGBA, plans []CoursePlan, st Style) {
	p := newPainter(dst)
	for _, plan := range plans {
		for _, leg := range plan.Legs {
			if leg.Empty() {
				continue
			}
			p.segment(leg.From, leg.To, st.LineWidth, plan.Color)
		}
		for _, mk := range plan.Markers {
			switch mk.Kind {
			case MarkerStart:
				p.triangle(mk.Center, mk.Heading, st.MarkerRadius, st.LineWidth, plan.Color)
			case MarkerControl:
				p.ring(mk.Center, st.MarkerRadius, st.LineWidth, plan.Color)
			case MarkerFinish:
				p.ring(mk.Center, st.MarkerRadius, st.LineWidth, plan.Color)
				p.ring(mk.Center, st.FinishRadius, st.LineWidth, plan.Color)
			}
		}
	}
}

// composite draws overlay onto dst at the given opacity.
func composite(dst draw.Image, overlay image.Image, opacity float64) {
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 0xFF))})
	draw.DrawMask(dst, dst.Bounds(), overlay, overlay.Bounds().Min, mask, image.Point{}, draw.Over)
}
