package render

import (
	"image"
	"image/color"
	"math"

	"livelox_dl/internal/geo"
)

// MarkerKind selects how a control is drawn.
type MarkerKind int

const (
	// MarkerStart is the triangle on the first control.
	MarkerStart MarkerKind = iota
	// MarkerControl is the single ring on an interior control.
	MarkerControl
	// MarkerFinish is the double ring on the last control.
	MarkerFinish
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerStart:
		return "start"
	case MarkerControl:
		return "control"
	case MarkerFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Marker is one control on the canvas.
type Marker struct {
	Kind   MarkerKind
	Center geo.PixelPoint
	// Heading is the direction of the first leg in radians (image space,
	// y down). Only used by MarkerStart.
	Heading float64
	// Number is the control's position on the course: 0 for the start,
	// 1..N-2 for interior controls, N-1 for the finish.
	Number int
}

// Leg is the drawn part of the line between two consecutive controls. The
// ends are pulled back by the marker radius so the line does not cross the
// markers. Controls closer than two radii are joined centre to centre, and
// only coincident controls leave nothing to draw.
type Leg struct {
	From geo.PixelPoint
	To   geo.PixelPoint
}

// Empty reports whether the leg has nothing to draw.
func (l Leg) Empty() bool {
	return l.From == l.To
}

// CoursePlan is everything that will be drawn for one route.
type CoursePlan struct {
	Index   int
	Color   color.RGBA
	Markers []Marker
	Legs    []Leg
}

// Plan projects routes onto the canvas described by m and lays out their
// markers and legs. A route with N controls yields N markers and N-1 legs.
// Empty routes yield an empty plan.
func Plan(routes []geo.Route, m *geo.Mapper, st Style) []CoursePlan {
	plans := make([]CoursePlan, 0, len(routes))
	for i, route := range routes {
		plan := CoursePlan{Index: i, Color: CourseColor(i)}
		if len(route) == 0 {
			plans = append(plans, plan)
			continue
		}

		pts := make([]geo.PixelPoint, len(route))
		for j, g := range route {
			pts[j] = m.ToPixel(g)
		}

		plan.Markers = make([]Marker, len(pts))
		for j, p := range pts {
			kind := MarkerControl
			switch {
			case j == 0:
				kind = MarkerStart
			case j == len(pts)-1:
				kind = MarkerFinish
			}
			plan.Markers[j] = Marker{Kind: kind, Center: p, Number: j}
		}
		// North-up when there is no first leg to point along.
		plan.Markers[0].Heading = -math.Pi / 2
		if len(pts) > 1 {
			plan.Markers[0].Heading = math.Atan2(pts[1].Y-pts[0].Y, pts[1].X-pts[0].X)
		}

		plan.Legs = make([]Leg, 0, len(pts)-1)
		for j := 0; j+1 < len(pts); j++ {
			plan.Legs = append(plan.Legs, shortenLeg(pts[j], pts[j+1], st.MarkerRadius))
		}
		plans = append(plans, plan)
	}
	return plans
}

func shortenLeg(a, b geo.PixelPoint, r float64) Leg {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length <= 2*r {
		return Leg{From: a, To: b}
	}
	ux, uy := dx/length, dy/length
	return Leg{
		From: geo.PixelPoint{X: a.X + ux*r, Y: a.Y + uy*r},
		To:   geo.PixelPoint{X: b.X - ux*r, Y: b.Y - uy*r},
	}
}

// Extent returns the pixel rectangle covered by the drawn plans, or false if
// nothing is drawn.
func Extent(plans []CoursePlan, st Style) (image.Rectangle, bool) {
	var (
		r     image.Rectangle
		found bool
	)
	add := func(p geo.PixelPoint, pad float64) {
		box := image.Rect(
			int(math.Floor(p.X-pad)), int(math.Floor(p.Y-pad)),
			int(math.Ceil(p.X+pad)), int(math.Ceil(p.Y+pad)),
		)
		if !found {
			r, found = box, true
			return
		}
		r = r.Union(box)
	}

	markerPad := st.MarkerRadius + st.LineWidth
	for _, plan := range plans {
		for _, mk := range plan.Markers {
			add(mk.Center, markerPad)
		}
		for _, leg := range plan.Legs {
			if leg.Empty() {
				continue
			}
			add(leg.From, st.LineWidth)
			add(leg.To, st.LineWidth)
		}
	}
	return r, found
}
