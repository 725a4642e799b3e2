package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var labelHalo = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// drawLabels writes the sequence number of every interior control up and to
// the right of its ring.
func drawLabels(dst draw.Image, plans []CoursePlan, st Style) {
	face := labelFace(math.Round(st.LabelSize), basicfont.Face7x13)
	defer face.Close()
	offset := (st.MarkerRadius + st.LineWidth) / math.Sqrt2
	halo := int(math.Max(1, math.Round(st.LineWidth/3)))

	for _, plan := range plans {
		for _, mk := range plan.Markers {
			if mk.Kind != MarkerControl {
				continue
			}
			x := int(math.Round(mk.Center.X + offset))
			y := int(math.Round(mk.Center.Y - offset))
			drawOutlinedText(dst, strconv.Itoa(mk.Number), x, y, plan.Color, halo, face)
		}
	}
}

func drawOutlinedText(dst draw.Image, text string, x, y int, c color.RGBA, halo int, face font.Face) {
	for _, dx := range []int{-halo, 0, halo} {
		for _, dy := range []int{-halo, 0, halo} {
			if dx == 0 && dy == 0 {
				continue
			}
			drawText(dst, text, x+dx, y+dy, labelHalo, face)
		}
	}
	drawText(dst, text, x, y, c, face)
}

func drawText(dst draw.Image, text string, x, y int, c color.Color, face font.Face) {
	(&font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}).DrawString(text)
}

// labelFont is Go Regular, parsed on first use.
var labelFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// labelFace returns Go Regular at size pixels, or fallback when the font
// cannot be loaded. Faces keep glyph caches and are not shared between
// renders; callers close them when done.
func labelFace(size float64, fallback font.Face) font.Face {
	if size <= 0 {
		return fallback
	}
	f, err := labelFont()
	if err != nil {
		return fallback
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fallback
	}
	return face
}
