package imaging

import (
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette returns n visually distinct opaque colours, evenly spaced in hue.
func Palette(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		h := 360 * float64(i) / float64(max(n, 1))
		r, g, b := colorful.Hsv(h, 0.9, 0.95).Clamped().RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// SetPixel writes c at (x, y) when the point is inside img.
func SetPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{x, y}).In(img.Bounds()) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// DrawLine draws a one pixel wide segment with Bresenham's algorithm.
func DrawLine(img *image.NRGBA, p0, p1 image.Point, c color.NRGBA) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	e := dx + dy
	x, y := p0.X, p0.Y
	for {
		SetPixel(img, x, y, c)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// DrawPolygon draws the closed outline through pts.
func DrawPolygon(img *image.NRGBA, pts []image.Point, c color.NRGBA) {
	for i := range pts {
		DrawLine(img, pts[i], pts[(i+1)%len(pts)], c)
	}
}

// DrawCross draws a plus sign of the given arm length centred on p.
func DrawCross(img *image.NRGBA, p image.Point, arm int, c color.NRGBA) {
	DrawLine(img, image.Pt(p.X-arm, p.Y), image.Pt(p.X+arm, p.Y), c)
	DrawLine(img, image.Pt(p.X, p.Y-arm), image.Pt(p.X, p.Y+arm), c)
}

// DrawLabel draws text with a 3x5 pixel font on a solid background box.
// Only digits and a few separators are available; other runes leave a gap.
func DrawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'.': {"000", "000", "000", "000", "010"},
		':': {"000", "010", "000", "010", "000"},
		'-': {"000", "000", "111", "000", "000"},
		'#': {"101", "111", "101", "111", "101"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			SetPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					SetPixel(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
