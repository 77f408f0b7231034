package marker

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
)

var (
	matchedColor   = color.NRGBA{R: 0, G: 220, B: 0, A: 255}
	unmatchedColor = color.NRGBA{R: 230, G: 0, B: 0, A: 255}
	labelFg        = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBg        = color.NRGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotate returns a copy of frame with every length-filtered contour drawn
// in its own colour, corners marked, and each evaluated candidate outlined
// and labelled with its best template index and score.
func Annotate(frame image.Image, a *Analysis, candidates []*Candidate) *image.NRGBA {
	out := imaging.ToNRGBA(frame)

	colors := imaging.Palette(len(a.Contours))
	for i, c := range a.Contours {
		for _, pt := range c.Points {
			imaging.SetPixel(out, pt.X, pt.Y, colors[i])
		}
		for _, k := range c.Corners {
			imaging.DrawCross(out, image.Pt(k.X, k.Y), 3, colors[i])
		}
	}

	for _, cand := range candidates {
		quad := make([]image.Point, len(cand.Corners))
		for i, k := range cand.Corners {
			quad[i] = image.Pt(int(math.Round(k.X)), int(math.Round(k.Y)))
		}
		c := unmatchedColor
		if cand.Matched {
			c = matchedColor
		}
		imaging.DrawPolygon(out, quad, c)

		label := fmt.Sprintf("#%d %.2f %d", cand.Match.Index, cand.Match.Score, int(cand.Orientation))
		imaging.DrawLabel(out, quad[0].X+2, quad[0].Y+2, label, labelFg, labelBg)
	}
	return out
}
