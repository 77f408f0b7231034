package contour

import (
	"fmt"
)

// Point is an integer pixel coordinate. X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Contour is the ordered ring of boundary pixels of one connected region.
//
// Points are in clockwise walk order. The bounding box is maintained as
// points are appended and always equals the min/max over Points. Corners is
// empty until ExtractCorners runs and is a clockwise subset of Points.
type Contour struct {
	Points  []Point `json:"-"`
	Corners []Point `json:"corners"`

	MinX   int `json:"min_x"`
	MinY   int `json:"min_y"`
	MaxX   int `json:"max_x"`
	MaxY   int `json:"max_y"`
	Length int `json:"length"`
}

// Add appends a point and grows the bounding box.
func (c *Contour) Add(p Point) {
	if c.Length == 0 {
		c.MinX, c.MaxX = p.X, p.X
		c.MinY, c.MaxY = p.Y, p.Y
	} else {
		if p.X < c.MinX {
			c.MinX = p.X
		}
		if p.X > c.MaxX {
			c.MaxX = p.X
		}
		if p.Y < c.MinY {
			c.MinY = p.Y
		}
		if p.Y > c.MaxY {
			c.MaxY = p.Y
		}
	}
	c.Length++
	c.Points = append(c.Points, p)
}

// offset shifts every point and the bounding box by (dx, dy).
func (c *Contour) offset(dx, dy int) {
	for i := range c.Points {
		c.Points[i].X += dx
		c.Points[i].Y += dy
	}
	if c.Length > 0 {
		c.MinX += dx
		c.MaxX += dx
		c.MinY += dy
		c.MaxY += dy
	}
}
