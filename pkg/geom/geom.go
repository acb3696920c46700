package geom

import (
	"fmt"
	"math"
)

// Point is a location or displacement in a 2D frame.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left, Top     float64
	Right, Bottom float64
}

// R builds a rectangle from two corners in any order.
func R(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Left:   math.Min(x0, x1),
		Top:    math.Min(y0, y1),
		Right:  math.Max(x0, x1),
		Bottom: math.Max(y0, y1),
	}
}

// Sized builds the rectangle with top-left p and the given size.
func Sized(p Point, w, h float64) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + w, Bottom: p.Y + h}
}

// Width returns the horizontal span.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.Left, r.Top} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.Right, r.Bottom} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{(r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2}
}

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Translate returns r shifted by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{r.Left + d.X, r.Top + d.Y, r.Right + d.X, r.Bottom + d.Y}
}

// Pad grows r by m on every side. A negative m shrinks it.
func (r Rect) Pad(m float64) Rect {
	return Rect{r.Left - m, r.Top - m, r.Right + m, r.Bottom + m}
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, s.Left),
		Top:    math.Min(r.Top, s.Top),
		Right:  math.Max(r.Right, s.Right),
		Bottom: math.Max(r.Bottom, s.Bottom),
	}
}

// ContainsPoint reports whether p lies strictly inside r.
// Points on the boundary are outside.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X > r.Left && p.X < r.Right && p.Y > r.Top && p.Y < r.Bottom
}

// ContainsRect reports whether s lies within r, edges included.
func (r Rect) ContainsRect(s Rect) bool {
	return s.Left >= r.Left && s.Right <= r.Right && s.Top >= r.Top && s.Bottom <= r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.Left, r.Top, r.Width(), r.Height())
}

// Overlaps reports whether the open interiors of a and b intersect.
// Rectangles that only touch along an edge or corner do not overlap.
func Overlaps(a, b Rect) bool {
	return a.Left < b.Right && a.Right > b.Left && a.Top < b.Bottom && a.Bottom > b.Top
}

// ToCollision expands a draw box by the collision offset.
func ToCollision(draw Rect, offset float64) Rect { return draw.Pad(offset) }

// ToDraw is the inverse of [ToCollision].
func ToDraw(collision Rect, offset float64) Rect { return collision.Pad(-offset) }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Snap rounds each coordinate of p to the nearest multiple of spacing.
// Halves round away from zero on both sides of the origin.
func Snap(p Point, spacing float64) Point {
	return Point{snap1(p.X, spacing), snap1(p.Y, spacing)}
}

func snap1(v, spacing float64) float64 {
	if spacing <= 0 {
		return v
	}
	sign := 1.0
	if v < 0 {
		sign, v = -1, -v
	}
	out := sign * math.Floor(v/spacing+0.5) * spacing
	if out == 0 {
		return 0 // drop negative zero
	}
	return out
}

// OnGrid reports whether both coordinates of p are multiples of spacing.
func OnGrid(p Point, spacing float64) bool {
	return Snap(p, spacing) == p
}
