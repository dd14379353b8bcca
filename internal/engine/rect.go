package engine

// Rect is an axis-aligned rectangle on a board, in mm from the board origin.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Area() float64 {
	return r.Width * r.Height
}

func (r Rect) right() float64 { return r.X + r.Width }
func (r Rect) top() float64   { return r.Y + r.Height }

// Intersects reports whether two rectangles overlap with positive area.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return !(r.right() <= o.X || o.right() <= r.X ||
		r.top() <= o.Y || o.top() <= r.Y)
}

// Contains returns true if r fully contains inner.
func (r Rect) Contains(inner Rect) bool {
	return r.X <= inner.X && r.Y <= inner.Y &&
		r.right() >= inner.right() && r.top() >= inner.top()
}

// Intersection returns the overlapping area of two rectangles.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	if !r.Intersects(o) {
		return Rect{}, false
	}
	x := max(r.X, o.X)
	y := max(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  min(r.right(), o.right()) - x,
		Height: min(r.top(), o.top()) - y,
	}, true
}

// subtract splits free around the part of cut that overlaps it, returning up
// to four residual rectangles. Left and right strips span the full height of
// free; the strips below and above only span the intersection's x range, so
// the pieces never overlap each other. Residuals with no area are dropped.
func subtract(free, cut Rect) []Rect {
	in, ok := free.Intersection(cut)
	if !ok {
		return []Rect{free}
	}

	result := make([]Rect, 0, 4)
	keep := func(r Rect) {
		if r.Width > 0 && r.Height > 0 {
			result = append(result, r)
		}
	}

	// Left of the intersection
	keep(Rect{X: free.X, Y: free.Y, Width: in.X - free.X, Height: free.Height})
	// Right of the intersection
	keep(Rect{X: in.right(), Y: free.Y, Width: free.right() - in.right(), Height: free.Height})
	// Below, between left and right
	keep(Rect{X: in.X, Y: free.Y, Width: in.Width, Height: in.Y - free.Y})
	// Above, between left and right
	keep(Rect{X: in.X, Y: in.top(), Width: in.Width, Height: free.top() - in.top()})

	return result
}
