package engine

import (
	"sort"

	"github.com/piwi3910/sheetnest/internal/model"
)

// fitTolerance absorbs floating point noise when comparing a part against a
// free rectangle that was produced by earlier subtractions.
const fitTolerance = 1e-9

// Board is one stock sheet of a single material. It owns the parts placed on
// it and the free rectangles describing the area that is still unoccupied.
type Board struct {
	Material string               `json:"material"`
	Width    float64              `json:"width"`  // mm
	Height   float64              `json:"height"` // mm
	Price    float64              `json:"price"`
	Parts    []model.PartInstance `json:"parts"`

	free []Rect
}

// NewBoard creates an empty board whose only free rectangle is the whole sheet.
func NewBoard(material string, stock model.StockMaterial) *Board {
	return &Board{
		Material: material,
		Width:    stock.Width,
		Height:   stock.Height,
		Price:    stock.Price,
		free:     []Rect{{X: 0, Y: 0, Width: stock.Width, Height: stock.Height}},
	}
}

// FreeRects returns a copy of the free rectangles in scan order.
func (b *Board) FreeRects() []Rect {
	out := make([]Rect, len(b.free))
	copy(out, b.free)
	return out
}

// FindBestPosition scans free rectangles bottom-most first, then left-most,
// and returns the origin of the first one that holds the part plus kerf in
// its current orientation.
func (b *Board) FindBestPosition(part model.PartInstance, kerf float64) (x, y float64, ok bool) {
	wk := part.Width + kerf
	hk := part.Height + kerf
	for _, r := range b.free {
		if wk <= r.Width+fitTolerance && hk <= r.Height+fitTolerance {
			return r.X, r.Y, true
		}
	}
	return 0, 0, false
}

// AddPart places the part at (x, y) and carves its kerf-inflated footprint out
// of every free rectangle it overlaps. Free rectangles are never merged back.
// It returns the part as stored on the board.
func (b *Board) AddPart(part model.PartInstance, x, y, kerf float64) model.PartInstance {
	part.X = x
	part.Y = y
	part.Placed = true
	b.Parts = append(b.Parts, part)

	footprint := Rect{X: x, Y: y, Width: part.Width + kerf, Height: part.Height + kerf}
	next := make([]Rect, 0, len(b.free)+3)
	for _, r := range b.free {
		if !r.Intersects(footprint) {
			next = append(next, r)
			continue
		}
		next = append(next, subtract(r, footprint)...)
	}
	b.free = next
	b.sortFree()
	return part
}

// sortFree keeps the bottom-left scan order: y ascending, then x ascending.
func (b *Board) sortFree() {
	sort.SliceStable(b.free, func(i, j int) bool {
		if b.free[i].Y != b.free[j].Y {
			return b.free[i].Y < b.free[j].Y
		}
		return b.free[i].X < b.free[j].X
	})
}

// StockArea returns the board area.
func (b *Board) StockArea() float64 {
	return b.Width * b.Height
}

// UsedArea returns the total area of placed parts, kerf excluded.
func (b *Board) UsedArea() float64 {
	var total float64
	for _, p := range b.Parts {
		total += p.Width * p.Height
	}
	return total
}

// WasteArea is everything not covered by a part, kerf included.
func (b *Board) WasteArea() float64 {
	return b.StockArea() - b.UsedArea()
}

// Efficiency returns the usage percentage.
func (b *Board) Efficiency() float64 {
	ta := b.StockArea()
	if ta == 0 {
		return 0
	}
	return (b.UsedArea() / ta) * 100.0
}

// WastePercent returns the unused percentage.
func (b *Board) WastePercent() float64 {
	if b.StockArea() == 0 {
		return 0
	}
	return 100.0 - b.Efficiency()
}

// FreeArea sums the free rectangles.
func (b *Board) FreeArea() float64 {
	var total float64
	for _, r := range b.free {
		total += r.Area()
	}
	return total
}

// FootprintArea sums the kerf-inflated footprints of the placed parts.
func (b *Board) FootprintArea(kerf float64) float64 {
	var total float64
	for _, p := range b.Parts {
		total += (p.Width + kerf) * (p.Height + kerf)
	}
	return total
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cp := *b
	cp.Parts = append([]model.PartInstance(nil), b.Parts...)
	cp.free = append([]Rect(nil), b.free...)
	return &cp
}
