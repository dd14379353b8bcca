package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sheetnest/internal/model"
)

func part(name string, w, h float64) model.PartInstance {
	return model.NewPartInstance(model.PartType{ID: name, Name: name, Width: w, Height: h, Material: "MDF"})
}

func stock(w, h float64) model.StockMaterial {
	return model.StockMaterial{Width: w, Height: h}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlapping", Rect{X: 50, Y: 50, Width: 100, Height: 100}, true},
		{"contained", Rect{X: 10, Y: 10, Width: 10, Height: 10}, true},
		{"touching right edge", Rect{X: 100, Y: 0, Width: 50, Height: 50}, false},
		{"touching top edge", Rect{X: 0, Y: 100, Width: 50, Height: 50}, false},
		{"left", Rect{X: -60, Y: 0, Width: 50, Height: 50}, false},
		{"below", Rect{X: 0, Y: -60, Width: 50, Height: 50}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Intersects(tc.b))
			assert.Equal(t, tc.want, tc.b.Intersects(a))
		})
	}
}

func TestSubtract_CenterCutLeavesFourDisjointPieces(t *testing.T) {
	free := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	cut := Rect{X: 40, Y: 40, Width: 20, Height: 20}

	pieces := subtract(free, cut)
	require.Len(t, pieces, 4)

	var area float64
	for i, p := range pieces {
		area += p.Area()
		assert.True(t, free.Contains(p), "piece %d escapes the free rect", i)
		assert.False(t, p.Intersects(cut), "piece %d overlaps the cut", i)
		for j := i + 1; j < len(pieces); j++ {
			assert.False(t, p.Intersects(pieces[j]), "pieces %d and %d overlap", i, j)
		}
	}
	assert.InDelta(t, free.Area()-cut.Area(), area, 1e-9)
}

func TestSubtract_CornerCutDropsEmptyPieces(t *testing.T) {
	free := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	pieces := subtract(free, Rect{X: 0, Y: 0, Width: 30, Height: 20})

	assert.ElementsMatch(t, []Rect{
		{X: 30, Y: 0, Width: 70, Height: 100},
		{X: 0, Y: 20, Width: 30, Height: 80},
	}, pieces)
}

func TestSubtract_CutClippedToFreeRect(t *testing.T) {
	free := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	pieces := subtract(free, Rect{X: 60, Y: -10, Width: 100, Height: 100})

	assert.Equal(t, []Rect{{X: 0, Y: 0, Width: 60, Height: 50}}, pieces)
}

func TestSubtract_NoIntersectionKeepsRect(t *testing.T) {
	free := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	assert.Equal(t, []Rect{free}, subtract(free, Rect{X: 200, Y: 0, Width: 10, Height: 10}))
}

func TestNewBoard_SingleFreeRect(t *testing.T) {
	b := NewBoard("MDF", model.StockMaterial{Width: 2440, Height: 1220, Price: 42})

	assert.Equal(t, []Rect{{X: 0, Y: 0, Width: 2440, Height: 1220}}, b.FreeRects())
	assert.Equal(t, 42.0, b.Price)
	assert.Zero(t, b.UsedArea())
	assert.Equal(t, 100.0, b.WastePercent())
}

func TestFindBestPosition_BottomLeftFirstFit(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	b.AddPart(part("A", 400, 300), 0, 0, 0)

	// Free: (400,0,600x1000) and (0,300,400x700). The y=0 rect wins even
	// though the other one is a tighter fit.
	x, y, ok := b.FindBestPosition(part("B", 350, 200), 0)
	require.True(t, ok)
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 0.0, y)

	// Free: (0,300,400x700) then (400,900,600x100). C is too wide for the
	// first once kerf is added.
	b.AddPart(part("X", 600, 900), 400, 0, 0)
	x, y, ok = b.FindBestPosition(part("C", 500, 50), 10)
	require.True(t, ok)
	assert.Equal(t, 400.0, x, "falls through to the next rect in scan order")
	assert.Equal(t, 900.0, y)
}

func TestFindBestPosition_NoRoom(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	_, _, ok := b.FindBestPosition(part("Big", 1200, 200), 0)
	assert.False(t, ok)

	_, _, ok = b.FindBestPosition(part("Exact", 1000, 1000), 0)
	assert.True(t, ok)
	_, _, ok = b.FindBestPosition(part("Exact", 1000, 1000), 1)
	assert.False(t, ok, "kerf makes an exact fit too big")
}

func TestAddPart_FreeRectsStaySorted(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	b.AddPart(part("A", 300, 300), 0, 0, 0)
	b.AddPart(part("B", 300, 300), 300, 0, 0)

	free := b.FreeRects()
	for i := 1; i < len(free); i++ {
		prev, cur := free[i-1], free[i]
		ordered := prev.Y < cur.Y || (prev.Y == cur.Y && prev.X <= cur.X)
		assert.True(t, ordered, "free rects out of order at %d: %+v then %+v", i, prev, cur)
	}
}

func TestAddPart_CoverageInvariantAfterEveryInsertion(t *testing.T) {
	const kerf = 4.0
	b := NewBoard("MDF", stock(2440, 1220))
	sizes := [][2]float64{
		{800, 600}, {600, 400}, {600, 400}, {500, 500}, {300, 200},
		{1200, 100}, {250, 250}, {700, 300}, {100, 100}, {90, 400},
	}

	for i, s := range sizes {
		p := part("P", s[0], s[1])
		placed := TryPlace(&p, b, kerf, true)
		if !placed {
			continue
		}
		assert.InDelta(t, b.StockArea(), b.FreeArea()+b.FootprintArea(kerf), 1e-6,
			"area not conserved after insertion %d", i)
		for _, r := range b.FreeRects() {
			assert.Greater(t, r.Width, 0.0)
			assert.Greater(t, r.Height, 0.0)
			for _, placedPart := range b.Parts {
				fp := Rect{X: placedPart.X, Y: placedPart.Y, Width: placedPart.Width + kerf, Height: placedPart.Height + kerf}
				assert.False(t, r.Intersects(fp), "free rect %+v overlaps footprint %+v", r, fp)
			}
		}
	}
	assert.NotEmpty(t, b.Parts)
}

func TestBoardReporting(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	b.AddPart(part("Half", 1000, 500), 0, 0, 0)

	assert.Equal(t, 500000.0, b.UsedArea())
	assert.Equal(t, 500000.0, b.WasteArea())
	assert.InDelta(t, 50.0, b.Efficiency(), 1e-9)
	assert.InDelta(t, 50.0, b.WastePercent(), 1e-9)
}

func TestBoardClone_IsIndependent(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	b.AddPart(part("A", 100, 100), 0, 0, 0)

	cp := b.Clone()
	cp.AddPart(part("B", 100, 100), 100, 0, 0)

	assert.Len(t, b.Parts, 1)
	assert.Len(t, cp.Parts, 2)
	assert.NotEqual(t, b.FreeRects(), cp.FreeRects())
}

func TestTryPlace_RotatesWhenOnlyTurnedFits(t *testing.T) {
	b := NewBoard("MDF", stock(500, 1000))
	p := part("Rotatable", 800, 400)

	require.True(t, TryPlace(&p, b, 0, true))
	assert.True(t, p.Rotated)
	assert.True(t, p.Placed)
	assert.Equal(t, 400.0, p.Width)
	assert.Equal(t, 800.0, p.Height)
	assert.Equal(t, p, b.Parts[0])
}

func TestTryPlace_RotationDisabled(t *testing.T) {
	b := NewBoard("MDF", stock(500, 1000))
	p := part("Rotatable", 800, 400)
	orig := p

	assert.False(t, TryPlace(&p, b, 0, false))
	assert.Equal(t, orig, p)
	assert.Empty(t, b.Parts)
}

func TestTryPlace_FailureLeavesPartUntouched(t *testing.T) {
	b := NewBoard("MDF", stock(1000, 1000))
	p := part("TooBig", 1200, 200)
	orig := p

	assert.False(t, TryPlace(&p, b, 0, true))
	assert.Equal(t, orig, p, "no rotation may leak out of a failed attempt")
}

func TestTryPlace_GrainLockedPartStaysUnplaced(t *testing.T) {
	// Only the turned orientation (600x300) fits the strip left above the filler.
	b := NewBoard("MDF", stock(1000, 1000))
	b.AddPart(part("Filler", 1000, 500), 0, 0, 0)

	p := part("Door", 300, 600)
	p.Grain = model.GrainFixed

	assert.False(t, TryPlace(&p, b, 0, true))
	assert.False(t, p.Rotated)
	assert.False(t, p.Placed)
	assert.Len(t, b.Parts, 1)

	free := part("Door", 300, 600)
	require.True(t, TryPlace(&free, b, 0, true), "a grain-free part takes the rotated fit")
	assert.True(t, free.Rotated)
	assert.Equal(t, 500.0, free.Y)
}
