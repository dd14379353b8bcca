package engine

import "github.com/piwi3910/sheetnest/internal/model"

// Result holds the full solution.
type Result struct {
	Boards   []*Board             `json:"boards"`
	Unplaced []model.PartInstance `json:"unplaced"`
}

// PlacedCount returns the number of parts placed across all boards.
func (r Result) PlacedCount() int {
	n := 0
	for _, b := range r.Boards {
		n += len(b.Parts)
	}
	return n
}

// TotalEfficiency returns overall material usage percentage.
func (r Result) TotalEfficiency() float64 {
	var usedArea, totalArea float64
	for _, b := range r.Boards {
		usedArea += b.UsedArea()
		totalArea += b.StockArea()
	}
	if totalArea == 0 {
		return 0
	}
	return (usedArea / totalArea) * 100.0
}

// TotalCost sums the board prices.
func (r Result) TotalCost() float64 {
	var cost float64
	for _, b := range r.Boards {
		cost += b.Price
	}
	return cost
}

// Clone returns a deep copy.
func (r Result) Clone() Result {
	cp := Result{
		Boards:   make([]*Board, len(r.Boards)),
		Unplaced: append([]model.PartInstance(nil), r.Unplaced...),
	}
	for i, b := range r.Boards {
		cp.Boards[i] = b.Clone()
	}
	return cp
}

// MaterialSummary reports the boards and cost for one material.
type MaterialSummary struct {
	Material      string              `json:"material"`
	StockWidth    float64             `json:"stock_width"`
	StockHeight   float64             `json:"stock_height"`
	Boards        int                 `json:"boards"`
	PartsPlaced   int                 `json:"parts_placed"`
	PartsUnplaced int                 `json:"parts_unplaced"`
	UsedArea      float64             `json:"used_area"`
	StockArea     float64             `json:"stock_area"`
	WasteArea     float64             `json:"waste_area"`
	Efficiency    float64             `json:"efficiency"`
	WastePercent  float64             `json:"waste_percent"`
	Cost          float64             `json:"cost"`
	Estimate      model.BoardEstimate `json:"estimate"`
}

// Summarize aggregates the result per material, in group order. Every group
// gets a summary, including groups whose parts could not be placed at all.
func (r Result) Summarize(groups model.MaterialGroups, settings model.Settings) []MaterialSummary {
	out := make([]MaterialSummary, 0, len(groups))
	for _, g := range groups {
		stock, _ := settings.StockFor(g.Material)
		s := MaterialSummary{
			Material:    g.Material,
			StockWidth:  stock.Width,
			StockHeight: stock.Height,
			Estimate:    model.EstimateBoards(g.Material, g.Requests, stock, settings.KerfWidth),
		}
		for _, b := range r.Boards {
			if b.Material != g.Material {
				continue
			}
			s.Boards++
			s.PartsPlaced += len(b.Parts)
			s.UsedArea += b.UsedArea()
			s.StockArea += b.StockArea()
			s.Cost += b.Price
		}
		for _, p := range r.Unplaced {
			if p.Material == g.Material {
				s.PartsUnplaced++
			}
		}
		s.WasteArea = s.StockArea - s.UsedArea
		if s.StockArea > 0 {
			s.Efficiency = s.UsedArea / s.StockArea * 100.0
			s.WastePercent = 100.0 - s.Efficiency
		}
		out = append(out, s)
	}
	return out
}
