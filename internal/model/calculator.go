package model

import "math"

// BoardEstimate holds an area-based lower bound for the boards one material needs.
type BoardEstimate struct {
	Material          string  `json:"material"`
	TotalPartArea     float64 `json:"total_part_area"`     // Kerf-inflated area of all parts (sq mm)
	TotalBoardFeet    float64 `json:"total_board_feet"`    // Total area in board feet (1 bf = 144 sq in = 92903.04 sq mm)
	SheetArea         float64 `json:"sheet_area"`          // Area of one board (sq mm)
	BoardsNeededExact float64 `json:"boards_needed_exact"` // Exact fractional number of boards
	BoardsNeededMin   int     `json:"boards_needed_min"`   // Ceiling of exact; no layout can use fewer
	EstimatedCost     float64 `json:"estimated_cost"`
	PricePerBoard     float64 `json:"price_per_board"`
	KerfWidth         float64 `json:"kerf_width"`
}

// sqmmPerBoardFoot is the number of square millimeters in one board foot.
// 1 board foot = 12" x 12" x 1" (area) = 144 sq inches = 144 * 645.16 sq mm = 92903.04 sq mm.
const sqmmPerBoardFoot = 92903.04

// EstimateBoards computes how many boards of the given stock a set of
// requests needs at minimum, counting kerf around each part.
func EstimateBoards(material string, requests []PartRequest, stock StockMaterial, kerfWidth float64) BoardEstimate {
	var totalPartArea float64
	for _, r := range requests {
		if r.Quantity <= 0 {
			continue
		}
		partW := r.Type.Width + kerfWidth
		partH := r.Type.Height + kerfWidth
		totalPartArea += partW * partH * float64(r.Quantity)
	}

	sheetArea := stock.Area()
	if sheetArea <= 0 {
		return BoardEstimate{
			Material:       material,
			TotalPartArea:  totalPartArea,
			TotalBoardFeet: totalPartArea / sqmmPerBoardFoot,
			KerfWidth:      kerfWidth,
		}
	}

	exact := totalPartArea / sheetArea
	minBoards := int(math.Ceil(exact))

	return BoardEstimate{
		Material:          material,
		TotalPartArea:     totalPartArea,
		TotalBoardFeet:    totalPartArea / sqmmPerBoardFoot,
		SheetArea:         sheetArea,
		BoardsNeededExact: exact,
		BoardsNeededMin:   minBoards,
		EstimatedCost:     float64(minBoards) * stock.Price,
		PricePerBoard:     stock.Price,
		KerfWidth:         kerfWidth,
	}
}

// EstimateGroups runs EstimateBoards for every material group, resolving
// stock the same way the nester does.
func EstimateGroups(groups MaterialGroups, settings Settings) []BoardEstimate {
	out := make([]BoardEstimate, 0, len(groups))
	for _, g := range groups {
		stock, _ := settings.StockFor(g.Material)
		out = append(out, EstimateBoards(g.Material, g.Requests, stock, settings.KerfWidth))
	}
	return out
}
