// Package export renders nesting results as printable PDF reports, QR-coded
// part labels and DXF board layouts.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/sheetnest/internal/engine"
	"github.com/piwi3910/sheetnest/internal/model"
)

// partColor represents an RGB color for a placed part.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// Report is everything a PDF report shows.
type Report struct {
	Result    engine.Result
	Summaries []engine.MaterialSummary
	Settings  model.Settings
}

// ExportPDF writes one page per board with its layout diagram, followed by a
// summary page with per-material totals and any unplaced parts.
func ExportPDF(path string, report Report) error {
	pdf, err := buildPDF(report)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

func buildPDF(report Report) (*fpdf.Fpdf, error) {
	if len(report.Result.Boards) == 0 && len(report.Result.Unplaced) == 0 {
		return nil, fmt.Errorf("no boards to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, board := range report.Result.Boards {
		pdf.AddPage()
		renderBoardPage(pdf, board, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, report)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return pdf, nil
}

func renderBoardPage(pdf *fpdf.Fpdf, board *engine.Board, boardNum int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Board %d: %s (%.0f x %.0f mm)", boardNum, board.Material, board.Width, board.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Parts: %d | Used area: %.0f sq mm | Board area: %.0f sq mm | Efficiency: %.1f%%",
		len(board.Parts), board.UsedArea(), board.StockArea(), board.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/board.Width, drawHeight/board.Height)

	canvasW := board.Width * scale
	canvasH := board.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Board background (wood color)
	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for i, p := range board.Parts {
		col := partColors[i%len(partColors)]
		pw := p.Width * scale
		ph := p.Height * scale
		px := offsetX + p.X*scale
		// Board y grows upwards, page y grows downwards.
		py := offsetY + canvasH - (p.Y+p.Height)*scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)

			dims := fmt.Sprintf("%.0fx%.0f", p.Width, p.Height)
			nameW := pdf.GetStringWidth(p.Name)
			dimsW := pdf.GetStringWidth(dims)

			if nameW < pw-2 {
				pdf.SetXY(px+(pw-nameW)/2, py+ph/2-4)
				pdf.CellFormat(nameW, 4, p.Name, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, board, offsetX, offsetY, canvasW, canvasH)
	drawPartsLegend(pdf, board, offsetY+canvasH+5)
}

// drawDimensionAnnotations labels the board width below and height to the left.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, board *engine.Board, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", board.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", board.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

func drawPartsLegend(pdf *fpdf.Fpdf, board *engine.Board, startY float64) {
	if len(board.Parts) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Parts placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range board.Parts {
		col := partColors[i%len(partColors)]
		w, h := p.OriginalSize()
		label := fmt.Sprintf("%s (%.0fx%.0f)", p.Name, w, h)
		if p.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

func renderSummaryPage(pdf *fpdf.Fpdf, report Report) {
	result := report.Result

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Boards Used", fmt.Sprintf("%d", len(result.Boards))},
		{"Overall Efficiency", fmt.Sprintf("%.1f%%", result.TotalEfficiency())},
		{"Parts Placed", fmt.Sprintf("%d", result.PlacedCount())},
		{"Unplaced Parts", fmt.Sprintf("%d", len(result.Unplaced))},
		{"Board Cost", fmt.Sprintf("%.2f", result.TotalCost())},
		{"Kerf Width", fmt.Sprintf("%.1f mm", report.Settings.KerfWidth)},
		{"Rotation", rotationLabel(report.Settings.AllowRotation)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Materials", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{55, 45, 25, 30, 30, 35, 40}
	headers := []string{"Material", "Stock", "Boards", "Minimum", "Parts", "Efficiency", "Cost"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, s := range report.Summaries {
		rowData := []string{
			s.Material,
			fmt.Sprintf("%.0f x %.0f mm", s.StockWidth, s.StockHeight),
			fmt.Sprintf("%d", s.Boards),
			fmt.Sprintf("%d", s.Estimate.BoardsNeededMin),
			fmt.Sprintf("%d / %d", s.PartsPlaced, s.PartsPlaced+s.PartsUnplaced),
			fmt.Sprintf("%.1f%%", s.Efficiency),
			fmt.Sprintf("%.2f", s.Cost),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(result.Unplaced) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Parts", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, p := range result.Unplaced {
			if y > pageHeight-marginBottom-5 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "...", "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: %.0f x %.0f mm (%s, grain %s)", p.Name, p.Width, p.Height, p.Material, p.Grain)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by sheetnest", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func rotationLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "disabled"
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
