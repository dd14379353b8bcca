package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/sheetnest/internal/engine"
)

// LabelInfo is the data encoded into each part label's QR code.
type LabelInfo struct {
	InstanceID string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Material   string  `json:"material"`
	Width      float64 `json:"width_mm"`
	Height     float64 `json:"height_mm"`
	Thickness  float64 `json:"thickness_mm,omitempty"`
	Board      int     `json:"board"`
	Rotated    bool    `json:"rotated"`
	X          float64 `json:"x_mm"`
	Y          float64 `json:"y_mm"`
}

// Label layout for Avery 5160-compatible sheets (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // mm
	labelPadding    = 2.0  // mm
)

// CollectLabelInfos lists one label per placed part, board by board.
// Dimensions are the part's drawn size, not its rotated footprint.
func CollectLabelInfos(result engine.Result) []LabelInfo {
	var labels []LabelInfo
	for boardIdx, board := range result.Boards {
		for _, p := range board.Parts {
			w, h := p.OriginalSize()
			labels = append(labels, LabelInfo{
				InstanceID: p.ID,
				Name:       p.Name,
				Material:   board.Material,
				Width:      w,
				Height:     h,
				Thickness:  p.Thickness,
				Board:      boardIdx + 1,
				Rotated:    p.Rotated,
				X:          p.X,
				Y:          p.Y,
			})
		}
	}
	return labels
}

// ExportLabels writes a PDF of QR-coded labels for all placed parts.
func ExportLabels(path string, result engine.Result) error {
	labels := CollectLabelInfos(result)
	if len(labels) == 0 {
		return fmt.Errorf("no parts placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		x := labelMarginLeft + float64(posOnPage%labelCols)*labelWidth
		y := labelMarginTop + float64(posOnPage/labelCols)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.Name, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func renderLabel(pdf *fpdf.Fpdf, x, y float64, index int, info LabelInfo) error {
	// Cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", index)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x+labelWidth-qrSize-labelPadding, y+(labelHeight-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, info.Name, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.0f x %.0f mm", info.Width, info.Height)
	if info.Thickness > 0 {
		dims += fmt.Sprintf(" x %.0f", info.Thickness)
	}
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	where := fmt.Sprintf("%s #%d @ (%.0f, %.0f)", info.Material, info.Board, info.X, info.Y)
	pdf.CellFormat(textW, 3, truncate(pdf, where, textW), "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Rotated 90\xb0", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
