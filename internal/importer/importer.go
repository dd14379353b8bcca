// Package importer turns CSV and Excel cut lists into part requests grouped
// by material. It detects the delimiter, recognises headers case-insensitively
// and collects per-row errors and warnings instead of failing the whole file.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/sheetnest/internal/model"
)

// DefaultMaterial is used for rows that do not name a material.
const DefaultMaterial = "Default"

// ImportResult holds the outcome of one import.
type ImportResult struct {
	Requests []model.PartRequest
	Errors   []string
	Warnings []string
}

// Groups buckets the imported requests by material in first-seen order.
func (r ImportResult) Groups() model.MaterialGroups {
	return model.GroupByMaterial(r.Requests)
}

// OK reports whether the import produced parts without row errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Requests) > 0
}

// ColumnMapping holds the column index of each role, or -1 when absent.
type ColumnMapping struct {
	Name      int
	Width     int
	Height    int
	Quantity  int
	Thickness int
	Material  int
	Grain     int
}

type column int

const (
	colName column = iota
	colWidth
	colHeight
	colQuantity
	colThickness
	colMaterial
	colGrain
)

// headerAliases lists the accepted (lowercase) header spellings per column.
var headerAliases = map[column][]string{
	colName:      {"name", "label", "part", "part name", "description", "desc", "piece", "item"},
	colWidth:     {"width", "w", "length", "len", "x"},
	colHeight:    {"height", "h", "depth", "d", "y"},
	colQuantity:  {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	colThickness: {"thickness", "thick", "t", "th"},
	colMaterial:  {"material", "mat", "stock", "board", "sheet"},
	colGrain:     {"grain", "grain direction", "direction", "grain dir", "orientation", "grain constraint"},
}

// positional is the layout assumed for files without a header row.
var positional = ColumnMapping{Name: 0, Width: 1, Height: 2, Quantity: 3, Material: 4, Thickness: 5, Grain: 6}

func (m *ColumnMapping) slot(c column) *int {
	switch c {
	case colName:
		return &m.Name
	case colWidth:
		return &m.Width
	case colHeight:
		return &m.Height
	case colQuantity:
		return &m.Quantity
	case colThickness:
		return &m.Thickness
	case colMaterial:
		return &m.Material
	default:
		return &m.Grain
	}
}

// DetectCSVDelimiter picks the delimiter among comma, semicolon, tab and pipe
// that splits the data into the most consistent multi-column rows.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0

	for _, delim := range []rune{',', ';', '\t', '|'} {
		records, err := readCSV(bytes.NewReader(data), delim)
		if err != nil || len(records) == 0 {
			continue
		}

		width := len(records[0])
		if width < 2 {
			continue
		}
		consistent := 0
		for _, row := range records {
			if len(row) == width {
				consistent++
			}
		}

		if score := consistent*10 + width; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// DetectColumns maps a header row onto column roles. When no cell matches a
// known header the positional layout is returned with false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{-1, -1, -1, -1, -1, -1, -1}

	found := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for c := colName; c <= colGrain; c++ {
			if !contains(headerAliases[c], normalized) {
				continue
			}
			found = true
			if idx := mapping.slot(c); *idx == -1 {
				*idx = i
			}
		}
	}

	if !found {
		return positional, false
	}
	return mapping, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber reads a finite number. A decimal comma is only accepted from
// semicolon-separated files; elsewhere "1,200" is ambiguous and rejected.
func parseNumber(row []string, idx int, what, rowLabel string, decimalComma bool) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, what)
	}
	text := s
	if decimalComma {
		text = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, what, s)
	}
	return v, ""
}

// parseRow builds a request from one data row. It returns the request, an
// error message when the row is rejected, and warnings for tolerated issues.
func parseRow(row []string, m ColumnMapping, rowLabel string, seen int, decimalComma bool) (model.PartRequest, string, []string) {
	var warnings []string

	name := getCell(row, m.Name)
	if name == "" {
		name = fmt.Sprintf("Part %d", seen+1)
	}

	width, errMsg := parseNumber(row, m.Width, "width", rowLabel, decimalComma)
	if errMsg != "" {
		return model.PartRequest{}, errMsg, nil
	}
	height, errMsg := parseNumber(row, m.Height, "height", rowLabel, decimalComma)
	if errMsg != "" {
		return model.PartRequest{}, errMsg, nil
	}

	qtyStr := getCell(row, m.Quantity)
	if qtyStr == "" {
		return model.PartRequest{}, fmt.Sprintf("%s: Missing quantity value", rowLabel), nil
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return model.PartRequest{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), nil
	}

	if width <= 0 || height <= 0 || qty <= 0 {
		return model.PartRequest{}, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), nil
	}

	var thickness float64
	if s := getCell(row, m.Thickness); s != "" {
		t, errMsg := parseNumber(row, m.Thickness, "thickness", rowLabel, decimalComma)
		if errMsg != "" || t < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Ignoring thickness '%s'", rowLabel, s))
		} else {
			thickness = t
		}
	}

	material := getCell(row, m.Material)
	if material == "" {
		material = DefaultMaterial
	}

	pt := model.NewPartType(name, width, height, thickness, material)
	if s := getCell(row, m.Grain); s != "" {
		grain, ok := model.ParseGrain(s)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown grain direction '%s', defaulting to any", rowLabel, s))
		}
		pt.Grain = grain
	}

	return model.PartRequest{Type: pt, Quantity: qty}, "", warnings
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportCSV imports a cut list from a CSV file, detecting the delimiter.
func ImportCSV(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", warnings, delimiter == ';')
}

// ImportCSVFromReader imports a cut list with a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(r, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil, delimiter == ';')
}

// ImportExcel imports a cut list from the first sheet of an .xlsx file.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

// ImportExcelFromReader imports a cut list from an .xlsx stream.
func ImportExcelFromReader(r io.Reader) ImportResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

func importWorkbook(f *excelize.File) ImportResult {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{Errors: []string{"Excel file has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	return importFromRows(rows, "Row", nil, false)
}

// ImportFile dispatches on the file extension: .xlsx/.xlsm go to Excel,
// everything else is read as CSV.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is shared by the CSV and Excel paths.
func importFromRows(rows [][]string, rowPrefix string, warnings []string, decimalComma bool) ImportResult {
	result := ImportResult{Warnings: warnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// A non-numeric width cell means an unrecognised header.
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		req, errMsg, rowWarnings := parseRow(row, mapping, rowLabel, len(result.Requests), decimalComma)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, rowWarnings...)
		result.Requests = append(result.Requests, req)
	}

	return result
}
