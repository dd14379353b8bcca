package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/sheetnest/internal/model"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Name,Width,Height,Qty\nShelf,600,300,2\nDoor,400,800,1\n", ','},
		{"semicolon", "Name;Width;Height;Qty\nShelf;600;300;2\nDoor;400;800;1\n", ';'},
		{"tab", "Name\tWidth\tHeight\tQty\nShelf\t600\t300\t2\nDoor\t400\t800\t1\n", '\t'},
		{"pipe", "Name|Width|Height|Qty\nShelf|600|300|2\nDoor|400|800|1\n", '|'},
		{"single column falls back to comma", "Shelf\nDoor\n", ','},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectCSVDelimiter([]byte(tc.data)))
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_AllColumns(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Name", "Width", "Height", "Quantity", "Thickness", "Material", "Grain"})

	require.True(t, isHeader)
	assert.Equal(t, ColumnMapping{Name: 0, Width: 1, Height: 2, Quantity: 3, Thickness: 4, Material: 5, Grain: 6}, mapping)
}

func TestDetectColumns_AliasesAndOrder(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"MAT", "Pcs", "H", "W", "Part Name", "Direction"})

	require.True(t, isHeader)
	assert.Equal(t, 0, mapping.Material)
	assert.Equal(t, 1, mapping.Quantity)
	assert.Equal(t, 2, mapping.Height)
	assert.Equal(t, 3, mapping.Width)
	assert.Equal(t, 4, mapping.Name)
	assert.Equal(t, 5, mapping.Grain)
	assert.Equal(t, -1, mapping.Thickness)
}

func TestDetectColumns_FirstMatchWins(t *testing.T) {
	mapping, _ := DetectColumns([]string{"Width", "W", "Height", "Qty"})
	assert.Equal(t, 0, mapping.Width)
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Shelf", "600", "300", "2"})

	assert.False(t, isHeader)
	assert.Equal(t, positional, mapping)
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Name,Width,Height,Quantity,Thickness,Material,Grain\n" +
		"Shelf,600,300,2,18,Oak,Horizontal\n" +
		"Door,400,800,1,18,Oak,Fixed\n" +
		"Back,500,700,1,6,MDF,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	require.Empty(t, result.Errors)
	require.Len(t, result.Requests, 3)

	shelf := result.Requests[0]
	assert.Equal(t, "Shelf", shelf.Type.Name)
	assert.Equal(t, 600.0, shelf.Type.Width)
	assert.Equal(t, 300.0, shelf.Type.Height)
	assert.Equal(t, 18.0, shelf.Type.Thickness)
	assert.Equal(t, "Oak", shelf.Type.Material)
	assert.Equal(t, model.GrainHorizontal, shelf.Type.Grain)
	assert.Equal(t, 2, shelf.Quantity)
	assert.NotEmpty(t, shelf.Type.ID)

	assert.Equal(t, model.GrainFixed, result.Requests[1].Type.Grain)
	assert.Equal(t, model.GrainAny, result.Requests[2].Type.Grain)

	groups := result.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Oak", groups[0].Material)
	assert.Equal(t, 3, groups[0].TotalInstances())
	assert.Equal(t, "MDF", groups[1].Material)
	assert.True(t, result.OK())
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Shelf,600,300,2\nDoor,400,800,1,Birch\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	require.Len(t, result.Requests, 2, "errors: %v", result.Errors)
	assert.Equal(t, "Shelf", result.Requests[0].Type.Name)
	assert.Equal(t, DefaultMaterial, result.Requests[0].Type.Material)
	assert.Equal(t, "Birch", result.Requests[1].Type.Material)
}

func TestImportCSVFromReader_UnrecognisedHeaderSkipped(t *testing.T) {
	data := "Teil,Breite,Hoehe,Anzahl\nShelf,600,300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	require.Len(t, result.Requests, 1)
	assert.Contains(t, result.Warnings, "Detected header row, skipping")
}

func TestImportCSVFromReader_DecimalComma(t *testing.T) {
	data := "Name;Width;Height;Quantity\nShelf;600,5;300;2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	require.Len(t, result.Requests, 1, "errors: %v", result.Errors)
	assert.Equal(t, 600.5, result.Requests[0].Type.Width)
}

func TestImportCSVFromReader_CommaOnlyDecimalAfterSemicolon(t *testing.T) {
	data := "Name,Width,Height,Quantity\nShelf,\"1,200\",300,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	assert.Empty(t, result.Requests)
	assert.Equal(t, []string{"Line 2: Invalid width '1,200'"}, result.Errors)
}

func TestImportCSVFromReader_NonFiniteThicknessIsWarning(t *testing.T) {
	data := "Name,Width,Height,Quantity,Thickness\nShelf,600,300,2,NaN\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	require.Len(t, result.Requests, 1, "errors: %v", result.Errors)
	assert.Zero(t, result.Requests[0].Type.Thickness)
	assert.Contains(t, result.Warnings, "Line 2: Ignoring thickness 'NaN'")
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"invalid width", "Shelf,abc,300,2"},
		{"missing height", "Shelf,600,,2"},
		{"invalid quantity", "Shelf,600,300,abc"},
		{"negative width", "Shelf,-600,300,2"},
		{"zero quantity", "Shelf,600,300,0"},
		{"NaN width", "Shelf,NaN,300,2"},
		{"infinite height", "Shelf,600,Inf,2"},
		{"negative infinite width", "Shelf,-Inf,300,2"},
		{"thousands separator", `Shelf,"1,200",300,2`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ImportCSVFromReader(strings.NewReader("Name,Width,Height,Quantity\n"+tc.row+"\n"), ',')
			assert.Len(t, result.Errors, 1)
			assert.Empty(t, result.Requests)
			assert.False(t, result.OK())
		})
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Name,Width,Height,Quantity\nGood,600,300,2\nBad,abc,300,2\n\n\nAlsoGood,400,200,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	assert.Len(t, result.Requests, 2)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Line 3")
}

func TestImportCSVFromReader_EmptyName(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Name,Width,Height,Quantity\n,600,300,2\n"), ',')

	require.Len(t, result.Requests, 1)
	assert.Equal(t, "Part 1", result.Requests[0].Type.Name)
}

func TestImportCSVFromReader_BadThicknessIsWarning(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Name,Width,Height,Quantity,Thickness\nShelf,600,300,2,thick\n"), ',')

	require.Len(t, result.Requests, 1)
	assert.Zero(t, result.Requests[0].Type.Thickness)
	assert.Empty(t, result.Errors)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "Ignoring thickness")
}

func TestImportCSVFromReader_GrainParsing(t *testing.T) {
	tests := []struct {
		input   string
		want    model.Grain
		warning bool
	}{
		{"Horizontal", model.GrainHorizontal, false},
		{"h", model.GrainHorizontal, false},
		{"VERTICAL", model.GrainVertical, false},
		{"v", model.GrainVertical, false},
		{"fixed", model.GrainFixed, false},
		{"F", model.GrainFixed, false},
		{"any", model.GrainAny, false},
		{"none", model.GrainAny, false},
		{"-", model.GrainAny, false},
		{"", model.GrainAny, false},
		{"diagonal", model.GrainAny, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			data := "Name,Width,Height,Quantity,Grain\nPart,600,300,1," + tc.input + "\n"
			result := ImportCSVFromReader(strings.NewReader(data), ',')

			require.Len(t, result.Requests, 1, "errors: %v", result.Errors)
			assert.Equal(t, tc.want, result.Requests[0].Type.Grain)

			warned := strings.Contains(strings.Join(result.Warnings, "\n"), "Unknown grain direction")
			assert.Equal(t, tc.warning, warned)
		})
	}
}

func TestImportCSVFromReader_MissingRequiredColumns(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Name,Width,Grain\nShelf,600,H\n"), ',')

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Required columns not found in header: Height, Quantity")
}

func TestImportCSVFromReader_Empty(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	assert.NotEmpty(t, result.Errors)
	assert.False(t, result.OK())
}

// ─── CSV File Import Tests ──────────────────────────────────

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := writeFile(t, "parts.csv", "Name;Width;Height;Quantity;Material\nShelf;600;300;2;Oak\nDoor;400;800;1;Oak\n")

	result := ImportCSV(path)

	assert.Len(t, result.Requests, 2, "errors: %v", result.Errors)
	assert.Contains(t, result.Warnings, "Detected semicolon delimiter")
}

func TestImportCSV_Errors(t *testing.T) {
	assert.NotEmpty(t, ImportCSV("/nonexistent/path/file.csv").Errors)
	assert.Equal(t, []string{"File is empty"}, ImportCSV(writeFile(t, "empty.csv", "  \n")).Errors)
}

func TestImportFile_DispatchesOnExtension(t *testing.T) {
	csvPath := writeFile(t, "parts.CSV", "Name,Width,Height,Quantity\nShelf,600,300,2\n")
	assert.Len(t, ImportFile(csvPath).Requests, 1)

	xlsxPath := createTestExcel(t, [][]interface{}{{"Shelf", 600, 300, 2}})
	assert.Len(t, ImportFile(xlsxPath).Requests, 1)
}

// ─── Excel Import Tests ────────────────────────────────────

func newTestWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, cell))
		}
	}
	return f
}

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parts.xlsx")
	f := newTestWorkbook(t, rows)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Width", "Height", "Quantity", "Material", "Grain"},
		{"Shelf", 600, 300, 2, "Oak", "Horizontal"},
		{"Door", 400, 800, 1, "MDF", "Vertical"},
	})

	result := ImportExcel(path)

	require.Empty(t, result.Errors)
	require.Len(t, result.Requests, 2)
	assert.Equal(t, "Shelf", result.Requests[0].Type.Name)
	assert.Equal(t, 600.0, result.Requests[0].Type.Width)
	assert.Equal(t, model.GrainHorizontal, result.Requests[0].Type.Grain)
	assert.Equal(t, []string{"Oak", "MDF"}, []string{result.Groups()[0].Material, result.Groups()[1].Material})
}

func TestImportExcelFromReader(t *testing.T) {
	f := newTestWorkbook(t, [][]interface{}{
		{"Qty", "Name", "Height", "Width"},
		{2, "Shelf", 300, 600},
	})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	result := ImportExcelFromReader(&buf)

	require.Empty(t, result.Errors)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, 600.0, result.Requests[0].Type.Width)
	assert.Equal(t, 300.0, result.Requests[0].Type.Height)
	assert.Equal(t, 2, result.Requests[0].Quantity)
}

func TestImportExcel_Errors(t *testing.T) {
	assert.NotEmpty(t, ImportExcel("/nonexistent/file.xlsx").Errors)

	path := createTestExcel(t, [][]interface{}{
		{"Name", "Width", "Height", "Quantity"},
		{"Shelf", "abc", 300, 2},
	})
	result := ImportExcel(path)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2")
}
