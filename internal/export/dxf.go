package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/sheetnest/internal/engine"
)

// Layer names used in DXF layouts.
const (
	LayerBoard = "BOARD"
	LayerParts = "PARTS"
)

// ExportDXF writes one DXF file per board into dir, named
// board_<n>_<material>.dxf. The board outline goes on LayerBoard and every
// placed part outline on LayerParts, in board coordinates (mm, origin at the
// bottom-left corner). It returns the paths written.
func ExportDXF(dir string, result engine.Result) ([]string, error) {
	if len(result.Boards) == 0 {
		return nil, fmt.Errorf("no boards to export")
	}

	paths := make([]string, 0, len(result.Boards))
	for i, board := range result.Boards {
		path := filepath.Join(dir, fmt.Sprintf("board_%d_%s.dxf", i+1, fileSafe(board.Material)))
		if err := writeBoardDXF(path, board); err != nil {
			return paths, fmt.Errorf("board %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeBoardDXF(path string, board *engine.Board) error {
	d := dxf.NewDrawing()

	if _, err := d.AddLayer(LayerBoard, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer: %w", err)
	}
	if err := rectangle(d, 0, 0, board.Width, board.Height); err != nil {
		return err
	}

	if _, err := d.AddLayer(LayerParts, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer: %w", err)
	}
	for _, p := range board.Parts {
		if err := rectangle(d, p.X, p.Y, p.Width, p.Height); err != nil {
			return fmt.Errorf("part %q: %w", p.Name, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save DXF: %w", err)
	}
	return nil
}

// rectangle draws an axis-aligned rectangle as four LINE entities on the
// current layer.
func rectangle(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return fmt.Errorf("draw line: %w", err)
		}
	}
	return nil
}

func fileSafe(s string) string {
	if s == "" {
		return "board"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
