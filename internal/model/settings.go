package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// Default sheet used when a material has no configured stock size.
const (
	DefaultSheetWidth  = 2440.0
	DefaultSheetHeight = 1220.0
	DefaultKerfWidth   = 3.0
)

// StockMaterial is the board size (and optional price per board) for one material.
// It decodes from either {width, height, price} or a [width, height] pair.
type StockMaterial struct {
	Width  float64 `json:"width" yaml:"width"`   // mm
	Height float64 `json:"height" yaml:"height"` // mm
	Price  float64 `json:"price,omitempty" yaml:"price,omitempty"`
}

func DefaultStock() StockMaterial {
	return StockMaterial{Width: DefaultSheetWidth, Height: DefaultSheetHeight}
}

// Area returns the board area in square mm.
func (s StockMaterial) Area() float64 {
	return s.Width * s.Height
}

type stockFields StockMaterial

func stockFromPair(pair []float64) (StockMaterial, error) {
	if len(pair) != 2 {
		return StockMaterial{}, fmt.Errorf("stock size needs exactly 2 values, got %d", len(pair))
	}
	return StockMaterial{Width: pair[0], Height: pair[1]}, nil
}

// UnmarshalJSON accepts an object or a two-element array.
func (s *StockMaterial) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		parsed, err := stockFromPair(pair)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var f stockFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = StockMaterial(f)
	return nil
}

// UnmarshalYAML accepts a mapping or a two-element sequence.
func (s *StockMaterial) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return err
		}
		parsed, err := stockFromPair(pair)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var f stockFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	*s = StockMaterial(f)
	return nil
}

// Settings holds the global nesting configuration.
type Settings struct {
	StockMaterials map[string]StockMaterial `json:"stock_materials" yaml:"stock_materials"`
	KerfWidth      float64                  `json:"kerf_width" yaml:"kerf_width"` // Blade/bit width in mm
	AllowRotation  bool                     `json:"allow_rotation" yaml:"allow_rotation"`
}

func DefaultSettings() Settings {
	return Settings{
		StockMaterials: map[string]StockMaterial{},
		KerfWidth:      DefaultKerfWidth,
		AllowRotation:  true,
	}
}

// StockFor returns the configured stock for a material. When the material is
// not configured it returns the default sheet and false.
func (s Settings) StockFor(material string) (StockMaterial, bool) {
	if stock, ok := s.StockMaterials[material]; ok {
		return stock, true
	}
	return DefaultStock(), false
}

// Validate checks for settings that can not drive a nesting run.
func (s Settings) Validate() error {
	if !finite(s.KerfWidth) || s.KerfWidth < 0 {
		return fmt.Errorf("%w: kerf width %g is not a non-negative number", ErrInvalidSettings, s.KerfWidth)
	}
	for _, name := range s.MaterialNames() {
		stock := s.StockMaterials[name]
		if !finite(stock.Width, stock.Height) || stock.Width <= 0 || stock.Height <= 0 {
			return fmt.Errorf("%w: stock for %q has size %gx%g", ErrInvalidSettings, name, stock.Width, stock.Height)
		}
		if !finite(stock.Price) || stock.Price < 0 {
			return fmt.Errorf("%w: stock for %q has price %g", ErrInvalidSettings, name, stock.Price)
		}
	}
	return nil
}

// finite reports whether every value is neither NaN nor infinite.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaterialNames returns the configured materials in sorted order.
func (s Settings) MaterialNames() []string {
	names := make([]string, 0, len(s.StockMaterials))
	for name := range s.StockMaterials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that does not share the stock map.
func (s Settings) Clone() Settings {
	cp := s
	cp.StockMaterials = make(map[string]StockMaterial, len(s.StockMaterials))
	for k, v := range s.StockMaterials {
		cp.StockMaterials[k] = v
	}
	return cp
}
