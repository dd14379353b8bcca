package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Grain represents the grain direction constraint for a part.
type Grain int

const (
	GrainAny        Grain = iota // No grain constraint, can rotate freely
	GrainFixed                   // Pattern must keep its drawn orientation
	GrainVertical                // Grain runs along the height
	GrainHorizontal              // Grain runs along the width
)

func (g Grain) String() string {
	switch g {
	case GrainFixed:
		return "Fixed"
	case GrainVertical:
		return "Vertical"
	case GrainHorizontal:
		return "Horizontal"
	default:
		return "Any"
	}
}

// ParseGrain converts a grain direction string to a Grain value.
// Matching is case-insensitive. It returns GrainAny and false when the
// string is not recognized.
func ParseGrain(s string) (Grain, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "none", "n", "-":
		return GrainAny, true
	case "fixed", "f":
		return GrainFixed, true
	case "vertical", "v":
		return GrainVertical, true
	case "horizontal", "h":
		return GrainHorizontal, true
	default:
		return GrainAny, false
	}
}

// MarshalText encodes the grain as its name.
func (g Grain) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a grain name, case-insensitively.
func (g *Grain) UnmarshalText(text []byte) error {
	parsed, ok := ParseGrain(string(text))
	if !ok {
		return fmt.Errorf("unknown grain direction %q", string(text))
	}
	*g = parsed
	return nil
}

// PartType describes a rectangular sheet-good part as it comes out of the
// cut list, before quantities are expanded.
type PartType struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Width     float64 `json:"width" yaml:"width"`         // mm
	Height    float64 `json:"height" yaml:"height"`       // mm
	Thickness float64 `json:"thickness" yaml:"thickness"` // mm
	Material  string  `json:"material" yaml:"material"`
	Grain     Grain   `json:"grain_constraint" yaml:"grain_constraint"`
}

func NewPartType(name string, w, h, thickness float64, material string) PartType {
	return PartType{
		ID:        uuid.New().String()[:8],
		Name:      name,
		Width:     w,
		Height:    h,
		Thickness: thickness,
		Material:  material,
		Grain:     GrainAny,
	}
}

// Validate reports non-positive or non-finite dimensions.
func (pt PartType) Validate() error {
	if !finite(pt.Width, pt.Height) || pt.Width <= 0 || pt.Height <= 0 {
		return fmt.Errorf("%w: %q has size %gx%g", ErrInvalidPart, pt.Name, pt.Width, pt.Height)
	}
	if !finite(pt.Thickness) || pt.Thickness < 0 {
		return fmt.Errorf("%w: %q has thickness %g", ErrInvalidPart, pt.Name, pt.Thickness)
	}
	return nil
}

// PartRequest asks for Quantity copies of a part type.
type PartRequest struct {
	Type     PartType `json:"part_type" yaml:"part_type"`
	Quantity int      `json:"total_quantity" yaml:"total_quantity"`
}

// Instances expands the request into Quantity independent part instances.
func (r PartRequest) Instances() []PartInstance {
	if r.Quantity <= 0 {
		return nil
	}
	out := make([]PartInstance, r.Quantity)
	for i := range out {
		out[i] = NewPartInstance(r.Type)
	}
	return out
}

// PartInstance is a single physical piece to be placed on a board.
// X and Y are only meaningful when Placed is true.
type PartInstance struct {
	ID        string  `json:"id,omitempty"` // assigned after nesting, per run
	TypeID    string  `json:"type_id"`
	Name      string  `json:"name"`
	Width     float64 `json:"width"`  // mm, current orientation
	Height    float64 `json:"height"` // mm, current orientation
	Thickness float64 `json:"thickness"`
	Material  string  `json:"material"`
	Grain     Grain   `json:"grain_constraint"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Placed    bool    `json:"placed"`
	Rotated   bool    `json:"rotated"` // Whether part was rotated 90°
}

func NewPartInstance(pt PartType) PartInstance {
	return PartInstance{
		TypeID:    pt.ID,
		Name:      pt.Name,
		Width:     pt.Width,
		Height:    pt.Height,
		Thickness: pt.Thickness,
		Material:  pt.Material,
		Grain:     pt.Grain,
	}
}

// Area is only used as a sort key.
func (p PartInstance) Area() float64 {
	return p.Width * p.Height
}

// CanRotate reports whether the grain constraint allows a 90° turn.
func (p PartInstance) CanRotate() bool {
	switch p.Grain {
	case GrainFixed, GrainVertical, GrainHorizontal:
		return false
	default:
		return true
	}
}

// Rotate swaps width and height in place and toggles Rotated.
// It does nothing and returns false when the grain forbids rotation.
func (p *PartInstance) Rotate() bool {
	if !p.CanRotate() {
		return false
	}
	p.Width, p.Height = p.Height, p.Width
	p.Rotated = !p.Rotated
	return true
}

// Rotated90 returns a rotated copy, leaving the receiver untouched.
func (p PartInstance) Rotated90() (PartInstance, bool) {
	ok := p.Rotate()
	return p, ok
}

// Fits reports whether the kerf-inflated part fits a board of the given
// size in its current orientation or, when allowed, turned 90°.
func (p PartInstance) Fits(boardW, boardH, kerf float64, allowRotation bool) bool {
	if p.Width+kerf <= boardW && p.Height+kerf <= boardH {
		return true
	}
	if allowRotation && p.CanRotate() {
		return p.Height+kerf <= boardW && p.Width+kerf <= boardH
	}
	return false
}

// OriginalSize returns the dimensions as drawn, undoing any rotation.
func (p PartInstance) OriginalSize() (w, h float64) {
	if p.Rotated {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}
