package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/sheetnest/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the nesting result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        Result
	BoardsUsed    int
	PartsPlaced   int
	UnplacedCount int
	WastePercent  float64
	Cost          float64
}

// CompareScenarios nests the same groups under each scenario, in scenario
// order, so different kerf or rotation settings can be weighed side by side.
// It stops at the first scenario that fails.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, groups model.MaterialGroups, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := New(scenario.Settings, opts...).OptimizeBoards(ctx, groups)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		wastePercent := 0.0
		if len(result.Boards) > 0 {
			wastePercent = 100.0 - result.TotalEfficiency()
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        result,
			BoardsUsed:    len(result.Boards),
			PartsPlaced:   result.PlacedCount(),
			UnplacedCount: len(result.Unplaced),
			WastePercent:  wastePercent,
			Cost:          result.TotalCost(),
		})
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying kerf and rotation to show what-if alternatives.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: flip the rotation policy
	flipped := base.Clone()
	flipped.AllowRotation = !base.AllowRotation
	name := "No Rotation"
	if flipped.AllowRotation {
		name = "Rotation Allowed"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Settings: flipped})

	// Scenario: thinner blade
	if base.KerfWidth > 1.0 {
		tightKerf := base.Clone()
		tightKerf.KerfWidth = base.KerfWidth * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %.1fmm (half)", tightKerf.KerfWidth),
			Settings: tightKerf,
		})
	}

	// Scenario: no kerf at all, the area-only bound for this heuristic
	if base.KerfWidth > 0 {
		noKerf := base.Clone()
		noKerf.KerfWidth = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Zero Kerf",
			Settings: noKerf,
		})
	}

	return scenarios
}
