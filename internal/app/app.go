// Package app wires the importer, the nester and the result writers together
// for the command line.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/piwi3910/sheetnest/internal/config"
	"github.com/piwi3910/sheetnest/internal/engine"
	"github.com/piwi3910/sheetnest/internal/export"
	"github.com/piwi3910/sheetnest/internal/importer"
	"github.com/piwi3910/sheetnest/internal/model"
	"github.com/piwi3910/sheetnest/internal/project"
)

// progressBuffer is the capacity of the progress channel between the nester
// and the logging consumer.
const progressBuffer = 64

// Outputs selects the files a nest run writes. Empty paths are skipped.
type Outputs struct {
	Result string // JSON result file
	PDF    string // layout report
	Labels string // QR part labels
	DXFDir string // one DXF per board
}

// App encapsulates the configured dependencies of a run.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	cache  *engine.Cache
}

// New builds an App from resolved configuration. A cache size of zero
// disables result caching.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{cfg: cfg, logger: logger}
	if cfg.CacheSize > 0 {
		cache, err := engine.NewCache(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// LoadJob reads the input. A .json file is a job file carrying its own
// settings, of which command-line flags still take precedence; anything else
// is a CSV or Excel cut list nested with the configured settings.
func (a *App) LoadJob(path string) (project.Job, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		job, err := project.LoadJob(path)
		if err != nil {
			return project.Job{}, err
		}
		settings, changed, err := a.cfg.Flags.Apply(job.Settings)
		if err != nil {
			return project.Job{}, err
		}
		if changed {
			if err := settings.Validate(); err != nil {
				return project.Job{}, fmt.Errorf("job %s with command-line settings: %w", path, err)
			}
			a.logger.Warn("command-line settings override job file",
				zap.String("path", path),
				zap.Float64("kerf", settings.KerfWidth),
				zap.Bool("allow_rotation", settings.AllowRotation))
			job.Settings = settings
		}
		a.logger.Info("loaded job file",
			zap.String("path", path),
			zap.Int("materials", len(job.Groups)),
			zap.Int("parts", job.Groups.TotalInstances()))
		return job, nil
	}

	res := importer.ImportFile(path)
	for _, w := range res.Warnings {
		a.logger.Warn("import warning", zap.String("path", path), zap.String("detail", w))
	}
	for _, e := range res.Errors {
		a.logger.Warn("import row skipped", zap.String("path", path), zap.String("detail", e))
	}
	if len(res.Requests) == 0 {
		return project.Job{}, fmt.Errorf("import %s: no usable parts (%d errors)", path, len(res.Errors))
	}

	groups := res.Groups()
	a.logger.Info("imported cut list",
		zap.String("path", path),
		zap.Int("materials", len(groups)),
		zap.Int("parts", groups.TotalInstances()))
	return project.NewJob(a.cfg.Settings.Clone(), groups), nil
}

// Nest runs the nester for a job and writes the requested outputs. The
// nester runs on its own goroutine while progress events are logged here.
// On cancellation the partial result is returned with the context error and
// nothing is written.
func (a *App) Nest(ctx context.Context, job project.Job, out Outputs) (engine.Result, error) {
	progress := make(chan engine.Progress, progressBuffer)
	nester := engine.New(job.Settings,
		engine.WithProgress(progress),
		engine.WithLogger(a.logger),
		engine.WithCache(a.cache),
	)

	type outcome struct {
		result engine.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer close(progress)
		result, err := nester.OptimizeBoards(ctx, job.Groups)
		done <- outcome{result, err}
	}()

	for p := range progress {
		a.logger.Info("progress",
			zap.String("material", p.Material),
			zap.String("message", p.Message),
			zap.Float64("percent", p.Percent))
	}
	res := <-done
	if res.err != nil {
		return res.result, fmt.Errorf("nesting failed: %w", res.err)
	}

	result := res.result
	project.AssignInstanceIDs(&result)

	summaries := result.Summarize(job.Groups, job.Settings)
	a.logSummary(result, summaries)

	if err := a.writeOutputs(job, result, summaries, out); err != nil {
		return result, err
	}
	return result, nil
}

func (a *App) logSummary(result engine.Result, summaries []engine.MaterialSummary) {
	for _, s := range summaries {
		a.logger.Info("material summary",
			zap.String("material", s.Material),
			zap.Int("boards", s.Boards),
			zap.Int("boards_min", s.Estimate.BoardsNeededMin),
			zap.Int("placed", s.PartsPlaced),
			zap.Int("unplaced", s.PartsUnplaced),
			zap.Float64("efficiency", s.Efficiency),
			zap.Float64("cost", s.Cost))
	}
	for _, p := range result.Unplaced {
		a.logger.Warn("part does not fit any board",
			zap.String("id", p.ID),
			zap.String("name", p.Name),
			zap.String("material", p.Material),
			zap.Float64("width", p.Width),
			zap.Float64("height", p.Height),
			zap.Stringer("grain", p.Grain))
	}
	a.logger.Info("nesting complete",
		zap.Int("boards", len(result.Boards)),
		zap.Int("placed", result.PlacedCount()),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Float64("efficiency", result.TotalEfficiency()),
		zap.Float64("cost", result.TotalCost()))
}

func (a *App) writeOutputs(job project.Job, result engine.Result, summaries []engine.MaterialSummary, out Outputs) error {
	if out.Result != "" {
		if err := project.SaveResult(out.Result, job, result); err != nil {
			return err
		}
		a.logger.Info("wrote result", zap.String("path", out.Result))
	}

	if out.PDF != "" {
		report := export.Report{Result: result, Summaries: summaries, Settings: job.Settings}
		if err := export.ExportPDF(out.PDF, report); err != nil {
			return fmt.Errorf("failed to write PDF report: %w", err)
		}
		a.logger.Info("wrote PDF report", zap.String("path", out.PDF))
	}

	if out.Labels != "" {
		if err := export.ExportLabels(out.Labels, result); err != nil {
			return fmt.Errorf("failed to write labels: %w", err)
		}
		a.logger.Info("wrote labels", zap.String("path", out.Labels))
	}

	if out.DXFDir != "" {
		paths, err := export.ExportDXF(out.DXFDir, result)
		if err != nil {
			return fmt.Errorf("failed to write DXF layouts: %w", err)
		}
		a.logger.Info("wrote DXF layouts", zap.String("dir", out.DXFDir), zap.Int("files", len(paths)))
	}
	return nil
}

// Estimate returns the area lower bound of boards per material.
func (a *App) Estimate(job project.Job) []model.BoardEstimate {
	estimates := model.EstimateGroups(job.Groups, job.Settings)
	for _, e := range estimates {
		a.logger.Info("estimate",
			zap.String("material", e.Material),
			zap.Int("boards_min", e.BoardsNeededMin),
			zap.Float64("boards_exact", e.BoardsNeededExact),
			zap.Float64("board_feet", e.TotalBoardFeet),
			zap.Float64("cost", e.EstimatedCost))
	}
	return estimates
}

// Compare nests the job under the default what-if scenarios.
func (a *App) Compare(ctx context.Context, job project.Job) ([]engine.ComparisonResult, error) {
	results, err := engine.CompareScenarios(ctx, engine.BuildDefaultScenarios(job.Settings), job.Groups,
		engine.WithLogger(a.logger), engine.WithCache(a.cache))
	if err != nil {
		return results, err
	}
	for _, r := range results {
		a.logger.Info("scenario",
			zap.String("name", r.Scenario.Name),
			zap.Int("boards", r.BoardsUsed),
			zap.Int("placed", r.PartsPlaced),
			zap.Int("unplaced", r.UnplacedCount),
			zap.Float64("waste_percent", r.WastePercent),
			zap.Float64("cost", r.Cost))
	}
	return results, nil
}
