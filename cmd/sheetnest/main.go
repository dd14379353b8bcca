package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/piwi3910/sheetnest/internal/app"
	"github.com/piwi3910/sheetnest/internal/config"
	"github.com/piwi3910/sheetnest/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sheetnest:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	kingpinApp := kingpin.New("sheetnest", "Sheet-goods nesting - lays out rectangular parts on stock boards per material")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	var kerfSet, rotationSet, cacheSizeSet bool
	kerf := kingpinApp.Flag("kerf", "Blade kerf width in mm").IsSetByUser(&kerfSet).Float64()
	rotation := kingpinApp.Flag("rotation", "Allow 90 degree rotation of grain-free parts (--no-rotation to disable)").IsSetByUser(&rotationSet).Bool()
	cacheSize := kingpinApp.Flag("cache-size", "Number of nesting results kept in memory (0 disables)").IsSetByUser(&cacheSizeSet).Int()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn, error").String()
	stock := kingpinApp.Flag("stock", "Stock size per material, Material=WIDTHxHEIGHT[@PRICE] (repeatable)").Strings()

	nestCmd := kingpinApp.Command("nest", "Nest parts onto boards and write the layout")
	nestInput := nestCmd.Arg("input", "Cut list (.csv, .xlsx) or job file (.json)").Required().ExistingFile()
	nestOutput := nestCmd.Flag("output", "Result JSON file").Short('o').String()
	nestPDF := nestCmd.Flag("pdf", "Write a PDF layout report").String()
	nestLabels := nestCmd.Flag("labels", "Write a PDF of QR part labels").String()
	nestDXF := nestCmd.Flag("dxf-dir", "Write one DXF layout per board into this directory").ExistingDir()

	estimateCmd := kingpinApp.Command("estimate", "Estimate the minimum board count per material from part area")
	estimateInput := estimateCmd.Arg("input", "Cut list (.csv, .xlsx) or job file (.json)").Required().ExistingFile()

	compareCmd := kingpinApp.Command("compare", "Compare layouts under alternative kerf and rotation settings")
	compareInput := compareCmd.Arg("input", "Cut list (.csv, .xlsx) or job file (.json)").Required().ExistingFile()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		Stock:      *stock,
	}
	if kerfSet {
		overrides.KerfWidth = kerf
	}
	if rotationSet {
		overrides.AllowRotation = rotation
	}
	if cacheSizeSet {
		overrides.CacheSize = cacheSize
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case nestCmd.FullCommand():
		job, err := a.LoadJob(*nestInput)
		if err != nil {
			return err
		}
		_, err = a.Nest(ctx, job, app.Outputs{
			Result: *nestOutput,
			PDF:    *nestPDF,
			Labels: *nestLabels,
			DXFDir: *nestDXF,
		})
		if err != nil {
			logger.Error("nest failed", zap.Error(err))
			return err
		}

	case estimateCmd.FullCommand():
		job, err := a.LoadJob(*estimateInput)
		if err != nil {
			return err
		}
		a.Estimate(job)

	case compareCmd.FullCommand():
		job, err := a.LoadJob(*compareInput)
		if err != nil {
			return err
		}
		if _, err := a.Compare(ctx, job); err != nil {
			logger.Error("compare failed", zap.Error(err))
			return err
		}
	}
	return nil
}
