// Package project reads and writes sheetnest job and result files.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/sheetnest/internal/model"
)

// FormatVersion is written into every job and result file.
const FormatVersion = "1.0.0"

// Job is a complete nesting request: the settings and the parts per material.
type Job struct {
	Version   string               `json:"version,omitempty"`
	CreatedAt string               `json:"created_at,omitempty"`
	Settings  model.Settings       `json:"settings"`
	Groups    model.MaterialGroups `json:"groups"`
}

// NewJob stamps a job with the current format version and time.
func NewJob(settings model.Settings, groups model.MaterialGroups) Job {
	return Job{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Settings:  settings,
		Groups:    groups,
	}
}

// SaveJob writes a job as indented JSON, creating parent directories.
func SaveJob(path string, job Job) error {
	if job.Version == "" {
		job.Version = FormatVersion
	}
	return writeJSON(path, job)
}

// LoadJob reads a job file. Settings missing from the file keep their
// defaults, part types without an ID get one, and the groups are validated.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("failed to read job file: %w", err)
	}
	return DecodeJob(data)
}

// DecodeJob parses the JSON job format.
func DecodeJob(data []byte) (Job, error) {
	job := Job{Settings: model.DefaultSettings()}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&job); err != nil {
		return Job{}, fmt.Errorf("failed to parse job file: %w", err)
	}
	if job.Settings.StockMaterials == nil {
		job.Settings.StockMaterials = map[string]model.StockMaterial{}
	}

	for gi := range job.Groups {
		g := &job.Groups[gi]
		for ri := range g.Requests {
			if q := g.Requests[ri].Quantity; q == 0 {
				return Job{}, fmt.Errorf("invalid job: %w: %q in %q has quantity 0", model.ErrInvalidPart, g.Requests[ri].Type.Name, g.Material)
			}
			pt := &g.Requests[ri].Type
			if pt.ID == "" {
				pt.ID = uuid.New().String()[:8]
			}
			// The group decides the material; parts inherit it.
			pt.Material = g.Material
		}
	}

	job.Groups = job.Groups.Merged()

	if err := job.Groups.Validate(); err != nil {
		return Job{}, fmt.Errorf("invalid job: %w", err)
	}
	if err := job.Settings.Validate(); err != nil {
		return Job{}, fmt.Errorf("invalid job: %w", err)
	}
	return job, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
