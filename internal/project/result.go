package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/sheetnest/internal/engine"
	"github.com/piwi3910/sheetnest/internal/model"
)

// ResultFile is the persisted outcome of one nesting run.
type ResultFile struct {
	Version         string                   `json:"version"`
	CreatedAt       string                   `json:"created_at"`
	Settings        model.Settings           `json:"settings"`
	Boards          []*engine.Board          `json:"boards"`
	Unplaced        []model.PartInstance     `json:"unplaced"`
	Summaries       []engine.MaterialSummary `json:"summaries"`
	TotalCost       float64                  `json:"total_cost"`
	TotalEfficiency float64                  `json:"total_efficiency"`
}

// NewResultFile builds the file contents for a finished run.
func NewResultFile(job Job, result engine.Result) ResultFile {
	boards := result.Boards
	if boards == nil {
		boards = []*engine.Board{}
	}
	unplaced := result.Unplaced
	if unplaced == nil {
		unplaced = []model.PartInstance{}
	}
	return ResultFile{
		Version:         FormatVersion,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		Settings:        job.Settings,
		Boards:          boards,
		Unplaced:        unplaced,
		Summaries:       result.Summarize(job.Groups, job.Settings),
		TotalCost:       result.TotalCost(),
		TotalEfficiency: result.TotalEfficiency(),
	}
}

// SaveResult writes a result file as indented JSON.
func SaveResult(path string, job Job, result engine.Result) error {
	return writeJSON(path, NewResultFile(job, result))
}

// LoadResult reads a result file back.
func LoadResult(path string) (ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultFile{}, fmt.Errorf("failed to read result file: %w", err)
	}
	var rf ResultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return ResultFile{}, fmt.Errorf("failed to parse result file: %w", err)
	}
	if rf.Version == "" {
		return ResultFile{}, fmt.Errorf("invalid result file: missing version field")
	}
	return rf, nil
}

// AssignInstanceIDs gives every placed and unplaced part a short per-run ID.
func AssignInstanceIDs(result *engine.Result) {
	for _, b := range result.Boards {
		for i := range b.Parts {
			b.Parts[i].ID = uuid.New().String()[:8]
		}
	}
	for i := range result.Unplaced {
		result.Unplaced[i].ID = uuid.New().String()[:8]
	}
}
