package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zombor/receipt-chat/internal/receipt"
	"github.com/zombor/receipt-chat/internal/scanning"
)

// ImageSource reads fixture images by name
type ImageSource interface {
	Get(name string) ([]byte, error)
}

// Dir reads images from a directory on disk
type Dir string

// Get reads name relative to the directory
func (d Dir) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.Clean(string(filepath.Separator)+name)))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// Result is the evaluation of one labeled receipt
type Result struct {
	Image    string                       `json:"image"`
	Accuracy float64                      `json:"accuracy"`
	Fields   map[string]receipt.FieldStat `json:"fields"`
}

// Run is one pass over a ground-truth set
type Run struct {
	ID              string                       `json:"id"`
	StartedAt       time.Time                    `json:"started_at"`
	FinishedAt      time.Time                    `json:"finished_at"`
	Receipts        int                          `json:"receipts"`
	AverageAccuracy float64                      `json:"average_accuracy"`
	Fields          map[string]receipt.FieldStat `json:"fields"`
	Results         []Result                     `json:"results"`
}

// FieldAccuracy returns the accuracy of one field across the run
func (r *Run) FieldAccuracy(field string) float64 {
	return r.Fields[field].Accuracy()
}

// Runner replays labeled receipts through scan, normalize and extract and
// scores the output
type Runner struct {
	scanner     scanning.Scanner
	images      ImageSource
	db          DB
	groundTruth string
	extractor   *receipt.Extractor
	newID       func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewRunner creates a Runner. db may be nil, in which case runs are not
// persisted.
func NewRunner(scanner scanning.Scanner, images ImageSource, db DB, groundTruth string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		scanner:     scanner,
		images:      images,
		db:          db,
		groundTruth: groundTruth,
		extractor:   receipt.NewExtractor(logger),
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      logger,
	}
}

// Run loads the configured ground truth and evaluates it
func (r *Runner) Run() (*Run, error) {
	entries, err := LoadGroundTruth(r.groundTruth)
	if err != nil {
		return nil, err
	}
	return r.RunEntries(entries)
}

// RunEntries evaluates entries in order. The first scan failure aborts the
// run.
func (r *Runner) RunEntries(entries []Entry) (*Run, error) {
	run := &Run{
		ID:        r.newID(),
		StartedAt: r.now(),
		Results:   make([]Result, 0, len(entries)),
	}
	tally := receipt.NewTally()

	for _, entry := range entries {
		data, err := r.images.Get(entry.Image)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", entry.Image, err)
		}
		text, err := r.scanner.ExtractText(data, scanning.ContentTypeFromFilename(entry.Image))
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", entry.Image, err)
		}

		rec := r.extractor.Extract(receipt.Normalize(text))
		ev := receipt.EvaluateRecord(entry.Expected, rec)
		tally.Add(ev)
		run.Results = append(run.Results, Result{Image: entry.Image, Accuracy: ev.Accuracy, Fields: ev.Fields})

		r.logger.Info("Receipt evaluated", zap.String("image", entry.Image), zap.Float64("accuracy", ev.Accuracy))
	}

	run.FinishedAt = r.now()
	run.Receipts = tally.Receipts
	run.AverageAccuracy = tally.AverageAccuracy()
	run.Fields = tally.Fields

	if r.db != nil {
		if err := r.db.SaveRun(run); err != nil {
			return nil, fmt.Errorf("saving run: %w", err)
		}
	}
	return run, nil
}

// ListRuns returns the persisted runs, newest first
func (r *Runner) ListRuns() ([]*Run, error) {
	if r.db == nil {
		return []*Run{}, nil
	}
	return r.db.ListRuns()
}

// GetRun returns a persisted run
func (r *Runner) GetRun(id string) (*Run, error) {
	if r.db == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r.db.GetRun(id)
}
