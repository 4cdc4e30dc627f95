package benchmark

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// WriteReport prints a run the way the terminal benchmark shows it
func WriteReport(w io.Writer, run *Run) error {
	for _, res := range run.Results {
		if _, err := fmt.Fprintf(w, "Testing: %s\n  Accuracy: %.2f%%\n", res.Image, res.Accuracy); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nFinal Benchmark Report\nAverage Accuracy Across %d Receipts: %.2f%%\n", run.Receipts, run.AverageAccuracy); err != nil {
		return err
	}
	for _, field := range slices.Sorted(maps.Keys(run.Fields)) {
		if _, err := fmt.Fprintf(w, "  - %s: %.2f%% correct\n", field, run.FieldAccuracy(field)); err != nil {
			return err
		}
	}
	return nil
}
