package receipt

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/google/go-cmp/cmp"
)

// FieldStat counts how often a field matched its expected value.
type FieldStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns the share of correct values as a percentage.
func (s FieldStat) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// Evaluation is the comparison of one actual record against its expectation.
type Evaluation struct {
	Accuracy float64              `json:"accuracy"`
	Fields   map[string]FieldStat `json:"fields"`
}

// canonical round-trips each value through JSON so ints, floats and
// json.Numbers of equal value compare equal. A value JSON cannot represent
// is kept as given.
func canonical(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = canonicalValue(val)
	}
	return out
}

func canonicalValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// Evaluate compares every expected field against actual with exact
// structural equality. A field missing from actual compares as null.
func Evaluate(expected, actual map[string]any) Evaluation {
	exp := canonical(expected)
	act := canonical(actual)

	ev := Evaluation{Fields: make(map[string]FieldStat, len(exp))}
	correct := 0
	for _, key := range slices.Sorted(maps.Keys(exp)) {
		stat := FieldStat{Total: 1}
		if cmp.Equal(exp[key], act[key]) {
			stat.Correct = 1
			correct++
		}
		ev.Fields[key] = stat
	}
	if len(exp) > 0 {
		ev.Accuracy = float64(correct) / float64(len(exp)) * 100
	}
	return ev
}

// EvaluateRecord compares a record's mapping form against expected.
func EvaluateRecord(expected map[string]any, rec Record) Evaluation {
	return Evaluate(expected, rec.Fields())
}

// Tally aggregates evaluations across receipts. Per-field accuracy is
// computed from summed counts, not by averaging percentages.
type Tally struct {
	Fields   map[string]FieldStat `json:"fields"`
	Receipts int                  `json:"receipts"`
	sum      float64
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{Fields: make(map[string]FieldStat)}
}

// Add folds ev into the tally.
func (t *Tally) Add(ev Evaluation) {
	for k, s := range ev.Fields {
		cur := t.Fields[k]
		cur.Correct += s.Correct
		cur.Total += s.Total
		t.Fields[k] = cur
	}
	t.Receipts++
	t.sum += ev.Accuracy
}

// AverageAccuracy is the mean of the per-receipt accuracies.
func (t *Tally) AverageAccuracy() float64 {
	if t.Receipts == 0 {
		return 0
	}
	return t.sum / float64(t.Receipts)
}

// FieldAccuracy returns the accuracy of one field over all receipts.
func (t *Tally) FieldAccuracy(field string) float64 {
	return t.Fields[field].Accuracy()
}
