package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Entry is one labeled receipt: the image to scan and the mapping its
// extraction is expected to produce
type Entry struct {
	Image    string         `json:"image"`
	Expected map[string]any `json:"expected"`
}

// ParseGroundTruth decodes a JSON list of entries
func ParseGroundTruth(r io.Reader) ([]Entry, error) {
	var entries []Entry
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding ground truth: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("ground truth has no entries")
	}
	for i, e := range entries {
		if e.Image == "" {
			return nil, fmt.Errorf("entry %d: image is required", i)
		}
		if e.Expected == nil {
			return nil, fmt.Errorf("entry %d (%s): expected is required", i, e.Image)
		}
	}
	return entries, nil
}

// LoadGroundTruth reads entries from a JSON file
func LoadGroundTruth(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ground truth: %w", err)
	}
	defer f.Close()
	return ParseGroundTruth(f)
}
