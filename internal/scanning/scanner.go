package scanning

import "errors"

// ErrEmptyResponse is returned when a model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Scanner turns a receipt image into a free-text description of its fields
type Scanner interface {
	// ExtractText reads a receipt image/PDF and returns the model's text
	ExtractText(imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
