// Package extract converts raw document bytes into plain text.
package extract

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned by callers that must reject unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Strategy extracts text from one format variant.
type Strategy interface {
	Extract(data []byte) (string, error)
}

// Extractor dispatches to one strategy per format.
type Extractor struct {
	strategies map[Format]Strategy
}

// New builds an extractor with the default strategy for every format.
func New() *Extractor {
	return &Extractor{strategies: map[Format]Strategy{
		FormatPDF:         pdfStrategy{},
		FormatHTML:        htmlStrategy{},
		FormatSpreadsheet: sheetStrategy{},
		FormatCSV:         csvStrategy{},
		FormatDOCX:        docxStrategy{},
	}}
}

// Register replaces the strategy used for a format.
func (e *Extractor) Register(f Format, s Strategy) {
	if e.strategies == nil {
		e.strategies = map[Format]Strategy{}
	}
	e.strategies[f] = s
}

// Extract returns the plain text of data. Unsupported formats and empty
// input yield an empty string without error; a parser that refuses the
// bytes outright yields an error.
func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	format := DetectFormat(filename)
	if format == FormatUnsupported || len(data) == 0 {
		return "", nil
	}

	strategy, ok := e.strategies[format]
	if !ok {
		return "", nil
	}

	text, err := strategy.Extract(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	return text, nil
}

// recoverParse turns a panic inside a third-party parser into an error.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("parser panic: %v", r)
	}
}
