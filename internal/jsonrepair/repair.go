// Package jsonrepair recovers a JSON value from loosely formatted model output.
package jsonrepair

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// Empty is the canonical result when nothing can be recovered.
const Empty = "[]"

var (
	fenceOpen = regexp.MustCompile("```(?:json)?")
	jsonSpan  = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// Repair returns compact JSON text recovered from raw. It never fails:
// unrecoverable input yields Empty.
func Repair(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(fenceOpen.ReplaceAllString(raw, ""), "```", ""))
	if text == "" {
		return Empty
	}

	if out, ok := normalize(text); ok {
		return out
	}

	if span := jsonSpan.FindString(text); span != "" {
		if out, ok := normalize(span); ok {
			return out
		}
	}
	return Empty
}

// normalize decodes exactly one JSON value and re-encodes it compactly.
func normalize(text string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", false
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false
	}
	// Backticks only occur inside strings; escaping them keeps fence stripping from touching them on a later pass.
	return strings.ReplaceAll(strings.TrimSuffix(buf.String(), "\n"), "`", `\u0060`), true
}
