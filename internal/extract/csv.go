package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

type csvStrategy struct{}

func (csvStrategy) Extract(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read csv: %w", err)
	}

	var b strings.Builder
	writeTable(&b, rows)
	return b.String(), nil
}
