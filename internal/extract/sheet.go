package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// zipMagic prefixes every OOXML workbook; legacy .xls files are OLE2.
var zipMagic = []byte("PK\x03\x04")

type sheetStrategy struct{}

func (sheetStrategy) Extract(data []byte) (string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return readXLSX(data)
	}
	return readXLS(data)
}

func readXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		writeTable(&b, rows)
	}
	return b.String(), nil
}

func readXLS(data []byte) (text string, err error) {
	defer recoverParse(&err)

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}

	var b strings.Builder
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		writeTable(&b, rows)
	}
	return b.String(), nil
}

// writeTable renders rows as tab-separated lines, skipping blank rows.
func writeTable(b *strings.Builder, rows [][]string) {
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}
