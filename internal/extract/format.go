package extract

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of document formats the extractor understands.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPDF
	FormatHTML
	FormatSpreadsheet
	FormatCSV
	FormatDOCX
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatHTML:
		return "html"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatCSV:
		return "csv"
	case FormatDOCX:
		return "docx"
	default:
		return "unsupported"
	}
}

var extensions = map[string]Format{
	"pdf":  FormatPDF,
	"htm":  FormatHTML,
	"html": FormatHTML,
	"xls":  FormatSpreadsheet,
	"xlsx": FormatSpreadsheet,
	"csv":  FormatCSV,
	"docx": FormatDOCX,
}

// DetectFormat maps a filename (or path) to its format by extension.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if f, ok := extensions[ext]; ok {
		return f
	}
	return FormatUnsupported
}

// SupportedExtensions lists accepted extensions with a leading dot.
func SupportedExtensions() []string {
	return []string{".pdf", ".htm", ".html", ".xls", ".xlsx", ".csv", ".docx"}
}
