// Package textproc prepares extracted text for prompting.
package textproc

import (
	"regexp"
	"strings"
)

// boilerplate rules remove regulator letterhead and contact lines. Each rule
// matches from its phrase through the next line break (or end of text).
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?is)बेटी बचाओ.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)RESERVE BANK OF INDIA.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)भारतीय.*?रज़वर् बैंक.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)Department of .*?, Central Office.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)Tel:.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)Fax:.*?(?:\n|$)`),
	regexp.MustCompile(`(?is)Email.*?(?:\n|$)`),
}

// Clean strips boilerplate lines and trims surrounding whitespace.
func Clean(text string) string {
	for _, rule := range boilerplate {
		text = rule.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
