package domain

import (
	"strings"
	"time"
)

// ActionItem is a compliance obligation extracted from document text.
type ActionItem struct {
	Function   string `json:"function"`
	Task       string `json:"task"`
	DueBy      string `json:"due_by"`
	References string `json:"references"`
}

// Key identifies near-identical items for the dedupe policy.
func (a ActionItem) Key() string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(a.Function) + "|" + norm(a.Task) + "|" + norm(a.DueBy)
}

// ActionPolicy controls how per-chunk action lists are merged.
type ActionPolicy string

const (
	// ActionPolicyKeep concatenates every chunk's items as-is.
	ActionPolicyKeep ActionPolicy = "keep"
	// ActionPolicyDedupe drops items whose Key matches an earlier item.
	ActionPolicyDedupe ActionPolicy = "dedupe"
)

// Valid reports whether p is a known policy.
func (p ActionPolicy) Valid() bool {
	return p == ActionPolicyKeep || p == ActionPolicyDedupe
}

// ExportRow flattens one action item together with its document for reporting.
type ExportRow struct {
	Regulator   string
	Title       string
	URL         string
	Item        ActionItem
	ProcessedAt time.Time
}
