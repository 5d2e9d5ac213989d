package domain

import "time"

// State is the lifecycle state of a discovered document.
type State string

const (
	StateNew       State = "NEW"
	StateProcessed State = "PROCESSED"
	// StateFailed is terminal: the document exhausted its processing attempts.
	StateFailed State = "FAILED"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateNew, StateProcessed, StateFailed:
		return true
	}
	return false
}

// Document is a regulatory notification registered for processing.
type Document struct {
	ID           int64
	Regulator    string
	Title        string
	URL          string
	PubDate      time.Time
	Hash         string
	Path         string
	State        State
	Attempts     int
	LastError    string
	DiscoveredAt time.Time
}

// Summary is one persisted executive summary row.
type Summary struct {
	ID         int64
	DocumentID int64
	Text       string
	CreatedAt  time.Time
}

// Actions is one persisted action list row; JSON holds the serialized array.
type Actions struct {
	ID         int64
	DocumentID int64
	JSON       string
	CreatedAt  time.Time
}

// DocumentView joins a document with its most recent processing result.
type DocumentView struct {
	Document Document
	Summary  *Summary
	Actions  *Actions
}
