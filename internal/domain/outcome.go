package domain

import "time"

// Stage enumerates the steps a worker moves one document through.
type Stage string

const (
	StageSelected   Stage = "selected"
	StageExtracting Stage = "extracting"
	StageActions    Stage = "extracting_actions"
	StageSummary    Stage = "summarizing"
	StagePersisting Stage = "persisting"
	StageProcessed  Stage = "processed"
)

// Outcome is the structured result of one processing attempt.
// Stage is the last stage entered; Err is nil on success.
type Outcome struct {
	Document    Document
	Format      string
	Stage       Stage
	Summary     string
	Actions     []ActionItem
	ActionsJSON string
	Err         error
	// FailedState is the state recorded after a failed attempt.
	FailedState State
	Elapsed     time.Duration
}

// Succeeded reports whether the attempt reached the processed stage.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Stage == StageProcessed
}

// Alert is the payload handed to notification sinks.
type Alert struct {
	DocumentID  int64        `json:"document_id"`
	Regulator   string       `json:"regulator"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Summary     string       `json:"summary"`
	Actions     []ActionItem `json:"actions"`
	ActionsJSON string       `json:"-"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// AlertFromOutcome builds the notification payload of a successful outcome.
func AlertFromOutcome(o Outcome, at time.Time) Alert {
	return Alert{
		DocumentID:  o.Document.ID,
		Regulator:   o.Document.Regulator,
		Title:       o.Document.Title,
		URL:         o.Document.URL,
		Summary:     o.Summary,
		Actions:     o.Actions,
		ActionsJSON: o.ActionsJSON,
		ProcessedAt: at,
	}
}
