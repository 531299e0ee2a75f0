// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// EventType distinguishes progress event kinds on the discovery stream.
type EventType string

const (
	EventStarted  EventType = "started"
	EventPaper    EventType = "paper"
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// PaperAction is the outcome reported by a paper event.
type PaperAction string

const (
	ActionSuccess  PaperAction = "success"
	ActionNotFound PaperAction = "not_found"
	ActionRetry    PaperAction = "retry"
	ActionFailed   PaperAction = "failed"
)

// ProgressEvent is one observation emitted while discovery runs. Which fields
// are meaningful depends on Type and Action; the JSON form is what streaming
// clients receive. Counters are always encoded, zero included.
type ProgressEvent struct {
	Type   EventType   `json:"type"`
	Action PaperAction `json:"action,omitempty"`
	RunID  string      `json:"run_id,omitempty"`

	// Title is the seed being processed.
	Title string `json:"title,omitempty"`

	// Attempt is the 1-based try of this seed that just ran. Attempts counts
	// queue pops across the whole run.
	Attempt    int `json:"attempt"`
	Attempts   int `json:"attempts"`
	MaxRetries int `json:"max_retries"`

	// Completed and Processed count seeds that reached a terminal outcome.
	Completed int `json:"completed"`
	Processed int `json:"processed"`
	Total     int `json:"total"`

	// Added is the number of new citing papers from this seed; Count is the
	// running total of unique citing papers.
	Added int `json:"added"`
	Count int `json:"count"`

	// Reason explains a retry or failed seed; Detail carries the error that
	// ended the run.
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`

	// Citations is set on the terminal events: the full result on done, the
	// partial result on error.
	Citations []CitingPaper `json:"citations,omitempty"`
}

// MarshalJSON encodes the event, writing citations as a list (never null)
// on done events and omitting them on every other non-terminal event.
func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	type plain ProgressEvent
	out := struct {
		plain
		Citations *[]CitingPaper `json:"citations,omitempty"`
	}{plain: plain(e)}
	switch {
	case e.Type == EventDone:
		citations := e.Citations
		if citations == nil {
			citations = []CitingPaper{}
		}
		out.Citations = &citations
	case len(e.Citations) > 0:
		out.Citations = &e.Citations
	}
	return json.Marshal(out)
}

// Terminal reports whether no further events follow this one.
func (e ProgressEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
