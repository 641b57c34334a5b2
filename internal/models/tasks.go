package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UIState is the user-visible phase of a generation session
type UIState string

const (
	UIStateIdle       UIState = "IDLE"
	UIStateSubmitting UIState = "SUBMITTING"
	UIStatePolling    UIState = "POLLING"
	UIStateSuccess    UIState = "SUCCESS"
	UIStateError      UIState = "ERROR"
)

// Terminal reports whether no further transitions happen for the session
func (s UIState) Terminal() bool {
	return s == UIStateSuccess || s == UIStateError
}

// Busy reports whether a job is being submitted or tracked
func (s UIState) Busy() bool {
	return s == UIStateSubmitting || s == UIStatePolling
}

// TaskStatus is the status string reported by the job service
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
)

type CreateTaskResponse struct {
	TaskID string `json:"task_id"`
}

// PollResult is one snapshot from the status endpoint
type PollResult struct {
	Status TaskStatus      `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Detail renders the result field as text. Strings are returned verbatim,
// null or a missing field yields "", other JSON values are compacted.
func (p PollResult) Detail() string {
	raw := bytes.TrimSpace(p.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return compact.String()
}
