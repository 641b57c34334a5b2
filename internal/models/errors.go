package models

import (
	"errors"
	"fmt"
)

const (
	// DefaultErrorDetail is shown when the service gives no usable message
	DefaultErrorDetail = "An unknown error occurred."
	// StatusUnavailableDetail is shown when a status check fails in transit
	StatusUnavailableDetail = "Could not fetch generation status."
)

// ValidationError is raised locally before anything reaches the network
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionError means the service could not be asked to create a job
type SubmissionError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return DefaultErrorDetail
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollTransportError means a status check failed before a status was known
type PollTransportError struct {
	TaskID string
	Err    error
}

func (e *PollTransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (task %s: %v)", StatusUnavailableDetail, e.TaskID, e.Err)
	}
	return StatusUnavailableDetail
}

func (e *PollTransportError) Unwrap() error {
	return e.Err
}

// RemoteFailure means the service reported that the job itself failed
type RemoteFailure struct {
	TaskID string
	Detail string
}

func (e *RemoteFailure) Error() string {
	if e.Detail == "" {
		return DefaultErrorDetail
	}
	return e.Detail
}

// UserMessage returns the human-readable text shown for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var pollErr *PollTransportError
	if errors.As(err, &pollErr) {
		return StatusUnavailableDetail
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorDetail
}
