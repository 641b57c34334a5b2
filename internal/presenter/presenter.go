// Package presenter turns an abstract session state into a description of
// what the user should see. It never starts timers or touches the network.
package presenter

import (
	"net/url"
	"strings"

	"github.com/kelsos/artisan/internal/models"
)

const (
	IdleMessage        = "Your generated model will appear here."
	SubmittingHeadline = "Submitting task..."
	GeneratingHeadline = "Generating model..."
	WaitingStatusLine  = "Waiting for status..."
	FailedHeadline     = "Generation Failed"
	ReadyNotification  = "Model is ready! Click Download to save."
)

type Icon string

const (
	IconNone    Icon = ""
	IconLoader  Icon = "loader"
	IconAlert   Icon = "alert-triangle"
	IconSuccess Icon = "check"
)

type NotificationKind string

const (
	NotificationInfo  NotificationKind = "info"
	NotificationError NotificationKind = "error"
)

// Payload carries the data that accompanies a state change
type Payload struct {
	TaskID string
	Status string
	Error  string
}

// Viewer is the affordance for looking at and downloading a finished model
type Viewer struct {
	TaskID   string
	ModelURL string
}

// Notification is a short-lived message shown apart from the status area
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Effect describes the complete visible result of presenting one state.
// Renderers apply it wholesale; it carries no history.
type Effect struct {
	State models.UIState

	ResetResult   bool
	StatusVisible bool
	Busy          bool
	SubmitEnabled bool

	Icon       Icon
	Headline   string
	StatusLine string
	Progress   float64

	Viewer       *Viewer
	Notification *Notification
}

// Renderer applies effects to some output
type Renderer interface {
	Render(effect Effect)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(Effect)

func (f RendererFunc) Render(effect Effect) {
	f(effect)
}

// Presenter maps states to effects for a given service address
type Presenter struct {
	baseURL string
}

func New(baseURL string) Presenter {
	return Presenter{baseURL: strings.TrimRight(baseURL, "/")}
}

// ModelURL returns the artifact location for a task
func (p Presenter) ModelURL(taskID string) string {
	return p.baseURL + "/model/" + url.PathEscape(taskID)
}

// Present is pure: the same arguments always yield an equal Effect
func (p Presenter) Present(state models.UIState, payload Payload) Effect {
	effect := Effect{
		State:         state,
		ResetResult:   true,
		StatusVisible: true,
		Busy:          state.Busy(),
		SubmitEnabled: !state.Busy(),
		StatusLine:    IdleMessage,
	}

	switch state {
	case models.UIStateSubmitting:
		effect.Icon = IconLoader
		effect.Headline = SubmittingHeadline
		effect.StatusLine = ""
		effect.Progress = 0.1

	case models.UIStatePolling:
		effect.Icon = IconLoader
		effect.Headline = GeneratingHeadline
		effect.StatusLine = WaitingStatusLine
		if payload.Status != "" {
			effect.StatusLine = "Status: " + payload.Status
		}
		effect.Progress = 0.8

	case models.UIStateSuccess:
		effect.StatusVisible = false
		effect.Icon = IconSuccess
		effect.StatusLine = ""
		effect.Progress = 1
		effect.Viewer = &Viewer{
			TaskID:   payload.TaskID,
			ModelURL: p.ModelURL(payload.TaskID),
		}
		effect.Notification = &Notification{
			Kind:    NotificationInfo,
			Message: ReadyNotification,
		}

	case models.UIStateError:
		detail := payload.Error
		if detail == "" {
			detail = models.DefaultErrorDetail
		}
		effect.Icon = IconAlert
		effect.Headline = FailedHeadline
		effect.StatusLine = detail
		effect.Notification = &Notification{
			Kind:    NotificationError,
			Message: detail,
		}
	}

	return effect
}
