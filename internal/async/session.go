package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kelsos/artisan/internal/logger"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/presenter"
)

// PollInterval is the pause between the end of one status check and the start of the next
const PollInterval = 3 * time.Second

var (
	// ErrSuperseded is reported to waiters of a session replaced by a newer Submit
	ErrSuperseded = errors.New("generation superseded by a newer submission")
	// ErrNoSession is returned by Wait before anything was submitted
	ErrNoSession = errors.New("no generation has been submitted")
)

// Client is the part of the job service the session talks to
type Client interface {
	CreateTask(ctx context.Context, payload map[string]string) (string, error)
	FetchStatus(ctx context.Context, taskID string) (models.PollResult, error)
}

// Options configures a TaskSession
type Options struct {
	Presenter presenter.Presenter
	// Fields selects which optional attributes are sent; nil sends all
	Fields []models.Attribute
}

// TaskSession tracks at most one generation job at a time. Each Submit arms
// a fresh poll handle and cancels the previous one first, so results from a
// superseded job can never reach the renderer. The renderer is called with
// the session lock held and must not call back into the session.
type TaskSession struct {
	client    Client
	renderer  presenter.Renderer
	presenter presenter.Presenter
	fields    []models.Attribute
	interval  time.Duration

	mu     sync.Mutex
	handle *pollHandle
	state  models.UIState
	taskID string
}

// pollHandle owns the background work of one submission
type pollHandle struct {
	id     uuid.UUID
	ctx    context.Context
	stop   context.CancelFunc
	done   chan struct{}
	taskID string
	err    error
	closed bool
}

// NewTaskSession creates an idle session that reports every transition to renderer
func NewTaskSession(client Client, renderer presenter.Renderer, opts Options) *TaskSession {
	return &TaskSession{
		client:    client,
		renderer:  renderer,
		presenter: opts.Presenter,
		fields:    opts.Fields,
		interval:  PollInterval,
		state:     models.UIStateIdle,
	}
}

// State returns the current UI state
func (s *TaskSession) State() models.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TaskID returns the identifier of the job being tracked, if any
func (s *TaskSession) TaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskID
}

// Submit starts a new generation, replacing whatever was tracked before.
// Only validation failures are returned; everything after that is reported
// through the renderer and Wait.
func (s *TaskSession) Submit(ctx context.Context, req models.GenerationRequest) error {
	req = req.Normalize()
	h := s.arm(ctx)

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected generation request: %v", err)
		s.settle(h, models.UIStateError, presenter.Payload{Error: err.Error()}, err)
		return err
	}

	if !s.settle(h, models.UIStateSubmitting, presenter.Payload{}, nil) {
		return nil
	}

	go s.execute(h, req.Payload(s.fields))
	return nil
}

// Wait blocks until the most recent submission reaches a terminal state
func (s *TaskSession) Wait(ctx context.Context) (string, error) {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	if h == nil {
		return "", ErrNoSession
	}

	select {
	case <-h.done:
		return h.taskID, h.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// arm cancels the current handle and installs a new one
func (s *TaskSession) arm(ctx context.Context) *pollHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil && s.handle.release(s.taskID, ErrSuperseded) {
		logger.Info("Generation session %s (task %q) superseded", s.handle.id, s.taskID)
	}

	runCtx, stop := context.WithCancel(ctx)
	h := &pollHandle{
		id:   uuid.New(),
		ctx:  runCtx,
		stop: stop,
		done: make(chan struct{}),
	}
	s.handle = h
	s.taskID = ""
	logger.Debug("Armed generation session %s", h.id)
	return h
}

// release stops the handle's work and wakes waiters. It reports false when
// the handle had already been released.
func (h *pollHandle) release(taskID string, err error) bool {
	if h.closed {
		return false
	}
	h.closed = true
	h.taskID = taskID
	h.err = err
	h.stop()
	close(h.done)
	return true
}

func (s *TaskSession) execute(h *pollHandle, payload map[string]string) {
	taskID, err := s.client.CreateTask(h.ctx, payload)
	if err != nil {
		if h.ctx.Err() != nil {
			s.abandon(h, "")
			return
		}
		subErr := submissionError(err)
		logger.Error("Generation request failed: %v", err)
		s.settle(h, models.UIStateError, presenter.Payload{Error: subErr.Error()}, subErr)
		return
	}

	logger.Info("Generation task %s created", taskID)
	if !s.settle(h, models.UIStatePolling, presenter.Payload{TaskID: taskID}, nil) {
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-h.ctx.Done():
			s.abandon(h, taskID)
			return
		case <-timer.C:
		}

		if s.poll(h, taskID) {
			return
		}
		timer.Reset(s.interval)
	}
}

// poll performs one status check and reports whether polling should stop
func (s *TaskSession) poll(h *pollHandle, taskID string) bool {
	result, err := s.client.FetchStatus(h.ctx, taskID)
	if err != nil {
		if h.ctx.Err() != nil {
			s.abandon(h, taskID)
			return true
		}
		logger.Error("Polling failed for task %s: %v", taskID, err)
		pollErr := &models.PollTransportError{TaskID: taskID, Err: err}
		s.settle(h, models.UIStateError, presenter.Payload{TaskID: taskID, Error: models.StatusUnavailableDetail}, pollErr)
		return true
	}

	logger.Debug("Task %s status: %s", taskID, result.Status)

	switch result.Status {
	case models.TaskStatusSuccess:
		logger.Info("Task %s completed", taskID)
		s.settle(h, models.UIStateSuccess, presenter.Payload{TaskID: taskID}, nil)
		return true
	case models.TaskStatusFailure:
		failure := &models.RemoteFailure{TaskID: taskID, Detail: result.Detail()}
		logger.Error("Task %s failed: %s", taskID, failure.Error())
		s.settle(h, models.UIStateError, presenter.Payload{TaskID: taskID, Error: failure.Error()}, failure)
		return true
	default:
		return !s.settle(h, models.UIStatePolling, presenter.Payload{TaskID: taskID, Status: string(result.Status)}, nil)
	}
}

// abandon ends a handle whose context was cancelled from outside. Superseded
// handles are already released, so this only affects the current one.
func (s *TaskSession) abandon(h *pollHandle, taskID string) {
	err := h.ctx.Err()
	s.settle(h, models.UIStateError, presenter.Payload{TaskID: taskID, Error: err.Error()}, err)
}

// settle applies state if h is still the live handle. A terminal state
// also releases h in the same critical section, after the effect was
// rendered, so waiters see the final output.
func (s *TaskSession) settle(h *pollHandle, state models.UIState, payload presenter.Payload, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h != s.handle || h.closed {
		return false
	}
	s.apply(state, payload)
	if state.Terminal() {
		h.release(s.taskID, err)
	}
	return true
}

func (s *TaskSession) apply(state models.UIState, payload presenter.Payload) {
	s.state = state
	if payload.TaskID != "" {
		s.taskID = payload.TaskID
	}
	if s.renderer != nil {
		s.renderer.Render(s.presenter.Present(state, payload))
	}
}

func submissionError(err error) *models.SubmissionError {
	subErr := &models.SubmissionError{Err: err, Detail: err.Error()}

	var httpErr interface {
		error
		HTTPStatus() (int, string)
	}
	if errors.As(err, &httpErr) {
		subErr.StatusCode, subErr.Detail = httpErr.HTTPStatus()
	}
	return subErr
}
