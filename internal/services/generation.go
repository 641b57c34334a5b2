package services

import (
	"context"
	"fmt"

	"github.com/kelsos/artisan/internal/async"
	"github.com/kelsos/artisan/internal/client"
	"github.com/kelsos/artisan/internal/config"
	"github.com/kelsos/artisan/internal/download"
	"github.com/kelsos/artisan/internal/logger"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/presenter"
	"github.com/kelsos/artisan/internal/storage"
)

// GenerationService wires the job service client to sessions and downloads
type GenerationService struct {
	config    *config.Config
	client    *client.APIClient
	presenter presenter.Presenter
}

// NewGenerationService creates a new generation service with all dependencies
func NewGenerationService(cfg *config.Config) *GenerationService {
	return NewGenerationServiceWithClient(cfg, client.NewAPIClient(cfg))
}

// NewGenerationServiceWithClient uses an existing API client
func NewGenerationServiceWithClient(cfg *config.Config, apiClient *client.APIClient) *GenerationService {
	return &GenerationService{
		config:    cfg,
		client:    apiClient,
		presenter: presenter.New(cfg.BaseURL),
	}
}

// NewSession creates a task session that renders into renderer
func (s *GenerationService) NewSession(renderer presenter.Renderer, fields []models.Attribute) *async.TaskSession {
	return async.NewTaskSession(s.client, renderer, async.Options{
		Presenter: s.presenter,
		Fields:    fields,
	})
}

// Generate submits req and blocks until the job succeeds or fails
func (s *GenerationService) Generate(
	ctx context.Context,
	req models.GenerationRequest,
	renderer presenter.Renderer,
	fields []models.Attribute,
) (string, error) {
	session := s.NewSession(renderer, fields)
	if err := session.Submit(ctx, req); err != nil {
		return "", err
	}
	return session.Wait(ctx)
}

// Status fetches a single status snapshot without polling
func (s *GenerationService) Status(ctx context.Context, taskID string) (models.PollResult, error) {
	result, err := s.client.FetchStatus(ctx, taskID)
	if err != nil {
		return models.PollResult{}, fmt.Errorf("failed to fetch status for task %s: %w", taskID, err)
	}
	return result, nil
}

// ModelURL returns where the artifact of taskID is served
func (s *GenerationService) ModelURL(taskID string) string {
	return s.client.ModelURL(taskID)
}

// Download saves the model of taskID into the configured output directory.
// When req is given a JSON sidecar describing the request is written too.
func (s *GenerationService) Download(ctx context.Context, taskID string, req *models.GenerationRequest) (*download.Result, error) {
	result, err := download.Model(ctx, s.client, taskID, s.config.OutputDir)
	if err != nil {
		return nil, err
	}

	if req != nil {
		sidecar := storage.NewSidecar(taskID, *req, result.Path, result.Checksum)
		path, err := storage.SaveSidecar(s.config.OutputDir, sidecar)
		if err != nil {
			logger.Warn("Model saved but sidecar could not be written: %v", err)
		} else {
			logger.Info("Sidecar metadata written to %s", path)
		}
	}

	return result, nil
}

// LocalSidecar returns previously saved metadata for taskID, if any
func (s *GenerationService) LocalSidecar(taskID string) (*storage.Sidecar, error) {
	return storage.LoadSidecar(s.config.OutputDir, taskID)
}

// Presenter returns the presenter used by sessions of this service
func (s *GenerationService) Presenter() presenter.Presenter {
	return s.presenter
}
