package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/utils"
)

// Sidecar is the metadata written next to a downloaded model
type Sidecar struct {
	TaskID     string            `json:"task_id"`
	Prompt     string            `json:"prompt"`
	Attributes map[string]string `json:"attributes,omitempty"`
	ModelFile  string            `json:"model_file"`
	SHA512     string            `json:"sha512"`
	Timestamp  string            `json:"timestamp"`
}

// NewSidecar collects the request and download details for a task
func NewSidecar(taskID string, req models.GenerationRequest, modelPath, checksum string) Sidecar {
	attributes := make(map[string]string)
	for _, attr := range models.AllAttributes {
		if value := req.Get(attr); value != "" {
			attributes[string(attr)] = value
		}
	}

	return Sidecar{
		TaskID:     taskID,
		Prompt:     req.Prompt,
		Attributes: attributes,
		ModelFile:  filepath.Base(modelPath),
		SHA512:     checksum,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// GetSidecarPath returns the path of the sidecar file for a task. Only the
// last element of taskID is used so the file always lands inside dir.
func GetSidecarPath(dir, taskID string) string {
	stem := utils.BaseName(taskID)
	if stem == "" {
		stem = "task"
	}
	return filepath.Join(dir, fmt.Sprintf("%s.json", stem))
}

// SaveSidecar writes the sidecar as indented JSON into dir
func SaveSidecar(dir string, sidecar Sidecar) (string, error) {
	filePath := GetSidecarPath(dir, sidecar.TaskID)

	jsonData, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sidecar data: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return "", fmt.Errorf("failed to write sidecar file: %w", err)
	}

	return filePath, nil
}

// LoadSidecar reads the sidecar for a task, returning nil when none exists
func LoadSidecar(dir, taskID string) (*Sidecar, error) {
	filePath := GetSidecarPath(dir, taskID)

	if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
		return nil, nil
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar file: %w", err)
	}

	var sidecar Sidecar
	if err := json.Unmarshal(fileData, &sidecar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sidecar data: %w", err)
	}

	return &sidecar, nil
}
