package download

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelsos/artisan/internal/logger"
)

// ModelSource opens the artifact produced by a finished task
type ModelSource interface {
	OpenModel(ctx context.Context, taskID string) (io.ReadCloser, string, error)
}

// Result describes a model saved to disk
type Result struct {
	TaskID   string
	Path     string
	Size     int64
	Checksum string
}

// ensureDir ensures that the output directory exists
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		logger.Info("Created output directory at %s", dir)
	}
	return nil
}

// Model downloads the artifact of taskID into outputDir and returns where it went
func Model(ctx context.Context, source ModelSource, taskID, outputDir string) (*Result, error) {
	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}

	body, fileName, err := source.OpenModel(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to download model for task %s: %w", taskID, err)
	}
	defer body.Close()

	dest := filepath.Join(outputDir, fileName)
	logger.Info("Downloading model for task %s to %s...", taskID, dest)

	size, err := writeFile(body, dest)
	if err != nil {
		return nil, err
	}

	checksum, err := calculateChecksum(dest)
	if err != nil {
		return nil, err
	}

	logger.Info("Model download complete (%d KB)", size/1024)
	logger.Debug("SHA-512 %s: %s", dest, checksum)

	return &Result{
		TaskID:   taskID,
		Path:     dest,
		Size:     size,
		Checksum: checksum,
	}, nil
}

// writeFile streams src into dest, removing the partial file on failure
func writeFile(src io.Reader, dest string) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", dest, err)
	}

	size, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("failed to write file %s: %w", dest, err)
	}

	return size, nil
}

// calculateChecksum calculates the SHA512 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hash := sha512.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
