package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LevelVariable selects the log level by name, e.g. "warn"
const LevelVariable = "ARTISAN_LOG_LEVEL"

var log = zerolog.Nop()
var logFile *os.File

// Init logs to stdout in human-readable form
func Init() {
	SetOutput(os.Stdout)
	setLevel()
}

// InitFileOnly routes logs to logs/artisan_<timestamp>.log so the TUI keeps
// the terminal to itself
func InitFileOnly() error {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("artisan_%s.log", timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	logFile = file

	// JSON lines are easier to grep after the session
	log = zerolog.New(file).With().Timestamp().Logger()
	setLevel()

	Info("Logger initialized in file-only mode: %s", logPath)
	return nil
}

// setLevel applies DEBUG or ARTISAN_LOG_LEVEL, defaulting to info
func setLevel() {
	level := zerolog.InfoLevel

	if name := strings.TrimSpace(os.Getenv(LevelVariable)); name != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
			level = parsed
		}
	}
	if _, exists := os.LookupEnv("DEBUG"); exists {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)
}

// Close closes the log file if it's open and returns to console output
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
		SetOutput(os.Stdout)
	}
}

// SetOutput sets the output destination for the logger
func SetOutput(w io.Writer) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return fmt.Sprintf("[%s]", i)
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	log = zerolog.New(output).With().Timestamp().Logger()
}

func Debug(msg string, args ...interface{}) {
	log.Debug().Msgf(msg, args...)
}

func Info(msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

func Error(msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Fatal logs and exits with status 1, even when the logger is disabled
func Fatal(msg string, args ...interface{}) {
	log.Fatal().Msgf(msg, args...)
	os.Exit(1)
}
