package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan      EventType = "scan"
	EventDiscover  EventType = "discover"
	EventImport    EventType = "import"
	EventDuplicate EventType = "duplicate"
	EventDelete    EventType = "delete"
	EventWatch     EventType = "watch"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the import pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Hash      string            `json:"hash,omitempty"`
	Path      string            `json:"path,omitempty"`
	WorkoutID string            `json:"workout_id,omitempty"`
	Origin    string            `json:"origin,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogDiscover logs a discovered candidate file
func (l *EventLogger) LogDiscover(path string, sizeBytes int64) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventDiscover,
		Path:  path,
		Extra: map[string]string{
			"size_bytes": fmt.Sprintf("%d", sizeBytes),
		},
	})
}

// LogImport logs a completed import
func (l *EventLogger) LogImport(hash, path, workoutID, origin string, duration time.Duration) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventImport,
		Hash:      hash,
		Path:      path,
		WorkoutID: workoutID,
		Origin:    origin,
		Duration:  duration.Milliseconds(),
	})
}

// LogDuplicate logs a file skipped because its content was already imported
func (l *EventLogger) LogDuplicate(hash, path, existingWorkoutID string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventDuplicate,
		Hash:      hash,
		Path:      path,
		WorkoutID: existingWorkoutID,
		Reason:    "content already imported",
	})
}

// LogScan logs the outcome of a device scan pass
func (l *EventLogger) LogScan(devices, found, imported, duplicate, failed int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventScan,
		Extra: map[string]string{
			"devices":   fmt.Sprintf("%d", devices),
			"found":     fmt.Sprintf("%d", found),
			"imported":  fmt.Sprintf("%d", imported),
			"duplicate": fmt.Sprintf("%d", duplicate),
			"failed":    fmt.Sprintf("%d", failed),
		},
	})
}

// LogDelete logs a workout removal
func (l *EventLogger) LogDelete(workoutID, storedPath string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventDelete,
		WorkoutID: workoutID,
		Path:      storedPath,
	})
}

// LogWatch logs inbox watcher activity
func (l *EventLogger) LogWatch(path, reason string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventWatch,
		Path:   path,
		Reason: reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
