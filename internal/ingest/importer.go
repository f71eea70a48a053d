// Package ingest drives the import pipeline: hash, store, decode, derive,
// persist. Import is at-most-once per file content, enforced by the store's
// unique content hash, so every entry point here is safe to retry.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/franz/fitkeeper/internal/decode"
	"github.com/franz/fitkeeper/internal/report"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
	"github.com/franz/fitkeeper/internal/workout"
)

// Status classifies an import attempt
type Status string

const (
	StatusImported  Status = "imported"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Outcome is the result of importing one file
type Outcome struct {
	Status    Status
	WorkoutID string // new id, or the existing id for duplicates
	Hash      string
	Path      string
	Err       error
}

// Importer runs the import pipeline for single files and batches
type Importer struct {
	store   *store.Store
	source  decode.Source
	dataDir string
	logger  *report.EventLogger
	now     func() time.Time
}

// Config holds importer configuration
type Config struct {
	Store   *store.Store
	Source  decode.Source
	DataDir string
	Logger  *report.EventLogger
	Now     func() time.Time // defaults to time.Now
}

// New creates a new Importer
func New(cfg *Config) *Importer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Importer{
		store:   cfg.Store,
		source:  cfg.Source,
		dataDir: cfg.DataDir,
		logger:  cfg.Logger,
		now:     now,
	}
}

// ImportFile imports one activity file. origin is store.OriginUpload or
// store.OriginDevice; deviceSerial may be empty for uploads. The source
// file itself is never modified or removed.
func (i *Importer) ImportFile(path, origin, deviceSerial string) Outcome {
	started := i.now()

	data, err := os.ReadFile(path)
	if err != nil {
		return i.failed(path, "", fmt.Errorf("failed to read %s: %w", path, err))
	}

	hash := util.HashBytes(data)

	// Fast path: content already known. The transactional insert below
	// still catches races between this check and the write.
	if existingID, err := i.store.GetWorkoutIDByHash(hash); err != nil {
		return i.failed(path, hash, fmt.Errorf("%w: %v", util.ErrStorage, err))
	} else if existingID != "" {
		return i.duplicate(path, hash, existingID)
	}

	storedPath, err := i.writeRaw(data, hash, filepath.Base(path))
	if err != nil {
		return i.failed(path, hash, err)
	}

	msgs, err := i.source.Open(storedPath)
	if err != nil {
		os.Remove(storedPath)
		return i.failed(path, hash, err)
	}

	w := workout.Build(msgs)

	artifactPath, err := i.writeArtifact(w, hash)
	if err != nil {
		os.Remove(storedPath)
		return i.failed(path, hash, err)
	}

	workoutID := uuid.NewString()
	file := &store.File{
		ContentHash:  hash,
		OriginalName: filepath.Base(path),
		StoredPath:   storedPath,
		ArtifactPath: artifactPath,
		SizeBytes:    int64(len(data)),
		Origin:       origin,
		DeviceSerial: deviceSerial,
	}

	err = i.store.InsertImport(file, workoutRow(workoutID, w), healthRows(w, started))
	if err == store.ErrDuplicateContent {
		// Lost the race to identical content: discard our copies and
		// point at the surviving workout. The survivor may share our
		// paths (the artifact is keyed by hash), so only remove what
		// it does not reference.
		existing, lookupErr := i.store.GetFileByHash(hash)
		if lookupErr != nil || existing == nil {
			return i.failed(path, hash, fmt.Errorf("%w: lookup after duplicate insert: %v", util.ErrStorage, lookupErr))
		}
		if existing.StoredPath != storedPath {
			os.Remove(storedPath)
		}
		if existing.ArtifactPath != artifactPath {
			os.Remove(artifactPath)
		}
		existingID, lookupErr := i.store.GetWorkoutIDByHash(hash)
		if lookupErr != nil {
			return i.failed(path, hash, fmt.Errorf("%w: %v", util.ErrStorage, lookupErr))
		}
		return i.duplicate(path, hash, existingID)
	}
	if err != nil {
		os.Remove(storedPath)
		os.Remove(artifactPath)
		return i.failed(path, hash, fmt.Errorf("%w: %v", util.ErrStorage, err))
	}

	if i.logger != nil {
		i.logger.LogImport(hash, path, workoutID, origin, i.now().Sub(started))
	}
	util.InfoLog("Imported %s as workout %s", path, workoutID)

	return Outcome{Status: StatusImported, WorkoutID: workoutID, Hash: hash, Path: path}
}

// BatchResult accumulates the outcomes of a multi-file import
type BatchResult struct {
	Found     int
	Imported  int
	Duplicate int
	Failed    int
	Errors    []string
}

// ImportBatch imports a list of files, continuing past per-file failures.
// Cancellation is honored between files; the file in flight completes.
func (i *Importer) ImportBatch(ctx context.Context, paths []string, origin, deviceSerial string, onFile func(Outcome)) *BatchResult {
	result := &BatchResult{Found: len(paths)}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		outcome := i.ImportFile(path, origin, deviceSerial)
		switch outcome.Status {
		case StatusImported:
			result.Imported++
		case StatusDuplicate:
			result.Duplicate++
		case StatusFailed:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, outcome.Err))
		}

		if onFile != nil {
			onFile(outcome)
		}
	}

	return result
}

// writeRaw persists the original bytes under dataDir/raw with a
// collision-free stored name
func (i *Importer) writeRaw(data []byte, hash, originalName string) (string, error) {
	rawDir := filepath.Join(i.dataDir, "raw")
	if err := os.MkdirAll(rawDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create raw dir: %w", err)
	}

	storedPath := filepath.Join(rawDir, util.StoredName(i.now(), hash, originalName))
	if err := os.WriteFile(storedPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to store raw file: %w", err)
	}
	return storedPath, nil
}

// writeArtifact persists the derived workout as JSON under dataDir/parsed,
// keyed by content hash
func (i *Importer) writeArtifact(w *workout.Workout, hash string) (string, error) {
	parsedDir := filepath.Join(i.dataDir, "parsed")
	if err := os.MkdirAll(parsedDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create parsed dir: %w", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}

	artifactPath := filepath.Join(parsedDir, hash+".json")
	if err := os.WriteFile(artifactPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return artifactPath, nil
}

func (i *Importer) duplicate(path, hash, existingID string) Outcome {
	if i.logger != nil {
		i.logger.LogDuplicate(hash, path, existingID)
	}
	util.DebugLog("Skipping %s: content already imported as %s", path, existingID)
	return Outcome{Status: StatusDuplicate, WorkoutID: existingID, Hash: hash, Path: path}
}

func (i *Importer) failed(path, hash string, err error) Outcome {
	if i.logger != nil {
		i.logger.LogError(report.EventImport, path, err)
	}
	util.ErrorLog("Import of %s failed: %v", path, err)
	return Outcome{Status: StatusFailed, Hash: hash, Path: path, Err: err}
}

// workoutRow maps the derived artifact onto its summary row
func workoutRow(id string, w *workout.Workout) *store.Workout {
	row := &store.Workout{
		ID:              id,
		Sport:           w.Summary.Sport,
		DurationSec:     w.Summary.DurationSec,
		DistanceM:       w.Summary.DistanceM,
		Calories:        w.Summary.Calories,
		AvgHeartRate:    w.Summary.AvgHeartRate,
		MaxHeartRate:    w.Summary.MaxHeartRate,
		AvgPower:        w.Summary.AvgPower,
		MaxPower:        w.Summary.MaxPower,
		AvgCadence:      w.Summary.AvgCadence,
		MaxCadence:      w.Summary.MaxCadence,
		AvgSpeed:        w.Summary.AvgSpeed,
		MaxSpeed:        w.Summary.MaxSpeed,
		MinSpeed:        w.Summary.MinSpeed,
		ElevationGainM:  w.Summary.ElevationGainM,
		ElevationLossM:  w.Summary.ElevationLossM,
		HasSensorPower:  w.Quality.HasSensorPower,
		HasDerivedSpeed: w.Quality.HasDerivedSpeed,
		SampleCount:     len(w.Samples),
		GPSPointCount:   len(w.GPS),
	}
	if !w.Summary.StartTime.IsZero() {
		t := w.Summary.StartTime
		row.StartTime = &t
	}
	return row
}

// healthRows maps health-monitoring data onto metric rows. The metric date
// is the workout's start date when known, otherwise the import date.
func healthRows(w *workout.Workout, imported time.Time) []*store.HealthMetric {
	if w.Health == nil {
		return nil
	}

	date := imported.UTC()
	if !w.Summary.StartTime.IsZero() {
		date = w.Summary.StartTime.UTC()
	}
	date = date.Truncate(24 * time.Hour)

	return []*store.HealthMetric{{
		MetricDate:  date,
		RestingHR:   w.Health.RestingHR,
		BodyBattery: w.Health.BodyBattery,
		StressLevel: w.Health.StressLevel,
	}}
}
