package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franz/fitkeeper/internal/decode"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
	"github.com/franz/fitkeeper/internal/workout"
)

// fakeSource decodes nothing: it returns canned messages, or a decode
// error for files whose content contains "corrupt"
type fakeSource struct {
	msgs []decode.Message
}

func (f *fakeSource) Open(path string) ([]decode.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, decode.DecodeErrorf("failed to open %s: %v", path, err)
	}
	if strings.Contains(string(data), "corrupt") {
		return nil, decode.DecodeErrorf("invalid header in %s", path)
	}
	return f.msgs, nil
}

func rideMessages() []decode.Message {
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	return []decode.Message{
		{Kind: decode.MsgRecord, Fields: map[string]decode.Value{
			decode.FieldTimestamp: decode.Time(start),
			decode.FieldDistance:  decode.Number(0),
			decode.FieldHeartRate: decode.Number(120),
		}},
		{Kind: decode.MsgRecord, Fields: map[string]decode.Value{
			decode.FieldTimestamp: decode.Time(start.Add(10 * time.Second)),
			decode.FieldDistance:  decode.Number(100),
			decode.FieldHeartRate: decode.Number(140),
		}},
		{Kind: decode.MsgSession, Fields: map[string]decode.Value{
			decode.FieldSport:       decode.String("cycling"),
			decode.FieldStartTime:   decode.Time(start),
			decode.FieldElapsedTime: decode.Number(10),
		}},
	}
}

func testImporter(t *testing.T) (*Importer, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()

	s, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	imp := New(&Config{
		Store:   s,
		Source:  &fakeSource{msgs: rideMessages()},
		DataDir: filepath.Join(dir, "data"),
	})
	return imp, s, dir
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	imp, s, dir := testImporter(t)
	path := writeInput(t, dir, "morning_ride.fit", "ride-bytes")

	outcome := imp.ImportFile(path, store.OriginUpload, "")

	if outcome.Status != StatusImported {
		t.Fatalf("Expected imported, got %s (%v)", outcome.Status, outcome.Err)
	}
	if outcome.WorkoutID == "" {
		t.Error("Expected a workout id")
	}
	if outcome.Hash != util.HashBytes([]byte("ride-bytes")) {
		t.Error("Expected outcome hash to match content")
	}

	w, f, err := s.GetWorkout(outcome.WorkoutID)
	if err != nil || w == nil || f == nil {
		t.Fatalf("Expected stored workout, got %v %v %v", w, f, err)
	}
	if w.Sport != "cycling" {
		t.Errorf("Expected sport cycling, got %q", w.Sport)
	}
	if w.SampleCount != 2 {
		t.Errorf("Expected 2 samples recorded, got %d", w.SampleCount)
	}
	if f.Origin != store.OriginUpload {
		t.Errorf("Expected upload origin, got %q", f.Origin)
	}
	if f.OriginalName != "morning_ride.fit" {
		t.Errorf("Expected original name kept, got %q", f.OriginalName)
	}

	// Raw copy and artifact exist, and the source file is untouched
	if _, err := os.Stat(f.StoredPath); err != nil {
		t.Errorf("Expected raw copy at %s: %v", f.StoredPath, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected source file untouched: %v", err)
	}

	data, err := os.ReadFile(f.ArtifactPath)
	if err != nil {
		t.Fatalf("Expected artifact at %s: %v", f.ArtifactPath, err)
	}
	var artifact workout.Workout
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("Artifact is not valid JSON: %v", err)
	}
	if artifact.Summary.Sport != "cycling" {
		t.Errorf("Expected artifact sport cycling, got %q", artifact.Summary.Sport)
	}
	if len(artifact.Samples) != 2 {
		t.Errorf("Expected 2 artifact samples, got %d", len(artifact.Samples))
	}
}

func TestImportFileDuplicateContent(t *testing.T) {
	imp, s, dir := testImporter(t)

	first := imp.ImportFile(writeInput(t, dir, "a.fit", "same-bytes"), store.OriginUpload, "")
	if first.Status != StatusImported {
		t.Fatalf("First import failed: %v", first.Err)
	}

	// Same content under a different name
	second := imp.ImportFile(writeInput(t, dir, "b.fit", "same-bytes"), store.OriginDevice, "EDGE")
	if second.Status != StatusDuplicate {
		t.Fatalf("Expected duplicate, got %s (%v)", second.Status, second.Err)
	}
	if second.WorkoutID != first.WorkoutID {
		t.Errorf("Expected existing workout id %s, got %s", first.WorkoutID, second.WorkoutID)
	}

	count, err := s.CountWorkouts()
	if err != nil {
		t.Fatalf("CountWorkouts failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 workout, got %d", count)
	}
}

func TestImportFileDecodeFailure(t *testing.T) {
	imp, s, dir := testImporter(t)
	path := writeInput(t, dir, "bad.fit", "corrupt-bytes")

	outcome := imp.ImportFile(path, store.OriginUpload, "")

	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, util.ErrDecode) {
		t.Errorf("Expected decode error, got %v", outcome.Err)
	}

	// Nothing persisted: no rows, no raw copy
	count, _ := s.CountWorkouts()
	if count != 0 {
		t.Errorf("Expected no workouts, got %d", count)
	}
	rawDir := filepath.Join(dir, "data", "raw")
	if entries, err := os.ReadDir(rawDir); err == nil && len(entries) != 0 {
		t.Errorf("Expected raw dir cleaned up, found %d entries", len(entries))
	}
}

func TestImportFileMissing(t *testing.T) {
	imp, _, dir := testImporter(t)

	outcome := imp.ImportFile(filepath.Join(dir, "nope.fit"), store.OriginUpload, "")
	if outcome.Status != StatusFailed {
		t.Errorf("Expected failed for missing file, got %s", outcome.Status)
	}
}

func TestImportBatchContinuesPastFailures(t *testing.T) {
	imp, _, dir := testImporter(t)

	paths := []string{
		writeInput(t, dir, "a.fit", "content-a"),
		writeInput(t, dir, "b.fit", "content-b"),
		writeInput(t, dir, "a2.fit", "content-a"),
		writeInput(t, dir, "b2.fit", "content-b"),
		writeInput(t, dir, "bad.fit", "corrupt"),
	}

	var outcomes []Outcome
	result := imp.ImportBatch(context.Background(), paths, store.OriginUpload, "", func(o Outcome) {
		outcomes = append(outcomes, o)
	})

	if result.Found != 5 {
		t.Errorf("Expected 5 found, got %d", result.Found)
	}
	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if result.Duplicate != 2 {
		t.Errorf("Expected 2 duplicates, got %d", result.Duplicate)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error collected, got %v", result.Errors)
	}
	if len(outcomes) != 5 {
		t.Errorf("Expected callback for every file, got %d", len(outcomes))
	}
}

func TestImportBatchHonorsCancellation(t *testing.T) {
	imp, _, dir := testImporter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := imp.ImportBatch(ctx, []string{writeInput(t, dir, "a.fit", "x")}, store.OriginUpload, "", nil)
	if result.Imported != 0 || result.Failed != 0 {
		t.Errorf("Expected no work after cancellation, got %+v", result)
	}
}

func TestImportConcurrentSameContent(t *testing.T) {
	imp, s, dir := testImporter(t)

	const goroutines = 8
	paths := make([]string, goroutines)
	for i := range paths {
		paths[i] = writeInput(t, dir, "copy-"+string(rune('a'+i))+".fit", "identical-bytes")
	}

	outcomes := make([]Outcome, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			outcomes[i] = imp.ImportFile(paths[i], store.OriginUpload, "")
		}(i)
	}
	wg.Wait()

	imported, duplicate := 0, 0
	for _, o := range outcomes {
		switch o.Status {
		case StatusImported:
			imported++
		case StatusDuplicate:
			duplicate++
		default:
			t.Errorf("Unexpected outcome: %+v", o)
		}
	}
	if imported != 1 {
		t.Errorf("Expected exactly 1 import, got %d", imported)
	}
	if duplicate != goroutines-1 {
		t.Errorf("Expected %d duplicates, got %d", goroutines-1, duplicate)
	}

	count, _ := s.CountWorkouts()
	if count != 1 {
		t.Errorf("Expected 1 stored workout, got %d", count)
	}

	// The surviving row's files must still exist after loser cleanup
	f, err := s.GetFileByHash(util.HashBytes([]byte("identical-bytes")))
	if err != nil || f == nil {
		t.Fatalf("Expected surviving file row, got %v %v", f, err)
	}
	if _, err := os.Stat(f.StoredPath); err != nil {
		t.Errorf("Expected surviving raw copy: %v", err)
	}
	if _, err := os.Stat(f.ArtifactPath); err != nil {
		t.Errorf("Expected surviving artifact: %v", err)
	}
}

func TestImportStoresHealthMetrics(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	msgs := append(rideMessages(), decode.Message{
		Kind: decode.MsgMonitoring,
		Fields: map[string]decode.Value{
			decode.FieldRestingHeartRate: decode.Number(52),
			decode.FieldBodyBattery:      decode.Number(78),
		},
	})
	imp := New(&Config{
		Store:   s,
		Source:  &fakeSource{msgs: msgs},
		DataDir: filepath.Join(dir, "data"),
	})

	outcome := imp.ImportFile(writeInput(t, dir, "day.fit", "with-health"), store.OriginUpload, "")
	if outcome.Status != StatusImported {
		t.Fatalf("Import failed: %v", outcome.Err)
	}

	f, err := s.GetFileByHash(outcome.Hash)
	if err != nil || f == nil {
		t.Fatalf("Expected file row: %v", err)
	}
	metrics, err := s.GetHealthMetrics(f.ID)
	if err != nil {
		t.Fatalf("GetHealthMetrics failed: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("Expected 1 health metric, got %d", len(metrics))
	}
	if metrics[0].RestingHR == nil || *metrics[0].RestingHR != 52 {
		t.Error("Expected resting HR 52")
	}
	// Metric date is the workout start date
	want := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if !metrics[0].MetricDate.Equal(want) {
		t.Errorf("Expected metric date %v, got %v", want, metrics[0].MetricDate)
	}
}
