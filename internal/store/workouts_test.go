package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testFile(hash string) *File {
	return &File{
		ContentHash:  hash,
		OriginalName: "ride.fit",
		StoredPath:   "/data/raw/20250501_080000_" + hash[:8] + "_ride.fit",
		ArtifactPath: "/data/parsed/" + hash + ".json",
		SizeBytes:    4096,
		Origin:       OriginUpload,
	}
}

func testWorkout(id string) *Workout {
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	dur := 3600.0
	dist := 30000.0
	avg := 8.3
	return &Workout{
		ID:          id,
		Sport:       "cycling",
		StartTime:   &start,
		DurationSec: &dur,
		DistanceM:   &dist,
		AvgSpeed:    &avg,
		SampleCount: 1200,
	}
}

func TestInsertImportAndGet(t *testing.T) {
	s := testStore(t)

	hash := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	f := testFile(hash)
	w := testWorkout("w-1")

	if err := s.InsertImport(f, w, nil); err != nil {
		t.Fatalf("InsertImport failed: %v", err)
	}
	if f.ID == 0 {
		t.Error("Expected file id to be populated")
	}
	if w.FileID != f.ID {
		t.Errorf("Expected workout file id %d, got %d", f.ID, w.FileID)
	}

	got, gotFile, err := s.GetWorkout("w-1")
	if err != nil {
		t.Fatalf("GetWorkout failed: %v", err)
	}
	if got == nil || gotFile == nil {
		t.Fatal("Expected workout and file")
	}
	if got.Sport != "cycling" {
		t.Errorf("Expected sport cycling, got %q", got.Sport)
	}
	if got.StartTime == nil || !got.StartTime.Equal(*w.StartTime) {
		t.Errorf("Expected start time %v, got %v", w.StartTime, got.StartTime)
	}
	if got.DurationSec == nil || *got.DurationSec != 3600 {
		t.Error("Expected duration 3600")
	}
	if got.MaxSpeed != nil {
		t.Error("Expected absent max speed to stay nil")
	}
	if gotFile.ContentHash != hash {
		t.Errorf("Expected content hash %q, got %q", hash, gotFile.ContentHash)
	}
}

func TestInsertImportDuplicateHash(t *testing.T) {
	s := testStore(t)

	hash := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	if err := s.InsertImport(testFile(hash), testWorkout("w-1"), nil); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := s.InsertImport(testFile(hash), testWorkout("w-2"), nil)
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("Expected ErrDuplicateContent, got %v", err)
	}

	// The duplicate transaction must leave no trace
	count, err := s.CountWorkouts()
	if err != nil {
		t.Fatalf("CountWorkouts failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 workout after duplicate insert, got %d", count)
	}

	id, err := s.GetWorkoutIDByHash(hash)
	if err != nil {
		t.Fatalf("GetWorkoutIDByHash failed: %v", err)
	}
	if id != "w-1" {
		t.Errorf("Expected original workout id w-1, got %q", id)
	}
}

func TestGetFileByHashMissing(t *testing.T) {
	s := testStore(t)

	f, err := s.GetFileByHash("nope")
	if err != nil {
		t.Fatalf("GetFileByHash failed: %v", err)
	}
	if f != nil {
		t.Errorf("Expected nil for unknown hash, got %+v", f)
	}

	id, err := s.GetWorkoutIDByHash("nope")
	if err != nil {
		t.Fatalf("GetWorkoutIDByHash failed: %v", err)
	}
	if id != "" {
		t.Errorf("Expected empty id for unknown hash, got %q", id)
	}
}

func TestListWorkoutsFilterAndOrder(t *testing.T) {
	s := testStore(t)

	for i, tc := range []struct {
		id    string
		sport string
		hour  int
	}{
		{"w-1", "cycling", 8},
		{"w-2", "running", 9},
		{"w-3", "cycling", 10},
	} {
		hash := string(rune('a'+i)) + "000000000000000000000000000000000000000000000000000000000000000"
		w := testWorkout(tc.id)
		w.Sport = tc.sport
		start := time.Date(2025, 5, 1, tc.hour, 0, 0, 0, time.UTC)
		w.StartTime = &start
		if err := s.InsertImport(testFile(hash), w, nil); err != nil {
			t.Fatalf("Insert %s failed: %v", tc.id, err)
		}
	}

	all, err := s.ListWorkouts("", 10, 0)
	if err != nil {
		t.Fatalf("ListWorkouts failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 workouts, got %d", len(all))
	}
	if all[0].ID != "w-3" || all[2].ID != "w-1" {
		t.Errorf("Expected newest first, got %s..%s", all[0].ID, all[2].ID)
	}

	cycling, err := s.ListWorkouts("cycling", 10, 0)
	if err != nil {
		t.Fatalf("ListWorkouts(cycling) failed: %v", err)
	}
	if len(cycling) != 2 {
		t.Errorf("Expected 2 cycling workouts, got %d", len(cycling))
	}

	counts, err := s.CountBySport()
	if err != nil {
		t.Fatalf("CountBySport failed: %v", err)
	}
	if counts["cycling"] != 2 || counts["running"] != 1 {
		t.Errorf("Unexpected sport counts: %v", counts)
	}
}

func TestHealthMetricsRoundTrip(t *testing.T) {
	s := testStore(t)

	hash := "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
	f := testFile(hash)
	resting := 52.0
	battery := 78.0
	health := []*HealthMetric{{
		MetricDate:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		RestingHR:   &resting,
		BodyBattery: &battery,
	}}

	if err := s.InsertImport(f, testWorkout("w-1"), health); err != nil {
		t.Fatalf("InsertImport failed: %v", err)
	}

	got, err := s.GetHealthMetrics(f.ID)
	if err != nil {
		t.Fatalf("GetHealthMetrics failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 health metric, got %d", len(got))
	}
	if got[0].RestingHR == nil || *got[0].RestingHR != 52 {
		t.Error("Expected resting HR 52")
	}
	if got[0].StressLevel != nil {
		t.Error("Expected absent stress level to stay nil")
	}
}

func TestDeleteWorkout(t *testing.T) {
	s := testStore(t)

	hash := "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
	f := testFile(hash)
	resting := 50.0
	if err := s.InsertImport(f, testWorkout("w-1"), []*HealthMetric{{
		MetricDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		RestingHR:  &resting,
	}}); err != nil {
		t.Fatalf("InsertImport failed: %v", err)
	}

	storedPath, artifactPath, err := s.DeleteWorkout("w-1")
	if err != nil {
		t.Fatalf("DeleteWorkout failed: %v", err)
	}
	if storedPath != f.StoredPath || artifactPath != f.ArtifactPath {
		t.Errorf("Expected file paths back, got %q %q", storedPath, artifactPath)
	}

	w, _, err := s.GetWorkout("w-1")
	if err != nil {
		t.Fatalf("GetWorkout after delete failed: %v", err)
	}
	if w != nil {
		t.Error("Expected workout gone")
	}
	file, err := s.GetFileByHash(hash)
	if err != nil {
		t.Fatalf("GetFileByHash after delete failed: %v", err)
	}
	if file != nil {
		t.Error("Expected file row gone")
	}
	metrics, err := s.GetHealthMetrics(f.ID)
	if err != nil {
		t.Fatalf("GetHealthMetrics after delete failed: %v", err)
	}
	if len(metrics) != 0 {
		t.Error("Expected health metrics gone")
	}

	// Deleting an unknown id is not an error
	sp, ap, err := s.DeleteWorkout("missing")
	if err != nil || sp != "" || ap != "" {
		t.Errorf("Expected no-op delete, got %q %q %v", sp, ap, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	if err := s2.CheckIntegrity(); err != nil {
		t.Errorf("Integrity check failed: %v", err)
	}
}
