package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/fitkeeper/internal/device"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

func hashOf(content string) string {
	return util.HashBytes([]byte(content))
}

func writeDeviceFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestScanDevices(t *testing.T) {
	imp, s, _ := testImporter(t)

	root := t.TempDir()
	activity := filepath.Join(root, "GARMIN-EDGE", "GARMIN", "Activity")
	writeDeviceFile(t, filepath.Join(activity, "a.fit"), "content-a")
	writeDeviceFile(t, filepath.Join(activity, "b.fit"), "content-b")
	writeDeviceFile(t, filepath.Join(activity, "a-again.fit"), "content-a")
	writeDeviceFile(t, filepath.Join(activity, "bad.fit"), "corrupt")

	scanner := device.New(&device.Config{Roots: []string{root}})
	result := imp.ScanDevices(context.Background(), scanner, nil)

	if result.DevicesScanned != 1 {
		t.Errorf("Expected 1 device, got %d", result.DevicesScanned)
	}
	if result.FilesFound != 4 {
		t.Errorf("Expected 4 files found, got %d", result.FilesFound)
	}
	if result.FilesImported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.FilesImported)
	}
	if result.FilesDuplicate != 1 {
		t.Errorf("Expected 1 duplicate, got %d", result.FilesDuplicate)
	}
	if result.FilesFailed != 1 {
		t.Errorf("Expected 1 failure, got %d", result.FilesFailed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error collected, got %v", result.Errors)
	}

	// Device identity is recorded on the files
	f, err := s.GetFileByHash(hashOf("content-a"))
	if err != nil || f == nil {
		t.Fatalf("Expected file row: %v", err)
	}
	if f.Origin != store.OriginDevice {
		t.Errorf("Expected device origin, got %q", f.Origin)
	}
	if f.DeviceSerial != "GARMIN-EDGE" {
		t.Errorf("Expected device serial GARMIN-EDGE, got %q", f.DeviceSerial)
	}
}

func TestScanDevicesNoneFound(t *testing.T) {
	imp, _, _ := testImporter(t)

	scanner := device.New(&device.Config{Roots: []string{t.TempDir()}})
	result := imp.ScanDevices(context.Background(), scanner, nil)

	if result.DevicesScanned != 0 || result.FilesFound != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestScanDevicesIdempotent(t *testing.T) {
	imp, s, _ := testImporter(t)

	root := t.TempDir()
	writeDeviceFile(t, filepath.Join(root, "GARMIN", "GARMIN", "ride.fit"), "ride")

	scanner := device.New(&device.Config{Roots: []string{root}})
	first := imp.ScanDevices(context.Background(), scanner, nil)
	second := imp.ScanDevices(context.Background(), scanner, nil)

	if first.FilesImported != 1 {
		t.Errorf("Expected 1 import on first pass, got %d", first.FilesImported)
	}
	if second.FilesImported != 0 || second.FilesDuplicate != 1 {
		t.Errorf("Expected rescan to dedupe, got %+v", second)
	}

	count, _ := s.CountWorkouts()
	if count != 1 {
		t.Errorf("Expected 1 workout after rescans, got %d", count)
	}
}

func TestJobSkipsOverlappingRuns(t *testing.T) {
	imp, _, _ := testImporter(t)
	scanner := device.New(&device.Config{Roots: []string{t.TempDir()}})
	job := NewJob(imp, scanner, time.Minute)

	// Simulate a pass still in flight
	job.mu.Lock()
	if result := job.RunOnce(context.Background()); result != nil {
		t.Error("Expected overlapping run to be skipped")
	}
	job.mu.Unlock()

	if result := job.RunOnce(context.Background()); result == nil {
		t.Error("Expected run to proceed once the lock is free")
	}
}

func TestJobRunStopsOnCancel(t *testing.T) {
	imp, _, _ := testImporter(t)
	scanner := device.New(&device.Config{Roots: []string{t.TempDir()}})
	job := NewJob(imp, scanner, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Job did not stop after cancellation")
	}
}
