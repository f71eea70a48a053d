package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHashBytesStable(t *testing.T) {
	data := []byte("fit file content")

	h1 := HashBytes(data)
	h2 := HashBytes(data)

	if h1 != h2 {
		t.Errorf("Hash not stable: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars for SHA-256, got %d", len(h1))
	}
	if h1 == HashBytes([]byte("other content")) {
		t.Error("Different content produced identical hash")
	}
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fit")
	data := []byte{0x0e, 0x10, 0x43, 0x08}

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	fileHash, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	if fileHash != HashBytes(data) {
		t.Errorf("HashFile and HashBytes disagree: %s vs %s", fileHash, HashBytes(data))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"morning_ride.fit", "morning_ride.fit"},
		{"../../etc/passwd", "etc_passwd"},
		{"ride (1).fit", "ride__1_.fit"},
		{"übung.fit", "bung.fit"},
		{"...", "file"},
		{"", "file"},
	}

	for _, tt := range tests {
		got := SanitizeFilename(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.ContainsAny(got, "/\\") {
			t.Errorf("SanitizeFilename(%q) kept a path separator: %q", tt.in, got)
		}
	}
}

func TestStoredName(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	hash := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"

	got := StoredName(now, hash, "morning ride.fit")
	want := "20250314_092653_abcdef01_morning_ride.fit"
	if got != want {
		t.Errorf("StoredName = %q, want %q", got, want)
	}
}
