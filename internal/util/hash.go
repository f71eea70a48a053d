package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// HashBytes computes the SHA-256 content fingerprint of data.
// The fingerprint is the sole deduplication identity of an imported file.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// HashFile computes the SHA-256 content fingerprint of a file on disk
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// SanitizeFilename strips path separators and characters that are unsafe
// in a stored filename, keeping letters, digits, dot, dash and underscore
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "file"
	}
	return out
}

// StoredName derives the deterministic stored filename for raw bytes:
// a timestamp, a hash prefix and the sanitized original name.
// The hash prefix prevents collisions, the rest keeps traceability.
func StoredName(now time.Time, contentHash, originalName string) string {
	prefix := contentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s_%s_%s", now.UTC().Format("20060102_150405"), prefix, SanitizeFilename(originalName))
}
