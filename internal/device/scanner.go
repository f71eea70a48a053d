// Package device discovers mounted activity recorders and the .fit files
// they carry.
package device

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/fitkeeper/internal/util"
)

// DefaultRoots are the directories checked for mounted devices
var DefaultRoots = []string{
	"/media",
	"/mnt",
	"/run/media",
	"/Volumes",
}

// DefaultVendorHints mark a mount as an activity recorder when its volume
// name contains one of them (case-insensitive)
var DefaultVendorHints = []string{
	"GARMIN",
}

// wellKnownActivityDirs are checked in order before falling back to a
// breadth-first search. Relative to the mount root.
var wellKnownActivityDirs = []string{
	".",
	"GARMIN",
	filepath.Join("GARMIN", "Activity"),
	filepath.Join("GARMIN", "Activities"),
	"Activity",
	"Activities",
}

// maxSearchDepth bounds the fallback search so a scan never crawls a whole
// backup disk
const maxSearchDepth = 3

// Mount represents one detected device mount
type Mount struct {
	Path        string   // mount root
	Serial      string   // volume name, used as device identity
	ActivityDir string   // directory holding the activity files
	Files       []string // absolute paths of .fit files in ActivityDir
}

// Scanner finds device mounts that look like activity recorders
type Scanner struct {
	roots       []string
	vendorHints []string
}

// Config holds scanner configuration
type Config struct {
	Roots       []string
	VendorHints []string
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	roots := cfg.Roots
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	hints := cfg.VendorHints
	if len(hints) == 0 {
		hints = DefaultVendorHints
	}

	lowered := make([]string, len(hints))
	for i, h := range hints {
		lowered[i] = strings.ToLower(h)
	}

	return &Scanner{
		roots:       roots,
		vendorHints: lowered,
	}
}

// Discover returns the activity-recorder mounts currently visible, sorted
// by mount path so repeated scans see devices in a stable order.
func (s *Scanner) Discover() []*Mount {
	var mounts []*Mount

	for _, root := range s.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			// Roots that don't exist on this host are expected
			util.DebugLog("Skipping mount root %s: %v", root, err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			mountPath := filepath.Join(root, entry.Name())

			if !s.looksLikeDevice(mountPath, entry.Name()) {
				continue
			}

			activityDir := findActivityDir(mountPath)
			if activityDir == "" {
				util.DebugLog("No activity directory on %s", mountPath)
				continue
			}

			files, err := listActivityFiles(activityDir)
			if err != nil {
				util.WarnLog("Failed to list %s: %v", activityDir, err)
				continue
			}

			mounts = append(mounts, &Mount{
				Path:        mountPath,
				Serial:      entry.Name(),
				ActivityDir: activityDir,
				Files:       files,
			})
		}
	}

	sort.Slice(mounts, func(i, j int) bool { return mounts[i].Path < mounts[j].Path })
	return mounts
}

// looksLikeDevice reports whether a mount should be treated as an activity
// recorder: either its volume name matches a vendor hint, or it carries a
// GARMIN directory at the root.
func (s *Scanner) looksLikeDevice(mountPath, volumeName string) bool {
	lowered := strings.ToLower(volumeName)
	for _, hint := range s.vendorHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}

	if info, err := os.Stat(filepath.Join(mountPath, "GARMIN")); err == nil && info.IsDir() {
		return true
	}

	return false
}

// findActivityDir picks the directory that holds the .fit files. Well-known
// locations are tried first; otherwise a bounded breadth-first search runs
// with entries visited in sorted order, so the same tree always resolves to
// the same directory (shallowest match wins).
func findActivityDir(mountPath string) string {
	for _, rel := range wellKnownActivityDirs {
		dir := filepath.Join(mountPath, rel)
		if hasActivityFiles(dir) {
			return dir
		}
	}

	queue := []struct {
		path  string
		depth int
	}{{mountPath, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if hasActivityFiles(current.path) {
			return current.path
		}
		if current.depth >= maxSearchDepth {
			continue
		}

		entries, err := os.ReadDir(current.path)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, struct {
					path  string
					depth int
				}{filepath.Join(current.path, entry.Name()), current.depth + 1})
			}
		}
	}

	return ""
}

// hasActivityFiles reports whether dir directly contains at least one .fit
// file
func hasActivityFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && isActivityFile(entry.Name()) {
			return true
		}
	}
	return false
}

// listActivityFiles returns the .fit files directly inside dir, sorted by
// name. Subdirectories are not searched.
func listActivityFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isActivityFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// isActivityFile checks if a file has the .fit extension
func isActivityFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".fit")
}
