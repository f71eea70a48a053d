package ingest

import (
	"context"

	"github.com/franz/fitkeeper/internal/device"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

// ScanResult summarizes one device scan pass
type ScanResult struct {
	DevicesScanned int
	FilesFound     int
	FilesImported  int
	FilesDuplicate int
	FilesFailed    int
	Errors         []string
}

// ScanDevices discovers mounted activity recorders and imports every file
// they carry. Per-file failures are collected, never fatal: a corrupt file
// on a device must not block the rest of it.
func (i *Importer) ScanDevices(ctx context.Context, scanner *device.Scanner, onFile func(Outcome)) *ScanResult {
	result := &ScanResult{}

	mounts := scanner.Discover()
	result.DevicesScanned = len(mounts)
	if len(mounts) == 0 {
		util.InfoLog("No devices found")
		return result
	}

	for _, mount := range mounts {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		util.InfoLog("Scanning %s (%d files)", mount.Path, len(mount.Files))
		if i.logger != nil {
			for _, f := range mount.Files {
				i.logger.LogDiscover(f, 0)
			}
		}

		batch := i.ImportBatch(ctx, mount.Files, store.OriginDevice, mount.Serial, onFile)
		result.FilesFound += batch.Found
		result.FilesImported += batch.Imported
		result.FilesDuplicate += batch.Duplicate
		result.FilesFailed += batch.Failed
		result.Errors = append(result.Errors, batch.Errors...)
	}

	if i.logger != nil {
		i.logger.LogScan(result.DevicesScanned, result.FilesFound,
			result.FilesImported, result.FilesDuplicate, result.FilesFailed)
	}
	util.InfoLog("Scan complete: %d devices, %d files (%d imported, %d duplicate, %d failed)",
		result.DevicesScanned, result.FilesFound,
		result.FilesImported, result.FilesDuplicate, result.FilesFailed)

	return result
}
