package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franz/fitkeeper/internal/device"
	"github.com/franz/fitkeeper/internal/ingest"
	"github.com/franz/fitkeeper/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan plugged-in devices and import their activities",
	Long: `Look for mounted activity recorders and import every .fit file
they carry.

Mount roots like /media and /run/media are checked for volumes that look
like a recorder (GARMIN by default). Files already in the archive are
skipped, so scanning after every ride only picks up what is new.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSlice("roots", nil, "mount roots to check (default /media, /mnt, /run/media, /Volumes)")
	scanCmd.Flags().StringSlice("hints", nil, "vendor hints matched against volume names (default GARMIN)")
}

func runScan(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	roots, _ := cmd.Flags().GetStringSlice("roots")
	if len(roots) == 0 {
		roots = GetConfigStringSlice("roots")
	}
	hints, _ := cmd.Flags().GetStringSlice("hints")
	if len(hints) == 0 {
		hints = GetConfigStringSlice("hints")
	}

	importer, db, logger, err := openImporter()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	defer logger.Close()

	scanner := device.New(&device.Config{
		Roots:       roots,
		VendorHints: hints,
	})

	// Progress bar on TTY only
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	startTime := time.Now()

	result := importer.ScanDevices(context.Background(), scanner, func(o ingest.Outcome) {
		if bar != nil {
			bar.Add(1)
		}
	})

	if bar != nil {
		bar.Finish()
	}

	if result.DevicesScanned == 0 {
		util.WarnLog("No devices found. Is the recorder plugged in and mounted?")
		return nil
	}

	util.SuccessLog("Scan complete in %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Devices: %d", result.DevicesScanned)
	util.InfoLog("  Files found: %d", result.FilesFound)
	util.InfoLog("  Imported: %d", result.FilesImported)
	util.InfoLog("  Duplicates: %d", result.FilesDuplicate)
	if result.FilesFailed > 0 {
		util.WarnLog("  Failed: %d", result.FilesFailed)
		for _, msg := range result.Errors {
			util.ErrorLog("  %s", msg)
		}
	}

	return nil
}
