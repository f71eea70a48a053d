package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/fitkeeper/internal/ingest"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import activity files into the archive",
	Long: `Import one or more .fit files.

Each file is hashed, decoded and stored with its derived metrics. A file
whose content was imported before is reported as a duplicate and skipped;
re-running an import is always safe. The source files are left in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
	}

	importer, db, logger, err := openImporter()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	defer logger.Close()

	startTime := time.Now()

	result := importer.ImportBatch(context.Background(), args, store.OriginUpload, "", func(o ingest.Outcome) {
		switch o.Status {
		case ingest.StatusImported:
			util.SuccessLog("Imported %s (workout %s)", o.Path, o.WorkoutID)
		case ingest.StatusDuplicate:
			util.InfoLog("Skipped %s: already imported as %s", o.Path, o.WorkoutID)
		}
	})

	util.InfoLog("")
	util.SuccessLog("Import complete in %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Imported: %d", result.Imported)
	util.InfoLog("  Duplicates: %d", result.Duplicate)
	if result.Failed > 0 {
		util.WarnLog("  Failed: %d", result.Failed)
		for _, msg := range result.Errors {
			util.ErrorLog("  %s", msg)
		}
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", result.Failed, result.Found)
	}
	return nil
}
