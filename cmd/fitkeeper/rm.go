package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

var rmCmd = &cobra.Command{
	Use:   "rm <workout-id>...",
	Short: "Remove workouts from the archive",
	Long: `Delete workouts by id, including their stored raw files and parsed
artifacts. The content hash is freed, so the same file can be imported
again afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	failures := 0
	for _, id := range args {
		storedPath, artifactPath, err := db.DeleteWorkout(id)
		if err != nil {
			util.ErrorLog("Failed to delete %s: %v", id, err)
			failures++
			continue
		}
		if storedPath == "" {
			util.WarnLog("No workout with id %s", id)
			failures++
			continue
		}

		// Rows are gone; leftover files are a warning, not a failure
		if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
			util.WarnLog("Failed to remove raw file %s: %v", storedPath, err)
		}
		if err := os.Remove(artifactPath); err != nil && !os.IsNotExist(err) {
			util.WarnLog("Failed to remove artifact %s: %v", artifactPath, err)
		}

		logger.LogDelete(id, storedPath)
		util.SuccessLog("Removed workout %s", id)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d removals failed", failures, len(args))
	}
	return nil
}
