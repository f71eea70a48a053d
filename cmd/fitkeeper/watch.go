package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/fitkeeper/internal/device"
	"github.com/franz/fitkeeper/internal/ingest"
	"github.com/franz/fitkeeper/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously import from devices and an inbox directory",
	Long: `Run until interrupted, importing activities from two sources:

1. Plugged-in devices, scanned on a fixed interval
2. An inbox directory, watched for dropped .fit files

Content-based deduplication makes both paths safe: a file seen on the
device and again in the inbox is stored exactly once.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", 5*time.Minute, "device scan interval")
	watchCmd.Flags().String("inbox", "", "inbox directory to watch (disabled when empty)")
	watchCmd.Flags().StringSlice("roots", nil, "mount roots to check for devices")
	watchCmd.Flags().StringSlice("hints", nil, "vendor hints matched against volume names")
}

func runWatch(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	interval, _ := cmd.Flags().GetDuration("interval")
	inbox, _ := cmd.Flags().GetString("inbox")
	if inbox == "" {
		inbox = GetConfigString("inbox", "")
	}
	roots, _ := cmd.Flags().GetStringSlice("roots")
	hints, _ := cmd.Flags().GetStringSlice("hints")

	importer, db, logger, err := openImporter()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := device.New(&device.Config{
		Roots:       roots,
		VendorHints: hints,
	})
	job := ingest.NewJob(importer, scanner, interval)

	errCh := make(chan error, 1)
	if inbox != "" {
		watcher := ingest.NewWatcher(importer, inbox)
		go func() { errCh <- watcher.Run(ctx) }()
	}

	go job.Run(ctx)

	util.InfoLog("Watching (Ctrl-C to stop)")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("inbox watcher failed: %w", err)
		}
	}

	util.InfoLog("Shutting down")
	return nil
}
