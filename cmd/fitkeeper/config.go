package main

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/franz/fitkeeper/internal/decode"
	"github.com/franz/fitkeeper/internal/ingest"
	"github.com/franz/fitkeeper/internal/report"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (FITKEEPER_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigStringSlice retrieves a string slice config value
func GetConfigStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// applyLogFlags sets the log level from the global verbose/quiet flags
func applyLogFlags() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// newEventLogger creates the JSONL event logger under the data dir,
// falling back to a no-op logger on failure
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(filepath.Join(viper.GetString("data-dir"), "events"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.DebugLog("Event log: %s", logger.Path())
	}
	return logger
}

// openImporter wires the full import pipeline from global configuration.
// The caller owns closing both returned handles.
func openImporter() (*ingest.Importer, *store.Store, *report.EventLogger, error) {
	dbPath := viper.GetString("db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newEventLogger()

	importer := ingest.New(&ingest.Config{
		Store:   db,
		Source:  decode.NewFitSource(),
		DataDir: viper.GetString("data-dir"),
		Logger:  logger,
	})

	return importer, db, logger, nil
}
