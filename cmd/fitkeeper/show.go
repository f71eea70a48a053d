package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
	"github.com/franz/fitkeeper/internal/workout"
)

var showCmd = &cobra.Command{
	Use:   "show [workout-id]",
	Short: "Show archived workouts",
	Long: `Without arguments, list archived workouts newest first.

With a workout id, show the full detail for that workout: summary
metrics, source file, route and health data.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("sport", "", "only list workouts of this sport")
	showCmd.Flags().Int("limit", 25, "maximum number of workouts to list")
	showCmd.Flags().Int("offset", 0, "number of workouts to skip")
}

func runShow(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		return showWorkout(db, args[0])
	}

	sport, _ := cmd.Flags().GetString("sport")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return listWorkouts(db, sport, limit, offset)
}

func listWorkouts(db *store.Store, sport string, limit, offset int) error {
	workouts, err := db.ListWorkouts(sport, limit, offset)
	if err != nil {
		return fmt.Errorf("failed to list workouts: %w", err)
	}

	if len(workouts) == 0 {
		util.WarnLog("No workouts in the archive. Run 'fitkeeper import' or 'fitkeeper scan' first.")
		return nil
	}

	total, _ := db.CountWorkouts()
	util.InfoLog("=== Workouts (%d of %d) ===", len(workouts), total)
	util.InfoLog("")

	for _, w := range workouts {
		start := "unknown time"
		if w.StartTime != nil {
			start = w.StartTime.Local().Format("2006-01-02 15:04")
		}
		sport := w.Sport
		if sport == "" {
			sport = "unknown"
		}

		line := fmt.Sprintf("%s  %-10s %s", w.ID, sport, start)
		if w.DistanceM != nil {
			line += fmt.Sprintf("  %6.1f km", *w.DistanceM/1000)
		}
		if w.DurationSec != nil {
			line += "  " + (time.Duration(*w.DurationSec) * time.Second).String()
		}
		util.InfoLog("%s", line)
	}

	counts, err := db.CountBySport()
	if err == nil && len(counts) > 1 {
		util.InfoLog("")
		util.InfoLog("By sport:")
		for sport, count := range counts {
			util.InfoLog("  %s: %d", sport, count)
		}
	}

	return nil
}

func showWorkout(db *store.Store, id string) error {
	w, f, err := db.GetWorkout(id)
	if err != nil {
		return fmt.Errorf("failed to get workout: %w", err)
	}
	if w == nil {
		return fmt.Errorf("no workout with id %s", id)
	}

	util.InfoLog("=== Workout %s ===", w.ID)
	if w.Sport != "" {
		util.InfoLog("Sport: %s", w.Sport)
	}
	if w.StartTime != nil {
		util.InfoLog("Start: %s", w.StartTime.Local().Format(time.RFC1123))
	}
	if w.DurationSec != nil {
		util.InfoLog("Duration: %s", (time.Duration(*w.DurationSec) * time.Second).String())
	}
	if w.DistanceM != nil {
		util.InfoLog("Distance: %.2f km", *w.DistanceM/1000)
	}
	if w.Calories != nil {
		util.InfoLog("Calories: %.0f", *w.Calories)
	}

	showMetric := func(name, unit string, avg, max *float64) {
		if avg == nil && max == nil {
			return
		}
		line := name + ":"
		if avg != nil {
			line += fmt.Sprintf(" avg %.1f%s", *avg, unit)
		}
		if max != nil {
			line += fmt.Sprintf(" max %.1f%s", *max, unit)
		}
		util.InfoLog("%s", line)
	}
	showMetric("Heart rate", " bpm", w.AvgHeartRate, w.MaxHeartRate)
	showMetric("Power", " W", w.AvgPower, w.MaxPower)
	showMetric("Cadence", " rpm", w.AvgCadence, w.MaxCadence)
	showMetric("Speed", " m/s", w.AvgSpeed, w.MaxSpeed)
	if w.ElevationGainM != nil {
		util.InfoLog("Elevation: +%.0f m", *w.ElevationGainM)
	}

	util.InfoLog("")
	util.InfoLog("Samples: %d (%d with GPS)", w.SampleCount, w.GPSPointCount)
	if w.HasSensorPower {
		util.InfoLog("Power source: sensor")
	}
	if w.HasDerivedSpeed {
		util.InfoLog("Speed source: derived from distance")
	}

	if f != nil {
		util.InfoLog("")
		util.InfoLog("Source file:")
		util.InfoLog("  Name: %s (%s)", f.OriginalName, humanize.Bytes(uint64(f.SizeBytes)))
		util.InfoLog("  Origin: %s", f.Origin)
		if f.DeviceSerial != "" {
			util.InfoLog("  Device: %s", f.DeviceSerial)
		}
		util.InfoLog("  Hash: %s", f.ContentHash)
		util.InfoLog("  Imported: %s", humanize.Time(f.ImportedAt))
		util.InfoLog("  Raw: %s", f.StoredPath)

		showRoute(f.ArtifactPath)
		showHealth(db, f.ID)
	}

	return nil
}

// showRoute reads the parsed artifact for route details the summary row
// does not carry
func showRoute(artifactPath string) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		util.DebugLog("Artifact not readable: %v", err)
		return
	}
	var artifact workout.Workout
	if err := json.Unmarshal(data, &artifact); err != nil {
		util.WarnLog("Artifact %s is not valid JSON: %v", artifactPath, err)
		return
	}
	if artifact.Route == nil {
		return
	}

	r := artifact.Route
	util.InfoLog("")
	util.InfoLog("Route: %d points", r.PointCount)
	util.InfoLog("  Start: %.5f, %.5f", r.Start.Lat, r.Start.Lon)
	util.InfoLog("  End: %.5f, %.5f", r.End.Lat, r.End.Lon)
	util.InfoLog("  Bounds: N %.5f S %.5f E %.5f W %.5f",
		r.Bounds.North, r.Bounds.South, r.Bounds.East, r.Bounds.West)
}

func showHealth(db *store.Store, fileID int64) {
	metrics, err := db.GetHealthMetrics(fileID)
	if err != nil || len(metrics) == 0 {
		return
	}

	util.InfoLog("")
	util.InfoLog("Health:")
	for _, m := range metrics {
		line := "  " + m.MetricDate.Format("2006-01-02") + ":"
		if m.RestingHR != nil {
			line += fmt.Sprintf(" resting HR %.0f", *m.RestingHR)
		}
		if m.BodyBattery != nil {
			line += fmt.Sprintf(" body battery %.0f", *m.BodyBattery)
		}
		if m.StressLevel != nil {
			line += fmt.Sprintf(" stress %.0f", *m.StressLevel)
		}
		util.InfoLog("%s", line)
	}
}
