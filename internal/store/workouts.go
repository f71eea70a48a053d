package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateContent reports that a files row with the same content hash
// already exists. Not a failure: callers translate it into a duplicate
// import outcome.
var ErrDuplicateContent = errors.New("duplicate content")

// File represents one imported source file
type File struct {
	ID           int64
	ContentHash  string
	OriginalName string
	StoredPath   string
	ArtifactPath string
	SizeBytes    int64
	Origin       string // "upload" or "device"
	DeviceSerial string
	ImportedAt   time.Time
}

// Origin values for File
const (
	OriginUpload = "upload"
	OriginDevice = "device"
)

// Workout represents the persisted workout summary for a file
type Workout struct {
	ID              string
	FileID          int64
	Sport           string
	StartTime       *time.Time
	DurationSec     *float64
	DistanceM       *float64
	Calories        *float64
	AvgHeartRate    *float64
	MaxHeartRate    *float64
	AvgPower        *float64
	MaxPower        *float64
	AvgCadence      *float64
	MaxCadence      *float64
	AvgSpeed        *float64
	MaxSpeed        *float64
	MinSpeed        *float64
	ElevationGainM  *float64
	ElevationLossM  *float64
	HasSensorPower  bool
	HasDerivedSpeed bool
	SampleCount     int
	GPSPointCount   int
	CreatedAt       time.Time
}

// HealthMetric represents one health-monitoring row for a file
type HealthMetric struct {
	ID          int64
	FileID      int64
	MetricDate  time.Time
	RestingHR   *float64
	BodyBattery *float64
	StressLevel *float64
}

// InsertImport persists a file and its derived workout (plus any health
// metrics) in one transaction. The UNIQUE constraint on content_hash makes
// the check-and-insert atomic: racing importers of identical bytes resolve
// to exactly one stored pair, everyone else gets ErrDuplicateContent.
func (s *Store) InsertImport(f *File, w *Workout, health []*HealthMetric) error {
	return s.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO files (
				content_hash, original_name, stored_path, artifact_path,
				size_bytes, origin, device_serial
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, f.ContentHash, f.OriginalName, f.StoredPath, f.ArtifactPath,
			f.SizeBytes, f.Origin, nullString(f.DeviceSerial))
		if err != nil {
			if isUniqueViolation(err, "files.content_hash") {
				return ErrDuplicateContent
			}
			return fmt.Errorf("failed to insert file: %w", err)
		}

		fileID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get file id: %w", err)
		}
		f.ID = fileID
		w.FileID = fileID

		_, err = tx.Exec(`
			INSERT INTO workouts (
				id, file_id, sport, start_time, duration_s, distance_m, calories,
				avg_heart_rate, max_heart_rate, avg_power_w, max_power_w,
				avg_cadence, max_cadence, avg_speed_mps, max_speed_mps, min_speed_mps,
				elevation_gain_m, elevation_loss_m,
				has_sensor_power, has_derived_speed, sample_count, gps_point_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, w.ID, fileID, nullString(w.Sport), nullTime(w.StartTime),
			nullFloat(w.DurationSec), nullFloat(w.DistanceM), nullFloat(w.Calories),
			nullFloat(w.AvgHeartRate), nullFloat(w.MaxHeartRate),
			nullFloat(w.AvgPower), nullFloat(w.MaxPower),
			nullFloat(w.AvgCadence), nullFloat(w.MaxCadence),
			nullFloat(w.AvgSpeed), nullFloat(w.MaxSpeed), nullFloat(w.MinSpeed),
			nullFloat(w.ElevationGainM), nullFloat(w.ElevationLossM),
			boolInt(w.HasSensorPower), boolInt(w.HasDerivedSpeed),
			w.SampleCount, w.GPSPointCount)
		if err != nil {
			return fmt.Errorf("failed to insert workout: %w", err)
		}

		for _, h := range health {
			_, err = tx.Exec(`
				INSERT INTO health_metrics (file_id, metric_date, resting_hr, body_battery, stress_level)
				VALUES (?, ?, ?, ?, ?)
			`, fileID, h.MetricDate.UTC().Format(time.RFC3339),
				nullFloat(h.RestingHR), nullFloat(h.BodyBattery), nullFloat(h.StressLevel))
			if err != nil {
				return fmt.Errorf("failed to insert health metric: %w", err)
			}
		}

		return nil
	})
}

// GetFileByHash returns the file with the given content hash, or nil if
// none exists
func (s *Store) GetFileByHash(hash string) (*File, error) {
	return scanFile(s.db.QueryRow(fileColumns+" WHERE content_hash = ?", hash))
}

// GetFileByID returns the file with the given id, or nil if none exists
func (s *Store) GetFileByID(id int64) (*File, error) {
	return scanFile(s.db.QueryRow(fileColumns+" WHERE id = ?", id))
}

// GetWorkoutIDByHash returns the workout id stored for a content hash, or
// "" if the hash is unknown
func (s *Store) GetWorkoutIDByHash(hash string) (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT w.id FROM workouts w
		INNER JOIN files f ON f.id = w.file_id
		WHERE f.content_hash = ?
	`, hash).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up workout by hash: %w", err)
	}
	return id, nil
}

// GetWorkout returns a workout and its source file by workout id, or
// (nil, nil, nil) if the id is unknown
func (s *Store) GetWorkout(id string) (*Workout, *File, error) {
	w, err := scanWorkout(s.db.QueryRow(workoutColumns+" WHERE id = ?", id))
	if err != nil || w == nil {
		return nil, nil, err
	}

	f, err := s.GetFileByID(w.FileID)
	if err != nil {
		return nil, nil, err
	}
	return w, f, nil
}

// ListWorkouts returns workouts ordered by start time descending. An empty
// sport matches all sports.
func (s *Store) ListWorkouts(sport string, limit, offset int) ([]*Workout, error) {
	if limit <= 0 {
		limit = 50
	}

	query := workoutColumns
	args := []interface{}{}
	if sport != "" {
		query += " WHERE sport = ?"
		args = append(args, sport)
	}
	query += " ORDER BY start_time DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// CountWorkouts returns the total number of stored workouts
func (s *Store) CountWorkouts() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM workouts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}

// CountBySport returns workout counts grouped by sport
func (s *Store) CountBySport() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(sport, 'unknown'), COUNT(*)
		FROM workouts GROUP BY sport
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by sport: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sport string
		var count int
		if err := rows.Scan(&sport, &count); err != nil {
			return nil, err
		}
		counts[sport] = count
	}
	return counts, rows.Err()
}

// GetHealthMetrics returns the health metrics recorded for a file
func (s *Store) GetHealthMetrics(fileID int64) ([]*HealthMetric, error) {
	rows, err := s.db.Query(`
		SELECT id, file_id, metric_date, resting_hr, body_battery, stress_level
		FROM health_metrics WHERE file_id = ? ORDER BY metric_date
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query health metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*HealthMetric
	for rows.Next() {
		h := &HealthMetric{}
		var date string
		var resting, battery, stress sql.NullFloat64
		if err := rows.Scan(&h.ID, &h.FileID, &date, &resting, &battery, &stress); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			h.MetricDate = t
		}
		h.RestingHR = floatPtr(resting)
		h.BodyBattery = floatPtr(battery)
		h.StressLevel = floatPtr(stress)
		metrics = append(metrics, h)
	}
	return metrics, rows.Err()
}

// DeleteWorkout removes the workout, its file row and health metrics in
// one transaction, returning the on-disk paths the caller must remove.
// Returns ("", "", nil) if the workout id is unknown.
func (s *Store) DeleteWorkout(id string) (storedPath, artifactPath string, err error) {
	w, f, err := s.GetWorkout(id)
	if err != nil {
		return "", "", err
	}
	if w == nil || f == nil {
		return "", "", nil
	}

	err = s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM health_metrics WHERE file_id = ?", f.ID); err != nil {
			return fmt.Errorf("failed to delete health metrics: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM workouts WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete workout: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM files WHERE id = ?", f.ID); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}

	return f.StoredPath, f.ArtifactPath, nil
}

const fileColumns = `
	SELECT id, content_hash, original_name, stored_path, artifact_path,
	       size_bytes, origin, COALESCE(device_serial, ''), imported_at
	FROM files`

const workoutColumns = `
	SELECT id, file_id, COALESCE(sport, ''), start_time, duration_s, distance_m,
	       calories, avg_heart_rate, max_heart_rate, avg_power_w, max_power_w,
	       avg_cadence, max_cadence, avg_speed_mps, max_speed_mps, min_speed_mps,
	       elevation_gain_m, elevation_loss_m,
	       has_sensor_power, has_derived_speed, sample_count, gps_point_count,
	       created_at
	FROM workouts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*File, error) {
	f := &File{}
	err := row.Scan(&f.ID, &f.ContentHash, &f.OriginalName, &f.StoredPath,
		&f.ArtifactPath, &f.SizeBytes, &f.Origin, &f.DeviceSerial, &f.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}
	return f, nil
}

func scanWorkout(row rowScanner) (*Workout, error) {
	w := &Workout{}
	var startTime sql.NullString
	var duration, distance, calories sql.NullFloat64
	var avgHR, maxHR, avgPower, maxPower sql.NullFloat64
	var avgCadence, maxCadence sql.NullFloat64
	var avgSpeed, maxSpeed, minSpeed sql.NullFloat64
	var elevGain, elevLoss sql.NullFloat64
	var sensorPower, derivedSpeed int

	err := row.Scan(&w.ID, &w.FileID, &w.Sport, &startTime, &duration, &distance,
		&calories, &avgHR, &maxHR, &avgPower, &maxPower,
		&avgCadence, &maxCadence, &avgSpeed, &maxSpeed, &minSpeed,
		&elevGain, &elevLoss, &sensorPower, &derivedSpeed,
		&w.SampleCount, &w.GPSPointCount, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workout: %w", err)
	}

	if startTime.Valid {
		if t, err := time.Parse(time.RFC3339, startTime.String); err == nil {
			t = t.UTC()
			w.StartTime = &t
		}
	}
	w.DurationSec = floatPtr(duration)
	w.DistanceM = floatPtr(distance)
	w.Calories = floatPtr(calories)
	w.AvgHeartRate = floatPtr(avgHR)
	w.MaxHeartRate = floatPtr(maxHR)
	w.AvgPower = floatPtr(avgPower)
	w.MaxPower = floatPtr(maxPower)
	w.AvgCadence = floatPtr(avgCadence)
	w.MaxCadence = floatPtr(maxCadence)
	w.AvgSpeed = floatPtr(avgSpeed)
	w.MaxSpeed = floatPtr(maxSpeed)
	w.MinSpeed = floatPtr(minSpeed)
	w.ElevationGainM = floatPtr(elevGain)
	w.ElevationLossM = floatPtr(elevLoss)
	w.HasSensorPower = sensorPower != 0
	w.HasDerivedSpeed = derivedSpeed != 0

	return w, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
