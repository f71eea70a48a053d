package store

// Schema v1 - Core tables. One files row per distinct content hash, one
// workouts row per files row, optional health metrics per files row.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Imported source files, identified by content hash
CREATE TABLE IF NOT EXISTS files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  content_hash TEXT UNIQUE NOT NULL,
  original_name TEXT NOT NULL,
  stored_path TEXT NOT NULL,
  artifact_path TEXT NOT NULL,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  origin TEXT NOT NULL CHECK (origin IN ('upload', 'device')),
  device_serial TEXT,
  imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Derived workout summary (one row per file, immutable after import)
CREATE TABLE IF NOT EXISTS workouts (
  id TEXT PRIMARY KEY,
  file_id INTEGER NOT NULL UNIQUE REFERENCES files(id) ON DELETE CASCADE,
  sport TEXT,
  start_time TEXT,
  duration_s REAL,
  distance_m REAL,
  calories REAL,
  avg_heart_rate REAL,
  max_heart_rate REAL,
  avg_power_w REAL,
  max_power_w REAL,
  avg_cadence REAL,
  max_cadence REAL,
  avg_speed_mps REAL,
  max_speed_mps REAL,
  min_speed_mps REAL,
  elevation_gain_m REAL,
  elevation_loss_m REAL,
  has_sensor_power INTEGER NOT NULL DEFAULT 0,
  has_derived_speed INTEGER NOT NULL DEFAULT 0,
  sample_count INTEGER NOT NULL DEFAULT 0,
  gps_point_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Health-monitoring values some exports carry alongside the activity
CREATE TABLE IF NOT EXISTS health_metrics (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  metric_date TEXT NOT NULL,
  resting_hr REAL,
  body_battery REAL,
  stress_level REAL,
  UNIQUE (metric_date, file_id)
);
`

// Schema v2 - Query indexes for the list and stats paths
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_files_content_hash ON files(content_hash);
CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(start_time);
CREATE INDEX IF NOT EXISTS idx_workouts_sport ON workouts(sport);
CREATE INDEX IF NOT EXISTS idx_health_metrics_file_id ON health_metrics(file_id);
`
