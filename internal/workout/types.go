// Package workout turns a decoded message stream into a normalized,
// aggregated workout artifact: per-sample time series, derived speed,
// summary metrics, validated GPS points and chart series.
package workout

import "time"

// Sample is one normalized time-series point. Optional fields are nil when
// the record carried no recognized value for them. Lat/Lon hold the raw
// coordinate encoding as decoded; conversion happens in the geo validator.
type Sample struct {
	Timestamp    time.Time `json:"timestamp,omitzero"`
	Distance     *float64  `json:"distance_m,omitempty"`
	Speed        *float64  `json:"speed_mps,omitempty"`
	DerivedSpeed *float64  `json:"derived_speed_mps,omitempty"`
	HeartRate    *float64  `json:"heart_rate_bpm,omitempty"`
	Power        *float64  `json:"power_w,omitempty"`
	Cadence      *float64  `json:"cadence_rpm,omitempty"`
	Altitude     *float64  `json:"altitude_m,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lon          *float64  `json:"lon,omitempty"`
}

// Summary holds workout-level metrics. Nil means the metric could not be
// determined from either session fields or the sample stream.
type Summary struct {
	Sport          string    `json:"sport,omitempty"`
	StartTime      time.Time `json:"start_time,omitzero"`
	DurationSec    *float64  `json:"duration_s,omitempty"`
	DistanceM      *float64  `json:"distance_m,omitempty"`
	Calories       *float64  `json:"calories,omitempty"`
	AvgHeartRate   *float64  `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *float64  `json:"max_heart_rate,omitempty"`
	AvgPower       *float64  `json:"avg_power_w,omitempty"`
	MaxPower       *float64  `json:"max_power_w,omitempty"`
	AvgCadence     *float64  `json:"avg_cadence,omitempty"`
	MaxCadence     *float64  `json:"max_cadence,omitempty"`
	AvgSpeed       *float64  `json:"avg_speed_mps,omitempty"`
	MaxSpeed       *float64  `json:"max_speed_mps,omitempty"`
	MinSpeed       *float64  `json:"min_speed_mps,omitempty"`
	ElevationGainM *float64  `json:"elevation_gain_m,omitempty"`
	ElevationLossM *float64  `json:"elevation_loss_m,omitempty"`
}

// GeoPoint is a validated coordinate in degrees
type GeoPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Altitude  *float64  `json:"altitude_m,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Bounds is the bounding box of a validated route
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Route summarizes the validated GPS point set
type Route struct {
	PointCount int      `json:"point_count"`
	Start      GeoPoint `json:"start"`
	End        GeoPoint `json:"end"`
	Bounds     Bounds   `json:"bounds"`
}

// Chart holds parallel, timestamp-aligned series for visualization.
// All slices have equal length; nil entries mark missing values.
type Chart struct {
	Timestamps []time.Time `json:"timestamps"`
	HeartRate  []*float64  `json:"heart_rate"`
	Power      []*float64  `json:"power"`
	Cadence    []*float64  `json:"cadence"`
	Speed      []*float64  `json:"speed"`
	Distance   []*float64  `json:"distance"`
}

// Quality flags record whether values are sensor-measured or estimated
type Quality struct {
	HasSensorPower  bool `json:"has_actual_power"`
	HasDerivedSpeed bool `json:"has_calculated_speed"`
}

// Health carries the health-monitoring fields an export may include
type Health struct {
	RestingHR   *float64 `json:"resting_hr,omitempty"`
	BodyBattery *float64 `json:"body_battery,omitempty"`
	StressLevel *float64 `json:"stress_level,omitempty"`
}

// Workout is the complete derived artifact for one source file
type Workout struct {
	Summary Summary    `json:"summary"`
	Samples []Sample   `json:"samples"`
	GPS     []GeoPoint `json:"gps_points"`
	Route   *Route     `json:"route,omitempty"`
	Chart   Chart      `json:"chart"`
	Quality Quality    `json:"data_quality"`
	Health  *Health    `json:"health,omitempty"`
}

func ptr(v float64) *float64 { return &v }
