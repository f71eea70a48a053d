// Package decode provides the decoded message source: it turns an activity
// file on disk into an ordered sequence of typed messages that the rest of
// the pipeline consumes. Only this package knows about the FIT binary format.
package decode

import (
	"fmt"
	"time"

	"github.com/franz/fitkeeper/internal/util"
)

// Message kinds emitted by a Source
const (
	MsgSession     = "session"
	MsgRecord      = "record"
	MsgMonitoring  = "monitoring"
	MsgStressLevel = "stress_level"
	MsgSleep       = "sleep"
)

// Canonical field names used across message kinds. Unknown field names are
// ignored at the normalization boundary.
const (
	FieldTimestamp   = "timestamp"
	FieldDistance    = "distance"
	FieldSpeed       = "speed"
	FieldHeartRate   = "heart_rate"
	FieldPower       = "power"
	FieldCadence     = "cadence"
	FieldAltitude    = "altitude"
	FieldPositionLat = "position_lat"
	FieldPositionLon = "position_long"

	FieldSport         = "sport"
	FieldStartTime     = "start_time"
	FieldElapsedTime   = "total_elapsed_time"
	FieldTotalDistance = "total_distance"
	FieldTotalCalories = "total_calories"
	FieldAvgHeartRate  = "avg_heart_rate"
	FieldMaxHeartRate  = "max_heart_rate"
	FieldAvgPower      = "avg_power"
	FieldMaxPower      = "max_power"
	FieldAvgCadence    = "avg_cadence"
	FieldMaxCadence    = "max_cadence"
	FieldAvgSpeed      = "avg_speed"
	FieldMaxSpeed      = "max_speed"
	FieldTotalAscent   = "total_ascent"
	FieldTotalDescent  = "total_descent"

	FieldRestingHeartRate = "resting_heart_rate"
	FieldBodyBattery      = "body_battery"
	FieldStressLevel      = "stress_level"
)

// ValueKind discriminates the closed set of field value types
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindNumber
	KindTime
	KindString
)

// Value is a tagged variant over the field kinds a decoded message can carry
type Value struct {
	kind ValueKind
	num  float64
	str  string
	ts   time.Time
}

// Number wraps a numeric field value
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Time wraps a timestamp field value
func Time(t time.Time) Value {
	return Value{kind: KindTime, ts: t}
}

// String wraps a string field value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the value's kind tag
func (v Value) Kind() ValueKind {
	return v.kind
}

// Number returns the numeric value, if the value holds one
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Time returns the timestamp value, if the value holds one
func (v Value) Time() (time.Time, bool) {
	return v.ts, v.kind == KindTime
}

// String returns the string value, if the value holds one
func (v Value) String() (string, bool) {
	return v.str, v.kind == KindString
}

// Message is one decoded message: a kind plus its named field values
type Message struct {
	Kind   string
	Fields map[string]Value
}

// Number returns the named numeric field, if present
func (m Message) Number(field string) (float64, bool) {
	v, ok := m.Fields[field]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// Time returns the named timestamp field, if present
func (m Message) Time(field string) (time.Time, bool) {
	v, ok := m.Fields[field]
	if !ok {
		return time.Time{}, false
	}
	return v.Time()
}

// String returns the named string field, if present
func (m Message) String(field string) (string, bool) {
	v, ok := m.Fields[field]
	if !ok {
		return "", false
	}
	return v.String()
}

// Source yields the ordered message sequence of an activity file.
// A failure to open or decode is reported as a decode error.
type Source interface {
	Open(path string) ([]Message, error)
}

// DecodeErrorf wraps a decoder failure so callers can match util.ErrDecode
func DecodeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", util.ErrDecode, fmt.Sprintf(format, args...))
}
