package decode

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/tormoder/fit"
)

// FIT sentinel values marking an absent field
const (
	invalidUint8       = 0xFF
	invalidUint16      = 0xFFFF
	invalidSemicircles = 0x7FFFFFFF
)

// FitSource decodes FIT activity files via github.com/tormoder/fit
type FitSource struct{}

// NewFitSource returns a Source backed by the FIT decoder
func NewFitSource() *FitSource {
	return &FitSource{}
}

// Open decodes the FIT file at path into the canonical message sequence.
// Record messages come first in file order, session messages after them,
// matching where FIT devices place session summaries.
func (s *FitSource) Open(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, DecodeErrorf("open %s: %v", path, err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, DecodeErrorf("decode %s: %v", path, err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, DecodeErrorf("%s is not an activity file: %v", path, err)
	}

	msgs := make([]Message, 0, len(activity.Records)+len(activity.Sessions))
	for _, rec := range activity.Records {
		msgs = append(msgs, recordMessage(rec))
	}
	for _, sess := range activity.Sessions {
		msgs = append(msgs, sessionMessage(sess))
	}
	return msgs, nil
}

func recordMessage(rec *fit.RecordMsg) Message {
	fields := make(map[string]Value, 8)

	putTime(fields, FieldTimestamp, rec.Timestamp)
	putScaled(fields, FieldDistance, rec.GetDistanceScaled())
	putScaled(fields, FieldSpeed, rec.GetSpeedScaled())
	putScaled(fields, FieldAltitude, rec.GetAltitudeScaled())
	putUint8(fields, FieldHeartRate, rec.HeartRate)
	putUint8(fields, FieldCadence, rec.Cadence)
	putUint16(fields, FieldPower, rec.Power)

	// Raw semicircles pass through untouched; the geo validator owns the
	// conversion to degrees.
	if sc := rec.PositionLat.Semicircles(); sc != invalidSemicircles {
		fields[FieldPositionLat] = Number(float64(sc))
	}
	if sc := rec.PositionLong.Semicircles(); sc != invalidSemicircles {
		fields[FieldPositionLon] = Number(float64(sc))
	}

	return Message{Kind: MsgRecord, Fields: fields}
}

func sessionMessage(sess *fit.SessionMsg) Message {
	fields := make(map[string]Value, 16)

	if sess.Sport != fit.SportInvalid {
		fields[FieldSport] = String(strings.ToLower(sess.Sport.String()))
	}
	putTime(fields, FieldStartTime, sess.StartTime)
	putScaled(fields, FieldElapsedTime, sess.GetTotalElapsedTimeScaled())
	putScaled(fields, FieldTotalDistance, sess.GetTotalDistanceScaled())
	putUint16(fields, FieldTotalCalories, sess.TotalCalories)
	putUint8(fields, FieldAvgHeartRate, sess.AvgHeartRate)
	putUint8(fields, FieldMaxHeartRate, sess.MaxHeartRate)
	putUint16(fields, FieldAvgPower, sess.AvgPower)
	putUint16(fields, FieldMaxPower, sess.MaxPower)
	putUint8(fields, FieldAvgCadence, sess.AvgCadence)
	putUint8(fields, FieldMaxCadence, sess.MaxCadence)
	putScaled(fields, FieldAvgSpeed, sess.GetAvgSpeedScaled())
	putScaled(fields, FieldMaxSpeed, sess.GetMaxSpeedScaled())
	putUint16(fields, FieldTotalAscent, sess.TotalAscent)
	putUint16(fields, FieldTotalDescent, sess.TotalDescent)

	return Message{Kind: MsgSession, Fields: fields}
}

func putTime(fields map[string]Value, name string, t time.Time) {
	if !t.IsZero() {
		fields[name] = Time(t.UTC())
	}
}

func putScaled(fields map[string]Value, name string, v float64) {
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		fields[name] = Number(v)
	}
}

func putUint8(fields map[string]Value, name string, v uint8) {
	if v != invalidUint8 {
		fields[name] = Number(float64(v))
	}
}

func putUint16(fields map[string]Value, name string, v uint16) {
	if v != invalidUint16 {
		fields[name] = Number(float64(v))
	}
}
