package workout

import (
	"github.com/franz/fitkeeper/internal/decode"
)

// Normalizer projects decoded messages onto the workout data model.
// Session fields populate the summary (last seen wins when a field
// repeats), record messages become samples in encounter order, and
// health-monitoring messages fold into a single health summary.
type Normalizer struct {
	summary Summary
	samples []Sample
	health  Health
	hasAny  bool // any health field seen
}

// Normalize runs the full message stream through a fresh Normalizer
func Normalize(msgs []decode.Message) (Summary, []Sample, *Health) {
	n := &Normalizer{}
	for _, m := range msgs {
		n.Apply(m)
	}
	return n.Result()
}

// Apply folds one message into the normalized state
func (n *Normalizer) Apply(m decode.Message) {
	switch m.Kind {
	case decode.MsgSession:
		n.applySession(m)
	case decode.MsgRecord:
		n.applyRecord(m)
	case decode.MsgMonitoring, decode.MsgStressLevel, decode.MsgSleep:
		n.applyHealth(m)
	}
	// Unknown message kinds are ignored.
}

// Result returns the accumulated summary, ordered samples and health data.
// Health is nil unless at least one health field was present.
func (n *Normalizer) Result() (Summary, []Sample, *Health) {
	if !n.hasAny {
		return n.summary, n.samples, nil
	}
	h := n.health
	return n.summary, n.samples, &h
}

func (n *Normalizer) applySession(m decode.Message) {
	if sport, ok := m.String(decode.FieldSport); ok {
		n.summary.Sport = sport
	}
	if t, ok := m.Time(decode.FieldStartTime); ok {
		n.summary.StartTime = t.UTC()
	}
	setNum(m, decode.FieldElapsedTime, &n.summary.DurationSec)
	setNum(m, decode.FieldTotalDistance, &n.summary.DistanceM)
	setNum(m, decode.FieldTotalCalories, &n.summary.Calories)
	setNum(m, decode.FieldAvgHeartRate, &n.summary.AvgHeartRate)
	setNum(m, decode.FieldMaxHeartRate, &n.summary.MaxHeartRate)
	setNum(m, decode.FieldAvgPower, &n.summary.AvgPower)
	setNum(m, decode.FieldMaxPower, &n.summary.MaxPower)
	setNum(m, decode.FieldAvgCadence, &n.summary.AvgCadence)
	setNum(m, decode.FieldMaxCadence, &n.summary.MaxCadence)
	setNum(m, decode.FieldAvgSpeed, &n.summary.AvgSpeed)
	setNum(m, decode.FieldMaxSpeed, &n.summary.MaxSpeed)
	setNum(m, decode.FieldTotalAscent, &n.summary.ElevationGainM)
	setNum(m, decode.FieldTotalDescent, &n.summary.ElevationLossM)
}

func (n *Normalizer) applyRecord(m decode.Message) {
	var s Sample
	recognized := false

	if t, ok := m.Time(decode.FieldTimestamp); ok {
		s.Timestamp = t.UTC()
		recognized = true
	}
	recognized = setNum(m, decode.FieldDistance, &s.Distance) || recognized
	recognized = setNum(m, decode.FieldSpeed, &s.Speed) || recognized
	recognized = setNum(m, decode.FieldHeartRate, &s.HeartRate) || recognized
	recognized = setNum(m, decode.FieldPower, &s.Power) || recognized
	recognized = setNum(m, decode.FieldCadence, &s.Cadence) || recognized
	recognized = setNum(m, decode.FieldAltitude, &s.Altitude) || recognized
	recognized = setNum(m, decode.FieldPositionLat, &s.Lat) || recognized
	recognized = setNum(m, decode.FieldPositionLon, &s.Lon) || recognized

	// A record with no recognized field carries nothing worth keeping.
	if recognized {
		n.samples = append(n.samples, s)
	}
}

func (n *Normalizer) applyHealth(m decode.Message) {
	n.hasAny = setNumAlias(m, &n.health.RestingHR, decode.FieldRestingHeartRate, "resting_hr") || n.hasAny
	n.hasAny = setNumAlias(m, &n.health.BodyBattery, decode.FieldBodyBattery, "body_battery_level") || n.hasAny
	n.hasAny = setNumAlias(m, &n.health.StressLevel, decode.FieldStressLevel, "stress") || n.hasAny
}

// setNum stores the named numeric field into dst if present, reporting
// whether it was
func setNum(m decode.Message, field string, dst **float64) bool {
	v, ok := m.Number(field)
	if !ok {
		return false
	}
	*dst = ptr(v)
	return true
}

// setNumAlias tries each name in turn; devices disagree on health field names
func setNumAlias(m decode.Message, dst **float64, names ...string) bool {
	for _, name := range names {
		if setNum(m, name, dst) {
			return true
		}
	}
	return false
}
