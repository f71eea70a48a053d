package workout

import (
	"github.com/franz/fitkeeper/internal/decode"
)

// Build runs the whole derivation pipeline over a decoded message stream
// and assembles the complete workout artifact.
func Build(msgs []decode.Message) *Workout {
	summary, samples, health := Normalize(msgs)

	speeds := DeriveSpeeds(samples)
	points, route := ValidatePoints(samples)
	chart := AssembleChart(samples)

	aggregateMetrics(&summary, samples, speeds)

	return &Workout{
		Summary: summary,
		Samples: samples,
		GPS:     points,
		Route:   route,
		Chart:   chart,
		Quality: Quality{
			HasSensorPower:  anyPower(samples),
			HasDerivedSpeed: speeds.Derived != nil,
		},
		Health: health,
	}
}

// aggregateMetrics combines session-provided metrics with stream-derived
// ones. Session values win when present; stream reductions fill the gaps.
// Elevation gain/loss comes from session fields only. Missing inputs leave
// the summary field nil rather than substituting a default.
func aggregateMetrics(summary *Summary, samples []Sample, speeds SpeedResult) {
	fillAvgMax(&summary.AvgHeartRate, &summary.MaxHeartRate, samples, func(s *Sample) *float64 { return s.HeartRate })
	fillAvgMax(&summary.AvgPower, &summary.MaxPower, samples, func(s *Sample) *float64 { return s.Power })
	fillAvgMax(&summary.AvgCadence, &summary.MaxCadence, samples, func(s *Sample) *float64 { return s.Cadence })

	if stats := speeds.Canonical(); stats != nil {
		summary.AvgSpeed = ptr(stats.Avg)
		summary.MaxSpeed = ptr(stats.Max)
		summary.MinSpeed = ptr(stats.Min)
	}
}

func fillAvgMax(avg, max **float64, samples []Sample, field func(*Sample) *float64) {
	if *avg != nil && *max != nil {
		return
	}

	var sum, maxSeen float64
	count := 0
	for i := range samples {
		v := field(&samples[i])
		if v == nil {
			continue
		}
		sum += *v
		if count == 0 || *v > maxSeen {
			maxSeen = *v
		}
		count++
	}
	if count == 0 {
		return
	}

	if *avg == nil {
		*avg = ptr(sum / float64(count))
	}
	if *max == nil {
		*max = ptr(maxSeen)
	}
}

func anyPower(samples []Sample) bool {
	for i := range samples {
		if samples[i].Power != nil {
			return true
		}
	}
	return false
}
