package workout

// Plausibility bounds for human-powered endurance sport, in m/s.
// Derived speeds below the walking-pace floor are treated as noise; a
// provided zero is a real "stopped" reading, so sensor values get a
// floor of zero instead.
const (
	MaxSpeedMps        = 22.0 // ~80 km/h
	MinDerivedSpeedMps = 0.14 // ~0.5 km/h
	MinProvidedSpeed   = 0.0
)

// SpeedStats aggregates one speed collection
type SpeedStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// SpeedResult is the outcome of the derivation pass over a sample stream
type SpeedResult struct {
	// All aggregates every effective speed that passed validation,
	// derived or sensor-provided. Derived aggregates only derived values
	// and is the preferred summary when present.
	All     *SpeedStats `json:"all,omitempty"`
	Derived *SpeedStats `json:"derived,omitempty"`
}

// DeriveSpeeds fills and corrects the speed field of each sample in place
// using finite differences of distance over time, then aggregates.
//
// A pair (i-1, i) qualifies for derivation when both samples carry a
// distance and a timestamp. Within a qualified pair, non-positive time
// deltas and negative distance deltas (odometer reset) abort derivation
// silently. A derived value is accepted only inside the plausibility
// bounds; a rejected derivation falls back to the sample's provided speed
// for aggregation. Samples outside any qualified pair have their provided
// speed validated against the wider sensor bounds and nulled when invalid.
func DeriveSpeeds(samples []Sample) SpeedResult {
	var all, derived []float64

	for i := range samples {
		s := &samples[i]

		if i > 0 && qualifies(s) && qualifies(&samples[i-1]) {
			prev := &samples[i-1]
			dt := s.Timestamp.Sub(prev.Timestamp).Seconds()
			if dt <= 0 {
				continue
			}
			dd := *s.Distance - *prev.Distance
			if dd < 0 {
				continue
			}
			v := dd / dt
			if v >= MinDerivedSpeedMps && v <= MaxSpeedMps {
				s.DerivedSpeed = ptr(v)
				if s.Speed == nil {
					s.Speed = ptr(v)
				}
				all = append(all, *s.Speed)
				derived = append(derived, v)
			} else if s.Speed != nil {
				all = append(all, *s.Speed)
			}
			continue
		}

		if s.Speed != nil {
			if *s.Speed >= MinProvidedSpeed && *s.Speed <= MaxSpeedMps {
				all = append(all, *s.Speed)
			} else {
				// Sensor fault: drop the value, keep the sample.
				s.Speed = nil
			}
		}
	}

	return SpeedResult{
		All:     aggregate(all),
		Derived: aggregate(derived),
	}
}

// Canonical returns the stats to store as the workout's speed summary:
// the derived aggregate when any derivation succeeded, else the full one
func (r SpeedResult) Canonical() *SpeedStats {
	if r.Derived != nil {
		return r.Derived
	}
	return r.All
}

func qualifies(s *Sample) bool {
	return s.Distance != nil && !s.Timestamp.IsZero()
}

func aggregate(values []float64) *SpeedStats {
	if len(values) == 0 {
		return nil
	}
	stats := &SpeedStats{Max: values[0], Min: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		if v > stats.Max {
			stats.Max = v
		}
		if v < stats.Min {
			stats.Min = v
		}
	}
	stats.Avg = sum / float64(len(values))
	return stats
}
