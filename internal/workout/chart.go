package workout

// AssembleChart builds the parallel chart series from the sample stream.
// Only timestamped samples contribute an index; every series keeps a slot
// per index with nil marking a missing value, so all slices share one
// length. Speed prefers the effective speed and falls back to the derived
// value.
func AssembleChart(samples []Sample) Chart {
	c := Chart{}

	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		c.Timestamps = append(c.Timestamps, s.Timestamp)
		c.HeartRate = append(c.HeartRate, s.HeartRate)
		c.Power = append(c.Power, s.Power)
		c.Cadence = append(c.Cadence, s.Cadence)
		c.Distance = append(c.Distance, s.Distance)

		speed := s.Speed
		if speed == nil {
			speed = s.DerivedSpeed
		}
		c.Speed = append(c.Speed, speed)
	}

	return c
}
