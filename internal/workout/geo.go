package workout

import "math"

// semicircleScale converts FIT semicircle units to degrees (full circle = 2^31)
const semicircleScale = 180.0 / 2147483648.0

// normalizeCoordinate applies the semicircle heuristic to one axis: a raw
// magnitude beyond 180 cannot be a degree value, so it is treated as a
// semicircle encoding and scaled. Values already in degree range pass
// through unchanged.
func normalizeCoordinate(raw float64) float64 {
	if math.Abs(raw) > 180 {
		return raw * semicircleScale
	}
	return raw
}

// ValidatePoints converts and validates the coordinate fields of the sample
// stream, returning the accepted point list in original order plus route
// statistics. Points failing validation are dropped entirely. The exact
// pair (0,0) is rejected as the "no GPS fix" sentinel.
func ValidatePoints(samples []Sample) ([]GeoPoint, *Route) {
	var points []GeoPoint

	for _, s := range samples {
		if s.Lat == nil || s.Lon == nil {
			continue
		}
		lat := normalizeCoordinate(*s.Lat)
		lon := normalizeCoordinate(*s.Lon)

		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		if lat == 0 && lon == 0 {
			continue
		}

		p := GeoPoint{Lat: lat, Lon: lon, Timestamp: s.Timestamp}
		if s.Altitude != nil {
			p.Altitude = ptr(*s.Altitude)
		}
		points = append(points, p)
	}

	return points, routeStats(points)
}

func routeStats(points []GeoPoint) *Route {
	if len(points) == 0 {
		return nil
	}

	bounds := Bounds{
		North: points[0].Lat, South: points[0].Lat,
		East: points[0].Lon, West: points[0].Lon,
	}
	for _, p := range points[1:] {
		bounds.North = math.Max(bounds.North, p.Lat)
		bounds.South = math.Min(bounds.South, p.Lat)
		bounds.East = math.Max(bounds.East, p.Lon)
		bounds.West = math.Min(bounds.West, p.Lon)
	}

	return &Route{
		PointCount: len(points),
		Start:      points[0],
		End:        points[len(points)-1],
		Bounds:     bounds,
	}
}
