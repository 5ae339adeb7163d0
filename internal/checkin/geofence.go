package checkin

import (
	"math"

	"github.com/estateguard/estate/internal/checkpoints"
)

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in metres.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Match is the checkpoint closest to a point.
type Match struct {
	Checkpoint checkpoints.Checkpoint
	Distance   float64
}

// Nearest scans cps linearly. On equal distances the earlier checkpoint
// wins. ok is false only for an empty list.
func Nearest(p Point, cps []checkpoints.Checkpoint) (Match, bool) {
	if len(cps) == 0 {
		return Match{}, false
	}
	best := Match{Checkpoint: cps[0], Distance: distanceTo(p, cps[0])}
	for _, cp := range cps[1:] {
		if d := distanceTo(p, cp); d < best.Distance {
			best = Match{Checkpoint: cp, Distance: d}
		}
	}
	return best, true
}

func distanceTo(p Point, cp checkpoints.Checkpoint) float64 {
	return Distance(p, Point{Latitude: cp.Latitude, Longitude: cp.Longitude})
}
