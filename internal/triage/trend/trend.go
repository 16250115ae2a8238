// Package trend detects sustained directional drift in a device's recent
// readings. A field trends when its least-squares slope exceeds the
// configured rate AND the direction held across the most recent consecutive
// steps, so a single spike inside an otherwise flat window never flags.
package trend

import "time"

// Point is one timestamped observation of a single field.
type Point struct {
	T time.Time
	V float64
}

// Result is the drift verdict for one field.
type Result struct {
	Flagged   bool
	Direction string  // "rising" or "falling", empty when not flagged
	Slope     float64 // Units per minute
	Samples   int
}

// Trend directions.
const (
	Rising  = "rising"
	Falling = "falling"
)

// Slope performs least-squares regression over the points, with time in
// minutes relative to the first point. Returns 0 for fewer than 2 points or
// when all timestamps coincide.
func Slope(points []Point) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}

	base := points[0].T
	var sumX, sumY float64
	xs := make([]float64, n)
	for i, p := range points {
		xs[i] = p.T.Sub(base).Minutes()
		sumX += xs[i]
		sumY += p.V
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var ssXY, ssXX float64
	for i, p := range points {
		dx := xs[i] - meanX
		ssXY += dx * (p.V - meanY)
		ssXX += dx * dx
	}
	if ssXX == 0 {
		return 0
	}
	return ssXY / ssXX
}

// Analyze evaluates one field's window, oldest point first. The field flags
// when |slope| strictly exceeds ratePerMin and the last minConsecutive
// deltas all move in the slope's direction. Fewer than minSamples points is
// a cold start: no flag, never an error.
func Analyze(points []Point, ratePerMin float64, minSamples, minConsecutive int) Result {
	res := Result{Samples: len(points)}
	if len(points) < minSamples || len(points) < 2 {
		return res
	}

	res.Slope = Slope(points)
	if res.Slope == 0 || ratePerMin <= 0 {
		return res
	}
	if res.Slope > 0 && res.Slope <= ratePerMin {
		return res
	}
	if res.Slope < 0 && -res.Slope <= ratePerMin {
		return res
	}

	rising := res.Slope > 0
	streak := 0
	for i := len(points) - 1; i > 0; i-- {
		d := points[i].V - points[i-1].V
		if (rising && d > 0) || (!rising && d < 0) {
			streak++
			continue
		}
		break
	}
	if streak < minConsecutive {
		return res
	}

	res.Flagged = true
	if rising {
		res.Direction = Rising
	} else {
		res.Direction = Falling
	}
	return res
}
