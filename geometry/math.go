package geometry

import "math"

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ManhattanDistance calculates the Manhattan distance between two points.
func ManhattanDistance(a, b Point) float64 {
	return math.Abs(b.X-a.X) + math.Abs(b.Y-a.Y)
}

// IsHorizontal returns true if the line from a to b is more horizontal than vertical.
func IsHorizontal(a, b Point) bool {
	return math.Abs(b.X-a.X) > math.Abs(b.Y-a.Y)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Centroid returns the average of the given points, or the zero point.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range points {
		sum = sum.Add(p)
	}
	n := float64(len(points))
	return Point{X: sum.X / n, Y: sum.Y / n}
}

// SnapToGrid rounds v to the nearest multiple of grid. A non-positive grid
// leaves v unchanged.
func SnapToGrid(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// DistanceToSegment returns the distance from p to the segment ab and the
// closest point on it.
func DistanceToSegment(p, a, b Point) (float64, Point) {
	d := b.Sub(a)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return Distance(p, a), a
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / lenSq
	t = Clamp(t, 0, 1)
	closest := a.Add(d.Scale(t))
	return Distance(p, closest), closest
}
