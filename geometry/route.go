package geometry

import "math"

// AlignTolerance is the default distance on either axis under which two nodes
// count as aligned and are joined by a direct route.
const AlignTolerance = 50

// IntersectionPoint returns the point where the segment from→to crosses the
// boundary of the rectangle of the given size centred at to. When from equals
// to the point to is returned unchanged.
func IntersectionPoint(from, to Point, size Size) Point {
	size = size.OrDefault()
	dx := to.X - from.X
	dy := to.Y - from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return to
	}
	nx := dx / length
	ny := dy / length
	halfW := size.Width / 2
	halfH := size.Height / 2

	var t float64
	if math.Abs(nx)*halfH > math.Abs(ny)*halfW {
		t = halfW / math.Abs(nx)
	} else {
		t = halfH / math.Abs(ny)
	}
	return Point{X: to.X - nx*t, Y: to.Y - ny*t}
}

// DockingPoint returns the point on the boundary of the rectangle of the given
// size centred at center, along the ray toward the given point. When toward
// coincides with center the middle of the right edge is returned.
func DockingPoint(center, toward Point, size Size) Point {
	size = size.OrDefault()
	dx := toward.X - center.X
	dy := toward.Y - center.Y
	halfW := size.Width / 2
	halfH := size.Height / 2
	if dx == 0 && dy == 0 {
		return Point{X: center.X + halfW, Y: center.Y}
	}

	tx := math.Inf(1)
	if dx != 0 {
		tx = halfW / math.Abs(dx)
	}
	ty := math.Inf(1)
	if dy != 0 {
		ty = halfH / math.Abs(dy)
	}
	t := math.Min(tx, ty)
	return Point{X: center.X + dx*t, Y: center.Y + dy*t}
}

// PolylineMidpoint returns the point halfway along the polyline by arc length.
// A single point or a zero-length polyline yields its first point; an empty
// polyline yields the zero point.
func PolylineMidpoint(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	if len(points) == 1 {
		return points[0]
	}

	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	if total == 0 {
		return points[0]
	}

	half := total / 2
	walked := 0.0
	for i := 1; i < len(points); i++ {
		seg := Distance(points[i-1], points[i])
		if walked+seg >= half {
			if seg == 0 {
				return points[i]
			}
			t := (half - walked) / seg
			return points[i-1].Add(points[i].Sub(points[i-1]).Scale(t))
		}
		walked += seg
	}
	return points[len(points)-1]
}

// DirectRoute joins two node rectangles with a straight line between their
// docking points.
func DirectRoute(source, target Point, sourceSize, targetSize Size) []Point {
	return []Point{
		DockingPoint(source, target, sourceSize),
		DockingPoint(target, source, targetSize),
	}
}

// ManhattanRoute produces an orthogonal route between two node rectangles. The
// route leaves the source through the side facing the target on the dominant
// axis, turns once at the midline between the two boxes and enters the target
// through its facing side. Boxes that overlap on the dominant axis cannot be
// joined orthogonally and fall back to DirectRoute.
func ManhattanRoute(source, target Point, sourceSize, targetSize Size) []Point {
	sourceSize = sourceSize.OrDefault()
	targetSize = targetSize.OrDefault()
	dx := target.X - source.X
	dy := target.Y - source.Y
	if math.Abs(dx) < 0.01 || math.Abs(dy) < 0.01 {
		return DirectRoute(source, target, sourceSize, targetSize)
	}

	if math.Abs(dx) >= math.Abs(dy) {
		if math.Abs(dx) <= (sourceSize.Width+targetSize.Width)/2 {
			return DirectRoute(source, target, sourceSize, targetSize)
		}
		sign := math.Copysign(1, dx)
		start := Point{X: source.X + sign*sourceSize.Width/2, Y: source.Y}
		end := Point{X: target.X - sign*targetSize.Width/2, Y: target.Y}
		midX := (start.X + end.X) / 2
		return []Point{start, {X: midX, Y: start.Y}, {X: midX, Y: end.Y}, end}
	}

	if math.Abs(dy) <= (sourceSize.Height+targetSize.Height)/2 {
		return DirectRoute(source, target, sourceSize, targetSize)
	}
	sign := math.Copysign(1, dy)
	start := Point{X: source.X, Y: source.Y + sign*sourceSize.Height/2}
	end := Point{X: target.X, Y: target.Y - sign*targetSize.Height/2}
	midY := (start.Y + end.Y) / 2
	return []Point{start, {X: start.X, Y: midY}, {X: end.X, Y: midY}, end}
}

// LayoutConnection picks the route for a fresh connection: direct when the
// centres are within tolerance on either axis, Manhattan otherwise.
func LayoutConnection(source, target Point, sourceSize, targetSize Size, tolerance float64) []Point {
	if math.Abs(source.X-target.X) < tolerance || math.Abs(source.Y-target.Y) < tolerance {
		return DirectRoute(source, target, sourceSize, targetSize)
	}
	return ManhattanRoute(source, target, sourceSize, targetSize)
}

// InsertWaypointNear inserts p into the segment of waypoints closest to it when
// that segment lies within tolerance. It returns the new slice and the index of
// the inserted point, or the input and -1 when no segment is close enough.
func InsertWaypointNear(waypoints []Point, p Point, tolerance float64) ([]Point, int) {
	best := -1
	bestDist := math.Inf(1)
	for i := 1; i < len(waypoints); i++ {
		d, _ := DistanceToSegment(p, waypoints[i-1], waypoints[i])
		if d <= tolerance && d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return waypoints, -1
	}
	out := make([]Point, 0, len(waypoints)+1)
	out = append(out, waypoints[:best]...)
	out = append(out, p)
	out = append(out, waypoints[best:]...)
	return out, best
}
