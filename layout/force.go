package layout

import (
	"condec/diagram"
	"math"
	"math/rand"
	"time"
)

// ForceDirected is a spring-embedder used to place imported activities. Nodes
// start on a jittered circle, repel when closer than the minimum separation,
// are pulled together along relations and drift toward the canvas centre.
type ForceDirected struct {
	Width, Height float64
	NodeRadius    float64
	Iterations    int

	rng *rand.Rand
}

// Tuning constants for ForceDirected.
const (
	separationFactor = 2.2
	repulsionGain    = 1.5
	repulsionStep    = 0.09
	springLength     = 1.2
	springGain       = 0.014
	centering        = 0.012
	maxNudgePasses   = 10
	jitter           = 0.15
)

// NewForceDirected creates a layout over a 1600x1200 canvas. A zero seed
// seeds from the clock; any other seed makes the layout deterministic.
func NewForceDirected(seed int64) *ForceDirected {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ForceDirected{
		Width:      1600,
		Height:     1200,
		NodeRadius: 80,
		Iterations: 900,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Name returns the engine name.
func (f *ForceDirected) Name() string {
	return "force-directed"
}

// Layout returns nodes at their new positions, in input order.
func (f *ForceDirected) Layout(nodes []diagram.Node, relations []diagram.Relation) []diagram.Node {
	out := make([]diagram.Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	index := make(map[string]int, len(out))
	for i, n := range out {
		index[n.ID] = i
	}

	n := float64(len(out))
	minSep := f.NodeRadius * separationFactor
	k := math.Sqrt(f.Width * f.Height / n)
	cx, cy := f.Width/2, f.Height/2

	radius := max(350, 400+n*10)
	for i := range out {
		angle := 2 * math.Pi * float64(i) / n
		r := 1 + (f.rng.Float64()-0.5)*jitter
		out[i].X = cx + radius*math.Cos(angle)*r
		out[i].Y = cy + radius*math.Sin(angle)*r
	}

	for iter := 0; iter < f.Iterations; iter++ {
		for i := range out {
			var dx, dy float64
			for j := range out {
				if i == j {
					continue
				}
				nx, ny, dist := separation(out[i], out[j])
				if dist < minSep {
					dx += nx / dist * (minSep - dist) * repulsionGain
					dy += ny / dist * (minSep - dist) * repulsionGain
				}
			}
			out[i].X += dx * repulsionStep
			out[i].Y += dy * repulsionStep
		}

		for _, rel := range relations {
			si, ok1 := index[rel.SourceID]
			ti, ok2 := index[rel.TargetID]
			if !ok1 || !ok2 || rel.IsNary() {
				continue
			}
			nx, ny, dist := separation(out[ti], out[si])
			force := (dist - k*springLength) * springGain
			fx, fy := nx/dist*force, ny/dist*force
			out[si].X += fx
			out[si].Y += fy
			out[ti].X -= fx
			out[ti].Y -= fy
		}

		for i := range out {
			out[i].X += (cx - out[i].X) * centering
			out[i].Y += (cy - out[i].Y) * centering
		}
	}

	for pass := 0; pass < maxNudgePasses; pass++ {
		changed := false
		for i := range out {
			for j := i + 1; j < len(out); j++ {
				nx, ny, dist := separation(out[i], out[j])
				if dist >= minSep {
					continue
				}
				push := (minSep - dist) / 2
				px, py := nx/dist*push, ny/dist*push
				out[i].X += px
				out[i].Y += py
				out[j].X -= px
				out[j].Y -= py
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for i := range out {
		out[i].X = math.Max(f.NodeRadius, math.Min(f.Width-f.NodeRadius, out[i].X))
		out[i].Y = math.Max(f.NodeRadius, math.Min(f.Height-f.NodeRadius, out[i].Y))
	}
	return out
}

// separation returns the vector from b to a and its length, never zero.
func separation(a, b diagram.Node) (dx, dy, dist float64) {
	dx, dy = a.X-b.X, a.Y-b.Y
	dist = math.Sqrt(dx*dx + dy*dy)
	if dist == 0 {
		dist = 0.01
	}
	return dx, dy, dist
}
