package export

import (
	"condec/diagram"
	"condec/geometry"
	"condec/validation"
	"fmt"
	"math"
	"strings"
)

// Marker is the end decoration of a relation line.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerBall
	MarkerArrow
	MarkerArrowBall // arrow with a ball behind it, for the precedence family
)

// LineStyle is how many parallel strokes draw a relation.
type LineStyle int

const (
	LineSingle LineStyle = iota
	LineAlt              // two parallel strokes
	LineChain            // centre stroke plus two parallel strokes
)

// Drawing constants shared by the image exporters.
const (
	parallelOffset = 3
	markerSize     = 6
	ballRadius     = 3
	negationHalf   = 12
	negationGap    = 3
	diamondHalf    = 15
	labelFontSize  = 11
	nameFontSize   = 12
	lineHeight     = 14
	textPadding    = 8
)

// Relation colours, node fill and the violation palette.
const (
	strokeColor     = "#555555"
	nodeStroke      = "#000000"
	nodeFill        = "#ffffff"
	textColor       = "#333333"
	violationStroke = "#d32f2f"
	violationFill   = "#ffebee"
	diamondFill     = "#f7fafd"
	diamondStroke   = "#183153"
)

// Style describes how a relation kind is drawn. Negative kinds take the
// decorations of the kind they negate plus a negation mark.
type Style struct {
	Start, End Marker
	Lines      LineStyle
	Negated    bool
}

// StyleOf returns the drawing style of a binary relation kind.
func StyleOf(t diagram.RelationType) Style {
	s := Style{Negated: t.IsNegative()}
	p := t.Positive()

	switch p {
	case diagram.AltResponse, diagram.AltPrecedence, diagram.AltSuccession:
		s.Lines = LineAlt
	case diagram.ChainResponse, diagram.ChainPrecedence, diagram.ChainSuccession:
		s.Lines = LineChain
	}

	switch p {
	case diagram.RespExistence:
		s.Start = MarkerBall
	case diagram.Coexistence:
		s.Start, s.End = MarkerBall, MarkerBall
	case diagram.Response, diagram.AltResponse, diagram.ChainResponse:
		s.Start, s.End = MarkerBall, MarkerArrow
	case diagram.Succession, diagram.AltSuccession, diagram.ChainSuccession:
		s.Start, s.End = MarkerBall, MarkerArrowBall
	case diagram.Precedence, diagram.AltPrecedence, diagram.ChainPrecedence:
		s.End = MarkerArrowBall
	}
	return s
}

// markerLength is how far a marker reaches back from its end point.
func markerLength(m Marker) float64 {
	switch m {
	case MarkerBall:
		return 2 * ballRadius
	case MarkerArrow:
		return markerSize
	case MarkerArrowBall:
		return markerSize + 2*ballRadius
	}
	return 0
}

// relationShape is a binary relation ready to draw. The centre path holds
// the markers and is only stroked when the style is not LineAlt.
type relationShape struct {
	id        string
	style     Style
	path      []geometry.Point
	parallels [][]geometry.Point
	mid       geometry.Point
	angle     float64 // degrees, direction of the segment at mid
	label     string
	labelAt   geometry.Point
}

type choiceShape struct {
	id     string
	spokes [][2]geometry.Point
	at     geometry.Point
	label  string
}

type nodeShape struct {
	id       string
	bounds   geometry.Rect
	name     string
	notation string
	violated bool
}

// scene is the resolved geometry of a diagram, shared by the SVG and PNG
// writers.
type scene struct {
	bounds    geometry.Rect
	relations []relationShape
	choices   []choiceShape
	nodes     []nodeShape
}

func buildScene(d *diagram.Diagram) scene {
	sc := scene{bounds: Bounds(d)}
	if d == nil {
		return sc
	}

	for _, r := range d.Relations {
		if r.IsNary() {
			sc.choices = append(sc.choices, buildChoice(r, d))
			continue
		}
		if len(r.Waypoints) < 2 {
			continue
		}
		sc.relations = append(sc.relations, buildRelation(r))
	}

	for _, n := range d.Nodes {
		sc.nodes = append(sc.nodes, nodeShape{
			id:       n.ID,
			bounds:   n.Bounds(),
			name:     n.Name,
			notation: n.Notation(),
			violated: !validation.ValidateNode(n, d).Valid,
		})
	}
	return sc
}

func buildRelation(r diagram.Relation) relationShape {
	s := relationShape{
		id:    r.ID,
		style: StyleOf(r.Type),
		path:  r.Waypoints,
		mid:   geometry.PolylineMidpoint(r.Waypoints),
		angle: midAngle(r.Waypoints),
	}

	if s.style.Lines != LineSingle {
		trimStart, trimEnd := markerLength(s.style.Start), markerLength(s.style.End)
		s.parallels = [][]geometry.Point{
			trimPolyline(offsetPolyline(r.Waypoints, parallelOffset), trimStart, trimEnd),
			trimPolyline(offsetPolyline(r.Waypoints, -parallelOffset), trimStart, trimEnd),
		}
	}

	if r.LabelVisible() {
		s.label = r.Type.Label()
		s.labelAt = s.mid
		if r.LabelOffset != nil {
			s.labelAt = s.labelAt.Add(*r.LabelOffset)
		}
	}
	return s
}

func buildChoice(r diagram.Relation, d *diagram.Diagram) choiceShape {
	at := d.DiamondPosition(r)
	c := choiceShape{
		id:    r.ID,
		at:    at,
		label: fmt.Sprintf("%d/%d", r.N, len(r.Activities)),
	}
	for _, id := range r.Activities {
		if n, ok := d.FindNode(id); ok {
			c.spokes = append(c.spokes, [2]geometry.Point{n.Center(), at})
		}
	}
	return c
}

// midAngle returns the direction in degrees of the segment holding the
// arc-length midpoint.
func midAngle(points []geometry.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += geometry.Distance(points[i-1], points[i])
	}
	half, acc := total/2, 0.0
	for i := 1; i < len(points); i++ {
		l := geometry.Distance(points[i-1], points[i])
		if acc+l >= half {
			d := points[i].Sub(points[i-1])
			return math.Atan2(d.Y, d.X) * 180 / math.Pi
		}
		acc += l
	}
	return 0
}

// offsetPolyline shifts a polyline sideways by dist. Interior vertices move
// along the averaged normal of their two segments.
func offsetPolyline(points []geometry.Point, dist float64) []geometry.Point {
	if len(points) < 2 {
		return points
	}
	normal := func(a, b geometry.Point) geometry.Point {
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			return geometry.Point{}
		}
		return geometry.Point{X: -d.Y / l, Y: d.X / l}
	}

	out := make([]geometry.Point, len(points))
	for i := range points {
		var n geometry.Point
		switch i {
		case 0:
			n = normal(points[0], points[1])
		case len(points) - 1:
			n = normal(points[i-1], points[i])
		default:
			n = normal(points[i-1], points[i]).Add(normal(points[i], points[i+1]))
			if l := math.Hypot(n.X, n.Y); l > 0 {
				// Miter the corner so both segments keep their distance.
				cos := (n.X*n.X + n.Y*n.Y) / (2 * l)
				n = n.Scale(1 / (l * max(cos, 0.5)))
			}
		}
		out[i] = points[i].Add(n.Scale(dist))
	}
	return out
}

// trimPolyline shortens a polyline by start at its head and end at its
// tail. A polyline too short to trim is returned as is.
func trimPolyline(points []geometry.Point, start, end float64) []geometry.Point {
	if len(points) < 2 {
		return points
	}
	out := make([]geometry.Point, len(points))
	copy(out, points)

	if l := geometry.Distance(out[0], out[1]); l > start {
		out[0] = out[0].Add(out[1].Sub(out[0]).Scale(start / l))
	}
	last := len(out) - 1
	if l := geometry.Distance(out[last], out[last-1]); l > end {
		out[last] = out[last].Add(out[last-1].Sub(out[last]).Scale(end / l))
	}
	return out
}

// wrapText splits s into lines no wider than width, estimating glyph
// widths from the font size.
func wrapText(s string, width, fontSize float64) []string {
	maxChars := max(int(width/(fontSize*0.6)), 1)
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(s) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= maxChars:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
