package export

import (
	"condec/diagram"
	"condec/geometry"
	"math"
	"reflect"
	"testing"
)

func TestStyleOf(t *testing.T) {
	tests := []struct {
		typ  diagram.RelationType
		want Style
	}{
		{diagram.RespExistence, Style{Start: MarkerBall}},
		{diagram.Coexistence, Style{Start: MarkerBall, End: MarkerBall}},
		{diagram.Response, Style{Start: MarkerBall, End: MarkerArrow}},
		{diagram.Precedence, Style{End: MarkerArrowBall}},
		{diagram.Succession, Style{Start: MarkerBall, End: MarkerArrowBall}},
		{diagram.AltResponse, Style{Start: MarkerBall, End: MarkerArrow, Lines: LineAlt}},
		{diagram.ChainPrecedence, Style{End: MarkerArrowBall, Lines: LineChain}},
		{diagram.RespAbsence, Style{Start: MarkerBall, Negated: true}},
		{diagram.NotCoexistence, Style{Start: MarkerBall, End: MarkerBall, Negated: true}},
		{diagram.NegAltSuccession, Style{Start: MarkerBall, End: MarkerArrowBall, Lines: LineAlt, Negated: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := StyleOf(tt.typ); got != tt.want {
				t.Errorf("StyleOf(%s) = %+v, want %+v", tt.typ, got, tt.want)
			}
		})
	}
}

func near(a, b geometry.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestOffsetPolyline(t *testing.T) {
	straight := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	got := offsetPolyline(straight, 3)
	want := []geometry.Point{{X: 0, Y: 3}, {X: 10, Y: 3}}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}

	// A right angle corner keeps both legs at the offset distance.
	corner := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	want = []geometry.Point{{X: 0, Y: -2}, {X: 12, Y: -2}, {X: 12, Y: 10}}
	got = offsetPolyline(corner, -2)
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("corner point %d = %v, want %v", i, got[i], want[i])
		}
	}

	single := []geometry.Point{{X: 1, Y: 1}}
	if !reflect.DeepEqual(offsetPolyline(single, 3), single) {
		t.Error("single point should be returned unchanged")
	}
}

func TestTrimPolyline(t *testing.T) {
	line := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 20}}
	got := trimPolyline(line, 2, 5)
	want := []geometry.Point{{X: 2, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 15}}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
	if line[0] != (geometry.Point{}) {
		t.Error("trimPolyline modified its input")
	}

	short := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}
	if got := trimPolyline(short, 6, 6); !reflect.DeepEqual(got, short) {
		t.Errorf("segment shorter than the trim should be kept, got %v", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width float64
		want  []string
	}{
		{"", 84, nil},
		{"Pay", 84, []string{"Pay"}},
		{"Receive   order", 200, []string{"Receive order"}},
		{"Check credit card", 84, []string{"Check", "credit card"}},
		{"Supercalifragilistic", 10, []string{"Supercalifragilistic"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := wrapText(tt.in, tt.width, 12); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildScene(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", X: 100, Y: 100, Constraint: diagram.ConstraintInit},
			{ID: "b", X: 300, Y: 100},
		},
		Relations: []diagram.Relation{
			{ID: "r1", Type: diagram.Response, SourceID: "b", TargetID: "a",
				Waypoints: []geometry.Point{{X: 250, Y: 100}, {X: 150, Y: 100}}},
			{ID: "r2", Type: diagram.Succession, SourceID: "a", TargetID: "b"},
			{ID: "n1", Type: diagram.ExChoice, Activities: []string{"a", "b", "missing"}, N: 1},
		},
	}

	sc := buildScene(d)
	if len(sc.relations) != 1 || sc.relations[0].id != "r1" {
		t.Fatalf("expected only the routed relation, got %+v", sc.relations)
	}
	r := sc.relations[0]
	if r.label != "Response" || r.labelAt != (geometry.Point{X: 200, Y: 100}) {
		t.Errorf("label %q at %v", r.label, r.labelAt)
	}
	if math.Abs(r.angle-180) > 1e-9 {
		t.Errorf("angle = %v, want 180", r.angle)
	}
	if len(r.parallels) != 0 {
		t.Error("single line style should have no parallels")
	}

	if len(sc.choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(sc.choices))
	}
	c := sc.choices[0]
	if c.label != "1/3" || len(c.spokes) != 2 {
		t.Errorf("choice label %q with %d spokes", c.label, len(c.spokes))
	}

	if !sc.nodes[0].violated || sc.nodes[0].notation != "init" {
		t.Errorf("init node with a positive incoming relation should be flagged: %+v", sc.nodes[0])
	}
	if sc.nodes[1].violated {
		t.Error("unconstrained node flagged")
	}
}
