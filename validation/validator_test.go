package validation

import (
	"condec/diagram"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func newDoc(nodes ...diagram.Node) *diagram.Diagram {
	return &diagram.Diagram{Nodes: nodes, Relations: []diagram.Relation{}}
}

func rel(id string, t diagram.RelationType, source, target string) diagram.Relation {
	return diagram.Relation{ID: id, Type: t, SourceID: source, TargetID: target}
}

func TestValidateNodeRules(t *testing.T) {
	tests := []struct {
		name       string
		constraint diagram.Constraint
		value      int
		incoming   []diagram.RelationType
		valid      bool
		count      int
		prefix     string
	}{
		{"none", diagram.ConstraintNone, 0, []diagram.RelationType{diagram.Response}, true, 1, ""},
		{"absence clean", diagram.ConstraintAbsence, 0, []diagram.RelationType{diagram.NegResponse}, true, 0, ""},
		{"absence violated", diagram.ConstraintAbsence, 0, []diagram.RelationType{diagram.Response}, false, 1, "Absence constraint"},
		{"absence_n within", diagram.ConstraintAbsenceN, 2, []diagram.RelationType{diagram.Response, diagram.Succession}, true, 2, ""},
		{"absence_n over", diagram.ConstraintAbsenceN, 1, []diagram.RelationType{diagram.Response, diagram.Succession}, false, 2, "Absence(1)"},
		{"existence_n short", diagram.ConstraintExistenceN, 2, []diagram.RelationType{diagram.Response, diagram.NegResponse}, false, 1, "Existence(2)"},
		{"existence_n met", diagram.ConstraintExistenceN, 1, []diagram.RelationType{diagram.Response}, true, 1, ""},
		{"exactly_n met", diagram.ConstraintExactlyN, 2, []diagram.RelationType{diagram.Response, diagram.Precedence, diagram.NotCoexistence}, true, 2, ""},
		{"exactly_n under", diagram.ConstraintExactlyN, 2, []diagram.RelationType{diagram.Response}, false, 1, "Exactly(2)"},
		{"init positive", diagram.ConstraintInit, 0, []diagram.RelationType{diagram.Response}, false, 1, "Init constraint"},
		{"init allowed negative", diagram.ConstraintInit, 0, []diagram.RelationType{diagram.NegChainSuccession, diagram.RespAbsence}, true, 0, ""},
		{"init disallowed negative", diagram.ConstraintInit, 0, []diagram.RelationType{diagram.NegPrecedence}, false, 0, "Init constraint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := diagram.Node{ID: "t", Constraint: tt.constraint, ConstraintValue: tt.value}
			d := newDoc(target, diagram.Node{ID: "s"})
			for i, rt := range tt.incoming {
				d.Relations = append(d.Relations, rel(string(rune('a'+i)), rt, "s", "t"))
			}

			res := ValidateNode(target, d)
			if res.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v (%s)", tt.valid, res.Valid, res.Message)
			}
			if res.IncomingCount != tt.count {
				t.Errorf("Expected incoming count %d, got %d", tt.count, res.IncomingCount)
			}
			if tt.valid && res.Message != "" {
				t.Errorf("Expected no message, got %q", res.Message)
			}
			if !strings.HasPrefix(res.Message, tt.prefix) {
				t.Errorf("Expected message starting with %q, got %q", tt.prefix, res.Message)
			}
		})
	}
}

func TestValidateNodeIgnoresUnrelatedOrder(t *testing.T) {
	target := diagram.Node{ID: "t", Constraint: diagram.ConstraintExactlyN, ConstraintValue: 2}
	d := newDoc(target, diagram.Node{ID: "a"}, diagram.Node{ID: "b"})
	d.Relations = []diagram.Relation{
		rel("1", diagram.Response, "a", "t"),
		rel("2", diagram.Precedence, "a", "b"),
		rel("3", diagram.Succession, "b", "t"),
		rel("4", diagram.NegResponse, "b", "a"),
		{ID: "5", Type: diagram.Choice, Activities: []string{"a", "t"}, N: 1},
	}
	want := ValidateNode(target, d)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := d.Clone()
		r.Shuffle(len(shuffled.Relations), func(i, j int) {
			shuffled.Relations[i], shuffled.Relations[j] = shuffled.Relations[j], shuffled.Relations[i]
		})
		if got := ValidateNode(target, shuffled); got != want {
			t.Fatalf("Result changed after shuffle: %+v vs %+v", got, want)
		}
	}
}

func TestAbsenceScenario(t *testing.T) {
	d := newDoc(
		diagram.Node{ID: "A", Constraint: diagram.ConstraintAbsence},
		diagram.Node{ID: "B"},
	)

	err := CheckRelation(d, "B", "A", diagram.Response)
	if !errors.Is(err, ErrRelationNotAllowed) {
		t.Fatalf("Expected ErrRelationNotAllowed, got %v", err)
	}

	d.Relations = append(d.Relations, rel("forced", diagram.Response, "B", "A"))
	res := ValidateNode(d.Nodes[0], d)
	if res.Valid {
		t.Error("Expected forced relation to violate absence")
	}
	if !strings.Contains(res.Message, "Absence") {
		t.Errorf("Expected Absence message, got %q", res.Message)
	}
}

func TestExactlyNScenario(t *testing.T) {
	d := newDoc(
		diagram.Node{ID: "A", Constraint: diagram.ConstraintExactlyN, ConstraintValue: 2},
		diagram.Node{ID: "B"},
		diagram.Node{ID: "C"},
		diagram.Node{ID: "D"},
	)

	for i, src := range []string{"B", "C"} {
		if !IsRelationAllowed(d, src, "A", diagram.Response) {
			t.Fatalf("Relation %d should be allowed", i)
		}
		d.Relations = append(d.Relations, rel(src, diagram.Response, src, "A"))
	}

	res := ValidateNode(d.Nodes[0], d)
	if !res.Valid || res.IncomingCount != 2 {
		t.Fatalf("Expected valid with 2 incoming, got %+v", res)
	}

	if IsRelationAllowed(d, "D", "A", diagram.Response) {
		t.Error("Third positive relation should be rejected")
	}
	if !IsRelationAllowed(d, "D", "A", diagram.NegResponse) {
		t.Error("Negative relation should not count toward the ceiling")
	}

	d.Relations = append(d.Relations, rel("D", diagram.Response, "D", "A"))
	if res := ValidateNode(d.Nodes[0], d); res.Valid {
		t.Error("Expected third relation to violate exactly(2)")
	}
}

func TestCheckRelationInit(t *testing.T) {
	d := newDoc(
		diagram.Node{ID: "init", Constraint: diagram.ConstraintInit},
		diagram.Node{ID: "x"},
	)

	tests := []struct {
		name    string
		source  string
		target  string
		rt      diagram.RelationType
		allowed bool
	}{
		{"positive into init", "x", "init", diagram.Response, false},
		{"allowed negative into init", "x", "init", diagram.NegSuccession, true},
		{"disallowed negative into init", "x", "init", diagram.NegAltResponse, false},
		{"response out of init", "init", "x", diagram.Response, true},
		{"alt response out of init", "init", "x", diagram.AltResponse, true},
		{"precedence out of init", "init", "x", diagram.Precedence, false},
		{"chain precedence out of init", "init", "x", diagram.ChainPrecedence, false},
		{"allowed negative out of init", "init", "x", diagram.NotCoexistence, true},
		{"disallowed negative out of init", "init", "x", diagram.NegPrecedence, false},
		{"unknown source", "nope", "x", diagram.Response, false},
		{"unknown target", "x", "nope", diagram.Response, false},
		{"n-ary type", "x", "init", diagram.Choice, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRelationAllowed(d, tt.source, tt.target, tt.rt); got != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v (%v)", tt.allowed, got, CheckRelation(d, tt.source, tt.target, tt.rt))
			}
		})
	}
}

func TestCheckRelationAbsenceN(t *testing.T) {
	d := newDoc(
		diagram.Node{ID: "t", Constraint: diagram.ConstraintAbsenceN, ConstraintValue: 1},
		diagram.Node{ID: "s"},
	)
	if !IsRelationAllowed(d, "s", "t", diagram.Response) {
		t.Fatal("First relation should be allowed")
	}
	d.Relations = append(d.Relations, rel("r", diagram.Response, "s", "t"))
	if IsRelationAllowed(d, "s", "t", diagram.Succession) {
		t.Error("Second positive relation should be rejected")
	}
}

func TestViolations(t *testing.T) {
	d := newDoc(
		diagram.Node{ID: "a", Name: "A", Constraint: diagram.ConstraintExistenceN, ConstraintValue: 1},
		diagram.Node{ID: "b", Name: "B"},
	)
	v := Violations(d)
	if len(v) != 1 || v[0].NodeID != "a" {
		t.Fatalf("Expected one violation for a, got %+v", v)
	}
	d.Relations = append(d.Relations, rel("r", diagram.Response, "b", "a"))
	if v := Violations(d); len(v) != 0 {
		t.Errorf("Expected no violations, got %+v", v)
	}
}

func TestIsNaryAllowed(t *testing.T) {
	d := newDoc(diagram.Node{ID: "a"}, diagram.Node{ID: "b"})
	if !IsNaryAllowed(d, []string{"a", "b"}) {
		t.Error("Two existing activities should be allowed")
	}
	if IsNaryAllowed(d, []string{"a", "a"}) {
		t.Error("Duplicate activities should not count twice")
	}
	if IsNaryAllowed(d, []string{"a", "zz"}) {
		t.Error("Unknown activity should be rejected")
	}
}
