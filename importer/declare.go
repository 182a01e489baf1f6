package importer

import (
	"condec/diagram"
	"strconv"
	"strings"
)

// template is what a Declare template name maps to: either a binary
// relation kind or a node constraint with its cardinality.
type template struct {
	relation   diagram.RelationType
	constraint diagram.Constraint
	value      int
}

func (t template) isRelation() bool {
	return t.relation != ""
}

var declareRelations = map[string]diagram.RelationType{
	"responded existence": diagram.RespExistence,
	"co existence":        diagram.Coexistence,
	"coexistence":         diagram.Coexistence,
	"response":            diagram.Response,
	"precedence":          diagram.Precedence,
	"succession":          diagram.Succession,

	"alternate response":   diagram.AltResponse,
	"alternate precedence": diagram.AltPrecedence,
	"alternate succession": diagram.AltSuccession,
	"chain response":       diagram.ChainResponse,
	"chain precedence":     diagram.ChainPrecedence,
	"chain succession":     diagram.ChainSuccession,

	"responded absence":        diagram.RespAbsence,
	"not responded existence":  diagram.RespAbsence,
	"not co existence":         diagram.NotCoexistence,
	"not coexistence":          diagram.NotCoexistence,
	"not response":             diagram.NegResponse,
	"not precedence":           diagram.NegPrecedence,
	"not succession":           diagram.NegSuccession,
	"not alternate response":   diagram.NegAltResponse,
	"not alternate precedence": diagram.NegAltPrecedence,
	"not alternate succession": diagram.NegAltSuccession,
	"not chain response":       diagram.NegChainResponse,
	"not chain precedence":     diagram.NegChainPrecedence,
	"not chain succession":     diagram.NegChainSuccession,
}

func init() {
	// Internal kind names are accepted too, e.g. "chain_response".
	for _, t := range diagram.BinaryTypes {
		declareRelations[normalizeTemplate(string(t))] = t
	}
}

// normalizeTemplate lowercases a template name and folds '-' and '_' into
// single spaces.
func normalizeTemplate(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// lookupTemplate maps a Declare template name onto the diagram model.
// Cardinality templates carry their bound as a numeric suffix
// ("existence2", "absence3"); absenceK allows at most K-1 occurrences.
// The returned value is 0 when the name carries no bound.
func lookupTemplate(name string) (template, bool) {
	key := normalizeTemplate(name)
	if t, ok := declareRelations[key]; ok {
		return template{relation: t}, true
	}

	base := strings.TrimRight(key, "0123456789")
	n, _ := strconv.Atoi(key[len(base):])
	base = strings.TrimSpace(base)

	switch base {
	case "init":
		return template{constraint: diagram.ConstraintInit}, true
	case "absence":
		if n <= 1 {
			return template{constraint: diagram.ConstraintAbsence}, true
		}
		return template{constraint: diagram.ConstraintAbsenceN, value: n - 1}, true
	case "absence n":
		return template{constraint: diagram.ConstraintAbsenceN, value: n}, true
	case "existence", "existence n":
		return template{constraint: diagram.ConstraintExistenceN, value: n}, true
	case "exactly", "exactly n":
		return template{constraint: diagram.ConstraintExactlyN, value: n}, true
	}
	return template{}, false
}

// applyConstraint sets the template constraint on n. Cardinality kinds use
// the template bound, else fallback, and never go below 1. Other kinds carry
// no value.
func applyConstraint(n *diagram.Node, t template, fallback int) {
	n.Constraint = t.constraint
	if !t.constraint.IsCardinality() {
		n.ConstraintValue = 0
		return
	}
	v := t.value
	if v == 0 {
		v = fallback
	}
	n.ConstraintValue = max(v, 1)
}
