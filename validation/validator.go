// Package validation checks activity cardinality constraints against the
// relations that target each activity.
package validation

import (
	"condec/diagram"
	"fmt"
	"strings"
)

// initNegatives are the negative kinds an init activity may take part in.
var initNegatives = map[diagram.RelationType]bool{
	diagram.RespAbsence:        true,
	diagram.NotCoexistence:     true,
	diagram.NegResponse:        true,
	diagram.NegSuccession:      true,
	diagram.NegChainResponse:   true,
	diagram.NegChainSuccession: true,
}

// Result is the outcome of validating one node.
type Result struct {
	Valid         bool
	IncomingCount int // positive incoming relations
	NegativeCount int // negative incoming relations
	Limit         int // constraintValue for cardinality kinds
	Message       string
}

// Violation pairs a node with its failing result.
type Violation struct {
	NodeID string
	Name   string
	Result Result
}

// incoming splits the relations targeting id into positive and negative kinds.
func incoming(id string, d *diagram.Diagram) (positive, negative []diagram.Relation) {
	for _, r := range d.Relations {
		if r.IsNary() || r.TargetID != id {
			continue
		}
		if r.Type.IsNegative() {
			negative = append(negative, r)
		} else {
			positive = append(positive, r)
		}
	}
	return positive, negative
}

// ValidateNode evaluates the node's constraint against the current document.
// The result depends only on the constraint, its value and the relation kinds
// that target the node.
func ValidateNode(node diagram.Node, d *diagram.Diagram) Result {
	if d == nil {
		return Result{Valid: true}
	}
	positive, negative := incoming(node.ID, d)
	res := Result{
		Valid:         true,
		IncomingCount: len(positive),
		NegativeCount: len(negative),
	}
	count := res.IncomingCount

	switch node.Constraint {
	case diagram.ConstraintAbsence:
		if count != 0 {
			res.Valid = false
			res.Message = "Absence constraint violated: activity has positive incoming relations that would trigger execution"
		}

	case diagram.ConstraintAbsenceN:
		res.Limit = node.ConstraintValue
		if count > res.Limit {
			res.Valid = false
			res.Message = fmt.Sprintf("Absence(%d) constraint violated: has %d positive incoming relations, maximum allowed is %d",
				res.Limit, count, res.Limit)
		}

	case diagram.ConstraintExistenceN:
		res.Limit = node.ConstraintValue
		if count < res.Limit {
			res.Valid = false
			res.Message = fmt.Sprintf("Existence(%d) constraint violated: has only %d positive incoming relations, needs at least %d",
				res.Limit, count, res.Limit)
		}

	case diagram.ConstraintExactlyN:
		res.Limit = node.ConstraintValue
		if count != res.Limit {
			res.Valid = false
			res.Message = fmt.Sprintf("Exactly(%d) constraint violated: has %d positive incoming relations instead of exactly %d",
				res.Limit, count, res.Limit)
		}

	case diagram.ConstraintInit:
		var invalid []string
		for _, r := range negative {
			if !initNegatives[r.Type] {
				invalid = append(invalid, string(r.Type))
			}
		}
		switch {
		case count != 0:
			res.Valid = false
			res.Message = "Init constraint violated: activity must be first (no positive incoming relations)"
		case len(invalid) > 0:
			res.Valid = false
			res.Message = fmt.Sprintf("Init constraint violated: invalid negative relations (%s)", strings.Join(invalid, ", "))
		}
	}
	return res
}

// Violations validates every node and returns the failing ones in document
// order.
func Violations(d *diagram.Diagram) []Violation {
	if d == nil {
		return nil
	}
	var out []Violation
	for _, n := range d.Nodes {
		if res := ValidateNode(n, d); !res.Valid {
			out = append(out, Violation{NodeID: n.ID, Name: n.Name, Result: res})
		}
	}
	return out
}
