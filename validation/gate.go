package validation

import (
	"condec/diagram"
	"errors"
	"fmt"
)

// RejectionMessage is shown to the user when a relation is refused.
const RejectionMessage = "Cannot create this relation due to target constraints."

// ErrRelationNotAllowed is returned when creating a relation would break a
// constraint on one of its endpoints.
var ErrRelationNotAllowed = errors.New("relation not allowed")

// CheckRelation decides whether a relation of type t from source to target may
// be created in d. A nil error means the relation is allowed; otherwise the
// error wraps ErrRelationNotAllowed and names the reason.
func CheckRelation(d *diagram.Diagram, sourceID, targetID string, t diagram.RelationType) error {
	if d == nil {
		return fmt.Errorf("%w: no document", ErrRelationNotAllowed)
	}
	source, ok := d.FindNode(sourceID)
	if !ok {
		return fmt.Errorf("%w: unknown source %q", ErrRelationNotAllowed, sourceID)
	}
	target, ok := d.FindNode(targetID)
	if !ok {
		return fmt.Errorf("%w: unknown target %q", ErrRelationNotAllowed, targetID)
	}
	if !t.IsKnown() || t.IsNary() {
		return fmt.Errorf("%w: %q is not a binary relation type", ErrRelationNotAllowed, t)
	}

	positive := !t.IsNegative()
	positives, _ := incoming(targetID, d)
	count := len(positives)

	switch target.Constraint {
	case diagram.ConstraintAbsence:
		if positive {
			return fmt.Errorf("%w: %s must never occur", ErrRelationNotAllowed, label(target))
		}
	case diagram.ConstraintAbsenceN, diagram.ConstraintExactlyN:
		if positive && count+1 > target.ConstraintValue {
			return fmt.Errorf("%w: %s already has %d of %d positive incoming relations",
				ErrRelationNotAllowed, label(target), count, target.ConstraintValue)
		}
	case diagram.ConstraintInit:
		if positive {
			return fmt.Errorf("%w: %s must be first", ErrRelationNotAllowed, label(target))
		}
		if !initNegatives[t] {
			return fmt.Errorf("%w: %s cannot be the target of %s", ErrRelationNotAllowed, label(target), t.Label())
		}
	}

	if source.Constraint == diagram.ConstraintInit {
		if t.IsPrecedenceFamily() {
			return fmt.Errorf("%w: %s cannot precede from an init activity", ErrRelationNotAllowed, t.Label())
		}
		if !positive && !initNegatives[t] {
			return fmt.Errorf("%w: %s cannot leave an init activity", ErrRelationNotAllowed, t.Label())
		}
	}
	return nil
}

// IsRelationAllowed reports whether CheckRelation accepts the relation.
func IsRelationAllowed(d *diagram.Diagram, sourceID, targetID string, t diagram.RelationType) bool {
	return CheckRelation(d, sourceID, targetID, t) == nil
}

// IsNaryAllowed reports whether a choice relation over the activities can be
// created: at least two distinct, existing activities.
func IsNaryAllowed(d *diagram.Diagram, activities []string) bool {
	if d == nil {
		return false
	}
	seen := make(map[string]bool)
	for _, id := range activities {
		if _, ok := d.FindNode(id); !ok {
			return false
		}
		seen[id] = true
	}
	return len(seen) >= 2
}

func label(n diagram.Node) string {
	if n.Name != "" {
		return fmt.Sprintf("%q", n.Name)
	}
	return n.ID
}
