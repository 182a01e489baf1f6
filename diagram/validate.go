package diagram

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid diagram")

var docValidate *validator.Validate

func init() {
	docValidate = validator.New()
	_ = docValidate.RegisterValidation("constraint", func(fl validator.FieldLevel) bool {
		return Constraint(fl.Field().String()).IsKnown()
	})
	_ = docValidate.RegisterValidation("relationtype", func(fl validator.FieldLevel) bool {
		return RelationType(fl.Field().String()).IsKnown()
	})
}

// Validate checks that the document is well formed: required fields are set,
// kinds are known, ids are unique, every relation references existing
// nodes and choice relations have a consistent n. Constraint violations are not structural problems and are not
// reported here.
func (d *Diagram) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalid)
	}
	if d.Nodes == nil || d.Relations == nil {
		return fmt.Errorf("%w: document must contain nodes and relations", ErrInvalid)
	}
	if err := docValidate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var errs []error
	nodes := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if nodes[n.ID] {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
		if n.Constraint.IsCardinality() && n.ConstraintValue < 1 {
			errs = append(errs, fmt.Errorf("node %q: %s requires a positive constraintValue", n.ID, n.Constraint))
		}
	}

	relations := make(map[string]bool, len(d.Relations))
	for _, r := range d.Relations {
		if relations[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate relation id %q", r.ID))
		}
		relations[r.ID] = true

		if r.IsNary() {
			errs = append(errs, validateChoice(r, nodes)...)
			continue
		}
		if !nodes[r.SourceID] {
			errs = append(errs, fmt.Errorf("relation %q: unknown source %q", r.ID, r.SourceID))
		}
		if !nodes[r.TargetID] {
			errs = append(errs, fmt.Errorf("relation %q: unknown target %q", r.ID, r.TargetID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// validateChoice checks a choice relation: at least two distinct existing
// activities, and n between 1 and their count.
func validateChoice(r Relation, nodes map[string]bool) []error {
	var errs []error
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if seen[a] {
			errs = append(errs, fmt.Errorf("relation %q: duplicate activity %q", r.ID, a))
			continue
		}
		seen[a] = true
		if !nodes[a] {
			errs = append(errs, fmt.Errorf("relation %q: unknown activity %q", r.ID, a))
		}
	}
	if len(seen) < 2 {
		errs = append(errs, fmt.Errorf("relation %q: choice relation needs at least two activities", r.ID))
		return errs
	}
	if r.N < 1 || r.N > len(seen) {
		errs = append(errs, fmt.Errorf("relation %q: n=%d is outside 1..%d", r.ID, r.N, len(seen)))
	}
	return errs
}
