package importer

import (
	"condec/diagram"
	"condec/layout"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// DeclareXMLImporter reads Declare designer models. Activities come from
// activitydefinitions and constraints from constraintdefinitions, wherever
// they sit in the document.
type DeclareXMLImporter struct {
	engine layout.LayoutEngine
}

// NewDeclareXMLImporter creates a Declare XML importer that places
// activities with engine.
func NewDeclareXMLImporter(engine layout.LayoutEngine) *DeclareXMLImporter {
	return &DeclareXMLImporter{engine: engine}
}

type xmlActivities struct {
	Activities []struct {
		Name string `xml:"name,attr"`
	} `xml:"activity"`
}

type xmlConstraints struct {
	Constraints []xmlConstraint `xml:"constraint"`
}

type xmlConstraint struct {
	Name       string         `xml:"name"`
	Display    string         `xml:"template>display"`
	Parameters []xmlParameter `xml:"constraintparameters>parameter"`
}

type xmlParameter struct {
	Branches []struct {
		Name string `xml:"name,attr"`
	} `xml:"branches>branch"`
}

func (p xmlParameter) branch() string {
	if len(p.Branches) == 0 {
		return ""
	}
	return p.Branches[0].Name
}

var displayDigits = regexp.MustCompile(`\d+`)

// CanImport reports whether content is XML with Declare definitions.
func (x *DeclareXMLImporter) CanImport(content string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	return strings.HasPrefix(trimmed, "<") &&
		(strings.Contains(trimmed, "<activitydefinitions") || strings.Contains(trimmed, "<constraintdefinitions"))
}

// Import converts the model into a laid-out diagram. Binary constraints name
// their target in the first parameter and their source in the second.
func (x *DeclareXMLImporter) Import(content string) (*diagram.Diagram, error) {
	var (
		activities  xmlActivities
		constraints xmlConstraints
		found       bool
	)
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid XML: %v", ErrMalformed, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "activitydefinitions":
			found = true
			var defs xmlActivities
			if err := dec.DecodeElement(&defs, &start); err != nil {
				return nil, fmt.Errorf("%w: activitydefinitions: %v", ErrMalformed, err)
			}
			activities.Activities = append(activities.Activities, defs.Activities...)
		case "constraintdefinitions":
			found = true
			var defs xmlConstraints
			if err := dec.DecodeElement(&defs, &start); err != nil {
				return nil, fmt.Errorf("%w: constraintdefinitions: %v", ErrMalformed, err)
			}
			constraints.Constraints = append(constraints.Constraints, defs.Constraints...)
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: no Declare definitions", ErrMalformed)
	}

	d := diagram.New()
	nodes := map[string]int{}
	for _, a := range activities.Activities {
		if _, dup := nodes[a.Name]; dup {
			continue
		}
		nodes[a.Name] = len(d.Nodes)
		d.Nodes = append(d.Nodes, diagram.Node{ID: activityID(a.Name), Name: a.Name})
	}

	for i, c := range constraints.Constraints {
		tmpl, known := lookupTemplate(c.Name)
		if !known {
			continue
		}
		switch len(c.Parameters) {
		case 2:
			target, source := c.Parameters[0].branch(), c.Parameters[1].branch()
			if !tmpl.isRelation() || source == "" || target == "" {
				continue
			}
			d.Relations = append(d.Relations, diagram.Relation{
				ID:       fmt.Sprintf("%s_%d", diagram.PrefixRelation, i),
				Type:     tmpl.relation,
				SourceID: activityID(source),
				TargetID: activityID(target),
			})
		case 1:
			idx, ok := nodes[c.Parameters[0].branch()]
			if !ok || tmpl.isRelation() {
				continue
			}
			applyConstraint(&d.Nodes[idx], tmpl, displayValue(tmpl, c.Display))
		}
	}

	return place(x.engine, d)
}

// displayValue reads a cardinality from a template display such as "1..*"
// or "exactly 2".
func displayValue(t template, display string) int {
	if t.constraint == diagram.ConstraintExistenceN && strings.HasPrefix(display, "1..") {
		return 1
	}
	m := displayDigits.FindString(display)
	if m == "" {
		return 0
	}
	v, _ := strconv.Atoi(m)
	return v
}

// GetFormatName returns the format name
func (x *DeclareXMLImporter) GetFormatName() string {
	return "declare-xml"
}

// GetFileExtensions returns common file extensions
func (x *DeclareXMLImporter) GetFileExtensions() []string {
	return []string{".xml", ".decl"}
}
