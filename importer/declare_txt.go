package importer

import (
	"bytes"
	"condec/diagram"
	"condec/layout"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DeclareTXTImporter reads mined Declare models written as a Python dict:
// template name to a map from activity pairs (or single activities) to
// their metrics.
//
//	{'Response': {('A', 'B'): {'support': 0.8, 'confidence': 0.9}},
//	 'Existence1': {'A': 1}}
//
// For every ordered pair only the best-scoring relation is kept.
type DeclareTXTImporter struct {
	engine layout.LayoutEngine
}

// NewDeclareTXTImporter creates a Declare TXT importer that places
// activities with engine.
func NewDeclareTXTImporter(engine layout.LayoutEngine) *DeclareTXTImporter {
	return &DeclareTXTImporter{engine: engine}
}

var (
	txtComment = regexp.MustCompile(`(?m)\n?[ \t]*#.*$`)
	txtTuple   = regexp.MustCompile(`\(\s*"([^"]+)"\s*,\s*"([^"]+)"\s*\)\s*:`)
)

const pairSeparator = "|||"

// clean turns the Python dict into JSON: comments go, quotes become double
// and tuple keys become "A|||B" strings.
func clean(content string) string {
	s := strings.TrimPrefix(content, "\ufeff")
	s = txtComment.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "'", `"`)
	return txtTuple.ReplaceAllString(s, `"${1}`+pairSeparator+`${2}":`)
}

// CanImport reports whether content looks like a dict that is not a native
// document.
func (t *DeclareTXTImporter) CanImport(content string) bool {
	trimmed := strings.TrimSpace(clean(content))
	return strings.HasPrefix(trimmed, "{") && !NewJSONImporter().CanImport(content)
}

type member struct {
	key   string
	value json.RawMessage
}

// members decodes a JSON object keeping its keys in document order.
func members(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object")
	}

	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, member{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

type metrics struct {
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
}

type candidate struct {
	relation diagram.RelationType
	source   string
	target   string
	metrics
}

func (c candidate) score() float64 {
	return c.Support + c.Confidence
}

// better orders candidates by combined score, then confidence, then
// support. Ties keep the earlier candidate.
func (c candidate) better(than candidate) bool {
	if c.score() != than.score() {
		return c.score() > than.score()
	}
	if c.Confidence != than.Confidence {
		return c.Confidence > than.Confidence
	}
	return c.Support > than.Support
}

// Import converts the model into a laid-out diagram.
func (t *DeclareTXTImporter) Import(content string) (*diagram.Diagram, error) {
	templates, err := members([]byte(clean(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse TXT file as Declare Python dict: %v", ErrMalformed, err)
	}

	type single struct {
		activity string
		tmpl     template
		value    int
	}
	var (
		pairs   []string
		best    = map[string]candidate{}
		singles []single
	)
	for _, tm := range templates {
		entries, err := members(tm.value)
		if err != nil {
			// Scalars and lists carry no constraints.
			continue
		}
		tmpl, known := lookupTemplate(tm.key)
		if !known {
			continue
		}
		for _, e := range entries {
			source, target, isPair := strings.Cut(e.key, pairSeparator)
			if !isPair {
				if !tmpl.isRelation() {
					singles = append(singles, single{activity: e.key, tmpl: tmpl, value: cardinality(e.value)})
				}
				continue
			}
			if !tmpl.isRelation() {
				continue
			}

			c := candidate{relation: tmpl.relation, source: source, target: target}
			_ = json.Unmarshal(e.value, &c.metrics)
			key := source + pairSeparator + target
			prev, seen := best[key]
			if !seen {
				pairs = append(pairs, key)
				best[key] = c
			} else if c.better(prev) {
				best[key] = c
			}
		}
	}

	d := diagram.New()
	nodes := map[string]int{}
	addNode := func(name string) string {
		if _, ok := nodes[name]; !ok {
			nodes[name] = len(d.Nodes)
			d.Nodes = append(d.Nodes, diagram.Node{ID: activityID(name), Name: name})
		}
		return activityID(name)
	}

	for i, key := range pairs {
		c := best[key]
		d.Relations = append(d.Relations, diagram.Relation{
			ID:       fmt.Sprintf("%s_%d", diagram.PrefixRelation, i),
			Type:     c.relation,
			SourceID: addNode(c.source),
			TargetID: addNode(c.target),
		})
	}
	for _, s := range singles {
		addNode(s.activity)
		applyConstraint(&d.Nodes[nodes[s.activity]], s.tmpl, s.value)
	}

	return place(t.engine, d)
}

// cardinality reads a single-activity entry's value as a bound. Metrics
// objects and non-integral numbers yield 0.
func cardinality(raw json.RawMessage) int {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || v != math.Trunc(v) || v < 1 {
		return 0
	}
	return int(v)
}

// GetFormatName returns the format name
func (t *DeclareTXTImporter) GetFormatName() string {
	return "declare-txt"
}

// GetFileExtensions returns common file extensions
func (t *DeclareTXTImporter) GetFileExtensions() []string {
	return []string{".txt", ".py"}
}
