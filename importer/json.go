package importer

import (
	"condec/connections"
	"condec/diagram"
	"encoding/json"
	"fmt"
	"strings"
)

// JSONImporter reads the native document format. Documents are returned as
// written, except that binary relations without waypoints get a route.
type JSONImporter struct{}

// NewJSONImporter creates a new JSON importer
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

// CanImport reports whether content is a JSON object with nodes and
// relations keys.
func (j *JSONImporter) CanImport(content string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &keys); err != nil {
		return false
	}
	_, hasNodes := keys["nodes"]
	_, hasRelations := keys["relations"]
	return hasNodes && hasRelations
}

// Import parses and validates a document.
func (j *JSONImporter) Import(content string) (*diagram.Diagram, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	var d diagram.Diagram
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}
	if d.Nodes == nil || d.Relations == nil {
		return nil, fmt.Errorf("%w: JSON must be a diagram object with nodes and relations", ErrMalformed)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i, r := range d.Relations {
		if !r.IsNary() && len(r.Waypoints) < 2 {
			d.Relations[i] = connections.Route(r, &d)
		}
	}
	return &d, nil
}

// GetFormatName returns the format name
func (j *JSONImporter) GetFormatName() string {
	return "json"
}

// GetFileExtensions returns common file extensions
func (j *JSONImporter) GetFileExtensions() []string {
	return []string{".json"}
}
