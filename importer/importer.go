package importer

import (
	"condec/connections"
	"condec/diagram"
	"condec/layout"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformed is wrapped by every error caused by the content being
// imported. No partial document is ever returned alongside it.
var ErrMalformed = errors.New("malformed import")

// ErrUnknownFormat is returned when no importer matches.
var ErrUnknownFormat = errors.New("unknown import format")

// Importer interface defines methods for importing diagrams from various formats
type Importer interface {
	// CanImport checks if the given content can be imported by this importer
	CanImport(content string) bool

	// Import converts the input content into a ConDec diagram
	Import(content string) (*diagram.Diagram, error)

	// GetFormatName returns the human-readable name of the format
	GetFormatName() string

	// GetFileExtensions returns common file extensions for this format
	GetFileExtensions() []string
}

// Registry manages available importers. Detection tries them in
// registration order.
type Registry struct {
	importers []Importer
}

// NewRegistry creates a registry holding the JSON, Declare XML and Declare
// TXT importers. Declare models carry no positions and are placed with
// engine; a nil engine means a time-seeded force-directed layout.
func NewRegistry(engine layout.LayoutEngine) *Registry {
	if engine == nil {
		engine = layout.NewForceDirected(0)
	}
	return &Registry{
		importers: []Importer{
			NewJSONImporter(),
			NewDeclareXMLImporter(engine),
			NewDeclareTXTImporter(engine),
		},
	}
}

// Register adds a new importer to the registry
func (r *Registry) Register(importer Importer) {
	r.importers = append(r.importers, importer)
}

// DetectFormat attempts to detect the format of the given content
func (r *Registry) DetectFormat(content string) (Importer, error) {
	for _, imp := range r.importers {
		if imp.CanImport(content) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("%w: unable to detect format", ErrUnknownFormat)
}

// Import attempts to import content using auto-detection
func (r *Registry) Import(content string) (*diagram.Diagram, error) {
	importer, err := r.DetectFormat(content)
	if err != nil {
		return nil, err
	}
	return importer.Import(content)
}

// ImportWithFormat imports content using a specific format
func (r *Registry) ImportWithFormat(content, format string) (*diagram.Diagram, error) {
	imp, err := r.Lookup(format)
	if err != nil {
		return nil, err
	}
	return imp.Import(content)
}

// Lookup returns the importer with the given format name.
func (r *Registry) Lookup(format string) (Importer, error) {
	format = strings.ToLower(format)
	for _, imp := range r.importers {
		if strings.ToLower(imp.GetFormatName()) == format {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// ForExtension returns the first importer claiming the file extension of
// path.
func (r *Registry) ForExtension(path string) (Importer, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	for _, imp := range r.importers {
		for _, e := range imp.GetFileExtensions() {
			if e == ext {
				return imp, true
			}
		}
	}
	return nil, false
}

// ImportFile reads and imports path. An explicit format wins; otherwise the
// extension is tried when the importer accepts the content, then detection.
func (r *Registry) ImportFile(path, format string) (*diagram.Diagram, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := string(data)

	var imp Importer
	switch {
	case format != "":
		if imp, err = r.Lookup(format); err != nil {
			return nil, "", err
		}
	default:
		if byExt, ok := r.ForExtension(path); ok && byExt.CanImport(content) {
			imp = byExt
		} else if imp, err = r.DetectFormat(content); err != nil {
			return nil, "", err
		}
	}

	d, err := imp.Import(content)
	if err != nil {
		return nil, imp.GetFormatName(), err
	}
	return d, imp.GetFormatName(), nil
}

// GetAvailableFormats returns a list of available import formats
func (r *Registry) GetAvailableFormats() []string {
	formats := make([]string, len(r.importers))
	for i, imp := range r.importers {
		formats[i] = imp.GetFormatName()
	}
	return formats
}

// place lays out freshly imported nodes, normalises them to the padded
// origin and routes every binary relation.
func place(engine layout.LayoutEngine, d *diagram.Diagram) (*diagram.Diagram, error) {
	out := connections.RouteAll(layout.Apply(engine, d))
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return out, nil
}

func activityID(name string) string {
	return diagram.PrefixActivity + "_" + name
}
