// Package export writes diagrams as the native JSON document or as SVG and
// PNG images.
package export

import (
	"condec/diagram"
	"fmt"
	"io"
	"strings"
)

// Format represents an export format
type Format string

const (
	// FormatJSON writes the native document
	FormatJSON Format = "json"
	// FormatSVG draws the diagram as an SVG image
	FormatSVG Format = "svg"
	// FormatPNG draws the diagram as a PNG image
	FormatPNG Format = "png"
)

// Exporter interface for different export formats
type Exporter interface {
	// Export writes d to w in the target format
	Export(d *diagram.Diagram, w io.Writer) error
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatSVG:
		return NewSVGExporter(), nil
	case FormatPNG:
		return NewPNGExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatJSON,
		FormatSVG,
		FormatPNG,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatJSON: "ConDec document (condec native format)",
		FormatSVG:  "SVG image",
		FormatPNG:  "PNG image",
	}
}
