package export_test

import (
	"bytes"
	"condec/diagram"
	"condec/export"
	"condec/geometry"
	"condec/importer"
	"image/png"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"json", export.FormatJSON, false},
		{"JSON", export.FormatJSON, false},
		{".svg", export.FormatSVG, false},
		{"png", export.FormatPNG, false},
		{"mermaid", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewExporter(t *testing.T) {
	extensions := map[export.Format]string{
		export.FormatJSON: ".json",
		export.FormatSVG:  ".svg",
		export.FormatPNG:  ".png",
	}

	for _, format := range export.GetAvailableFormats() {
		t.Run(string(format), func(t *testing.T) {
			exporter, err := export.NewExporter(format)
			if err != nil {
				t.Fatalf("NewExporter(%v) returned error: %v", format, err)
			}
			if got := exporter.GetFileExtension(); got != extensions[format] {
				t.Errorf("extension = %q, want %q", got, extensions[format])
			}
			if export.GetFormatDescriptions()[format] == "" {
				t.Errorf("format %v has no description", format)
			}
		})
	}

	if _, err := export.NewExporter("ascii"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func sample() *diagram.Diagram {
	hidden := false
	return &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", Name: "Register <user>", X: 150, Y: 150},
			{ID: "b", Name: "Pay", X: 350, Y: 150, Constraint: diagram.ConstraintExistenceN, ConstraintValue: 2},
			{ID: "c", Name: "Ship", X: 250, Y: 300},
		},
		Relations: []diagram.Relation{
			{
				ID: "r1", Type: diagram.NegChainResponse, SourceID: "a", TargetID: "b",
				Waypoints: []geometry.Point{{X: 200, Y: 150}, {X: 300, Y: 150}},
			},
			{
				ID: "r2", Type: diagram.Precedence, SourceID: "b", TargetID: "c",
				Waypoints: []geometry.Point{{X: 350, Y: 175}, {X: 350, Y: 300}, {X: 300, Y: 300}},
				ShowLabel: &hidden,
			},
			{ID: "n1", Type: diagram.Choice, Activities: []string{"a", "c"}, N: 1},
		},
	}
}

func TestJSONExport(t *testing.T) {
	d := sample()
	var buf bytes.Buffer
	if err := export.NewJSONExporter().Export(d, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "{\n  \"nodes\": [\n    {") {
		t.Errorf("expected two-space indentation, got:\n%s", out[:min(len(out), 60)])
	}

	back, err := importer.NewJSONImporter().Import(out)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if len(back.Nodes) != 3 || len(back.Relations) != 3 {
		t.Fatalf("re-import lost elements: %d nodes, %d relations", len(back.Nodes), len(back.Relations))
	}
	if back.Relations[1].LabelVisible() {
		t.Error("hidden label became visible after round trip")
	}
	if back.Nodes[1].ConstraintValue != 2 {
		t.Errorf("constraint value = %d, want 2", back.Nodes[1].ConstraintValue)
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name string
		d    *diagram.Diagram
		want geometry.Rect
	}{
		{"nil", nil, export.DefaultBounds},
		{"empty", diagram.New(), export.DefaultBounds},
		{
			"single node grows to minimum",
			diagram.Default(),
			geometry.Rect{X: 50, Y: 75, Width: 400, Height: 300},
		},
		{
			"waypoints and diamond extend the box",
			&diagram.Diagram{
				Nodes: []diagram.Node{
					{ID: "a", X: 100, Y: 100},
					{ID: "b", X: 600, Y: 100},
				},
				Relations: []diagram.Relation{
					{ID: "r", Type: diagram.Response, SourceID: "a", TargetID: "b",
						Waypoints: []geometry.Point{{X: 150, Y: 100}, {X: 150, Y: 500}, {X: 550, Y: 500}}},
					{ID: "n", Type: diagram.Choice, Activities: []string{"a", "b"}, N: 1,
						DiamondPos: &geometry.Point{X: 0, Y: 0}},
				},
			},
			geometry.Rect{X: -50, Y: -50, Width: 750, Height: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := export.Bounds(tt.d); got != tt.want {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSVGExport(t *testing.T) {
	var buf bytes.Buffer
	if err := export.NewSVGExporter().Export(sample(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`viewBox="50 75 400 300"`,
		`<marker id="arrow-ball"`,
		`data-id="r1"`,
		`marker-start="url(#ball-start)" marker-end="url(#arrow)"`,
		`<g class="negation"`,
		`>Neg. Chain Response</text>`,
		`marker-end="url(#arrow-ball)"`,
		`>1/2</text>`,
		`>&lt;user&gt;</text>`,
		`>2..*</text>`,
		`fill="#ffebee" stroke="#d32f2f"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}

	if strings.Contains(out, ">Precedence</text>") {
		t.Error("hidden label was drawn")
	}
	if n := strings.Count(out, `class="negation"`); n != 1 {
		t.Errorf("expected 1 negation mark, got %d", n)
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Error("SVG document not closed")
	}
}

func TestSVGExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := export.NewSVGExporter().Export(diagram.New(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(buf.String(), `width="800" height="600"`) {
		t.Error("empty diagram should use the default bounds")
	}
}

func TestPNGExport(t *testing.T) {
	tests := []struct {
		name          string
		scale         float64
		width, height int
	}{
		{"unit scale", 1, 400, 300},
		{"zero scale means one", 0, 400, 300},
		{"double scale", 2, 800, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := &export.PNGExporter{Scale: tt.scale}
			if err := e.Export(sample(), &buf); err != nil {
				t.Fatalf("export failed: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			size := img.Bounds().Size()
			if size.X != tt.width || size.Y != tt.height {
				t.Errorf("image size = %dx%d, want %dx%d", size.X, size.Y, tt.width, tt.height)
			}
		})
	}
}
