package export

import (
	"bufio"
	"condec/diagram"
	"condec/geometry"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SVGExporter draws diagrams as standalone SVG documents sized to Bounds.
type SVGExporter struct{}

// NewSVGExporter creates a new SVG exporter
func NewSVGExporter() *SVGExporter {
	return &SVGExporter{}
}

// GetFileExtension returns the file extension for SVG
func (e *SVGExporter) GetFileExtension() string {
	return ".svg"
}

// GetFormatName returns the format name
func (e *SVGExporter) GetFormatName() string {
	return "SVG"
}

const svgDefs = `<defs>
<marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="` + strokeColor + `"/></marker>
<marker id="ball-start" viewBox="0 0 10 10" refX="0" refY="5" markerWidth="6" markerHeight="6" orient="auto"><circle cx="5" cy="5" r="5" fill="` + strokeColor + `"/></marker>
<marker id="ball-end" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto"><circle cx="5" cy="5" r="5" fill="` + strokeColor + `"/></marker>
<marker id="arrow-ball" viewBox="0 0 20 10" refX="20" refY="5" markerWidth="12" markerHeight="6" orient="auto"><path d="M 0 0 L 10 5 L 0 10 z" fill="` + strokeColor + `"/><circle cx="15" cy="5" r="5" fill="` + strokeColor + `"/></marker>
</defs>
`

func markerRef(m Marker, start bool) string {
	switch m {
	case MarkerBall:
		if start {
			return "url(#ball-start)"
		}
		return "url(#ball-end)"
	case MarkerArrow:
		return "url(#arrow)"
	case MarkerArrowBall:
		return "url(#arrow-ball)"
	}
	return ""
}

// Export writes d as SVG
func (e *SVGExporter) Export(d *diagram.Diagram, w io.Writer) error {
	sc := buildScene(d)
	bw := bufio.NewWriter(w)
	b := sc.bounds

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(b.Width), num(b.Height), num(b.X), num(b.Y), num(b.Width), num(b.Height))
	bw.WriteString(svgDefs)
	fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" fill="#ffffff"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height))

	bw.WriteString(`<g class="relations">` + "\n")
	for _, r := range sc.relations {
		writeRelation(bw, r)
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="choices">` + "\n")
	for _, c := range sc.choices {
		writeChoice(bw, c)
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="nodes">` + "\n")
	for _, n := range sc.nodes {
		writeNode(bw, n)
	}
	bw.WriteString("</g>\n</svg>\n")

	return bw.Flush()
}

func writeRelation(w *bufio.Writer, r relationShape) {
	fmt.Fprintf(w, `<g class="condec-relation" data-id="%s">`+"\n", text(r.id))

	centre := "none"
	if r.style.Lines != LineAlt {
		centre = strokeColor
	}
	fmt.Fprintf(w, `<path d="%s" fill="none" stroke="%s" stroke-width="1.5"`, pathData(r.path), centre)
	if m := markerRef(r.style.Start, true); m != "" {
		fmt.Fprintf(w, ` marker-start="%s"`, m)
	}
	if m := markerRef(r.style.End, false); m != "" {
		fmt.Fprintf(w, ` marker-end="%s"`, m)
	}
	w.WriteString("/>\n")

	for _, s := range r.parallels {
		fmt.Fprintf(w, `<path d="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n", pathData(s), strokeColor)
	}

	if r.style.Negated {
		fmt.Fprintf(w, `<g class="negation" transform="translate(%s,%s) rotate(%s)">`, num(r.mid.X), num(r.mid.Y), num(r.angle))
		for _, x := range []float64{-negationGap, negationGap} {
			fmt.Fprintf(w, `<line x1="%s" y1="%d" x2="%s" y2="%d" stroke="%s" stroke-width="1.2"/>`,
				num(x), -negationHalf, num(x), negationHalf, strokeColor)
		}
		w.WriteString("</g>\n")
	}

	if r.label != "" {
		fmt.Fprintf(w, `<text x="%s" y="%s" font-size="%dpx" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			num(r.labelAt.X), num(r.labelAt.Y), labelFontSize, strokeColor, text(r.label))
	}
	w.WriteString("</g>\n")
}

func writeChoice(w *bufio.Writer, c choiceShape) {
	fmt.Fprintf(w, `<g class="nary-relation" data-id="%s">`+"\n", text(c.id))
	for _, s := range c.spokes {
		fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#666666" stroke-width="1.5"/>`+"\n",
			num(s[0].X), num(s[0].Y), num(s[1].X), num(s[1].Y))
	}
	fmt.Fprintf(w, `<polygon points="%s" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
		polygon(diamond(c.at)), diamondFill, diamondStroke)
	fmt.Fprintf(w, `<text x="%s" y="%s" font-size="10px" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
		num(c.at.X), num(c.at.Y+2), diamondStroke, text(c.label))
	w.WriteString("</g>\n")
}

func writeNode(w *bufio.Writer, n nodeShape) {
	fill, stroke, width := nodeFill, nodeStroke, "1.5"
	if n.violated {
		fill, stroke, width = violationFill, violationStroke, "2.5"
	}
	b := n.bounds
	fmt.Fprintf(w, `<g class="condec-node" data-id="%s">`+"\n", text(n.id))
	fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="5" ry="5" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height), fill, stroke, width)

	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	if n.violated {
		fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="8" fill="%s" stroke="#ffffff"/>`, num(b.X+b.Width-10), num(b.Y+10), violationStroke)
		fmt.Fprintf(w, `<text x="%s" y="%s" font-size="10px" text-anchor="middle" dominant-baseline="central" fill="#ffffff">!</text>`+"\n",
			num(b.X+b.Width-10), num(b.Y+10))
	}
	if n.notation != "" {
		fmt.Fprintf(w, `<text x="%s" y="%s" font-size="10px" text-anchor="middle">%s</text>`+"\n",
			num(cx), num(b.Y-10), text(n.notation))
	}

	lines := wrapText(n.name, b.Width-2*textPadding, nameFontSize)
	startY := cy - float64(len(lines))*lineHeight/2 + lineHeight/2
	for i, line := range lines {
		fmt.Fprintf(w, `<text x="%s" y="%s" font-size="%dpx" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			num(cx), num(startY+float64(i)*lineHeight), nameFontSize, textColor, text(line))
	}
	w.WriteString("</g>\n")
}

func diamond(at geometry.Point) []geometry.Point {
	return []geometry.Point{
		{X: at.X, Y: at.Y - diamondHalf},
		{X: at.X + diamondHalf, Y: at.Y},
		{X: at.X, Y: at.Y + diamondHalf},
		{X: at.X - diamondHalf, Y: at.Y},
	}
}

func pathData(points []geometry.Point) string {
	var sb strings.Builder
	for i, p := range points {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(num(p.X))
		sb.WriteByte(' ')
		sb.WriteString(num(p.Y))
	}
	return sb.String()
}

func polygon(points []geometry.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func text(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
