package export

import (
	"condec/diagram"
	"condec/geometry"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// PNGExporter rasterises diagrams. Scale multiplies the Bounds size; zero
// means 1.
type PNGExporter struct {
	Scale float64
}

// NewPNGExporter creates a PNG exporter at scale 2
func NewPNGExporter() *PNGExporter {
	return &PNGExporter{Scale: 2}
}

// GetFileExtension returns the file extension for PNG
func (e *PNGExporter) GetFileExtension() string {
	return ".png"
}

// GetFormatName returns the format name
func (e *PNGExporter) GetFormatName() string {
	return "PNG"
}

var (
	fontOnce sync.Once
	ttfFont  *truetype.Font
	fontErr  error
)

func fontFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		ttfFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}
	return truetype.NewFace(ttfFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Export writes d as PNG
func (e *PNGExporter) Export(d *diagram.Diagram, w io.Writer) error {
	scale := e.Scale
	if scale <= 0 {
		scale = 1
	}
	sc := buildScene(d)
	b := sc.bounds

	labelFace, err := fontFace(labelFontSize)
	if err != nil {
		return err
	}
	nameFace, err := fontFace(nameFontSize)
	if err != nil {
		return err
	}
	smallFace, err := fontFace(10)
	if err != nil {
		return err
	}

	dc := gg.NewContext(int(math.Ceil(b.Width*scale)), int(math.Ceil(b.Height*scale)))
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-b.X, -b.Y)

	dc.SetFontFace(labelFace)
	for _, r := range sc.relations {
		drawRelation(dc, r)
	}

	dc.SetFontFace(smallFace)
	for _, c := range sc.choices {
		drawChoice(dc, c)
	}

	for _, n := range sc.nodes {
		drawNode(dc, n, nameFace, smallFace)
	}

	return dc.EncodePNG(w)
}

func strokePolyline(dc *gg.Context, points []geometry.Point) {
	for i, p := range points {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.Stroke()
}

func drawRelation(dc *gg.Context, r relationShape) {
	dc.SetHexColor(strokeColor)
	dc.SetLineWidth(1.5)
	if r.style.Lines != LineAlt {
		strokePolyline(dc, r.path)
	}
	for _, p := range r.parallels {
		strokePolyline(dc, p)
	}

	last := len(r.path) - 1
	drawMarker(dc, r.style.Start, r.path[0], r.path[1])
	drawMarker(dc, r.style.End, r.path[last], r.path[last-1])

	if r.style.Negated {
		dc.Push()
		dc.Translate(r.mid.X, r.mid.Y)
		dc.Rotate(gg.Radians(r.angle))
		dc.SetLineWidth(1.2)
		for _, x := range []float64{-negationGap, negationGap} {
			dc.DrawLine(x, -negationHalf, x, negationHalf)
			dc.Stroke()
		}
		dc.Pop()
	}

	if r.label != "" {
		dc.DrawStringAnchored(r.label, r.labelAt.X, r.labelAt.Y, 0.5, 0.5)
	}
}

// drawMarker draws m with its tip at tip, pointing away from from.
func drawMarker(dc *gg.Context, m Marker, tip, from geometry.Point) {
	d := tip.Sub(from)
	l := math.Hypot(d.X, d.Y)
	if m == MarkerNone || l < 0.1 {
		return
	}
	dir := d.Scale(1 / l)
	perp := geometry.Point{X: -dir.Y, Y: dir.X}

	ball := func(back float64) {
		c := tip.Sub(dir.Scale(back + ballRadius))
		dc.DrawCircle(c.X, c.Y, ballRadius)
		dc.Fill()
	}
	arrow := func() {
		base := tip.Sub(dir.Scale(markerSize))
		a := base.Add(perp.Scale(markerSize / 2))
		b := base.Sub(perp.Scale(markerSize / 2))
		dc.MoveTo(tip.X, tip.Y)
		dc.LineTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
		dc.ClosePath()
		dc.Fill()
	}

	switch m {
	case MarkerBall:
		ball(0)
	case MarkerArrow:
		arrow()
	case MarkerArrowBall:
		arrow()
		ball(markerSize)
	}
}

func drawChoice(dc *gg.Context, c choiceShape) {
	dc.SetHexColor("#666666")
	dc.SetLineWidth(1.5)
	for _, s := range c.spokes {
		dc.DrawLine(s[0].X, s[0].Y, s[1].X, s[1].Y)
		dc.Stroke()
	}

	for i, p := range diamond(c.at) {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.ClosePath()
	dc.SetHexColor(diamondFill)
	dc.FillPreserve()
	dc.SetHexColor(diamondStroke)
	dc.Stroke()

	dc.DrawStringAnchored(c.label, c.at.X, c.at.Y, 0.5, 0.5)
}

func drawNode(dc *gg.Context, n nodeShape, nameFace, smallFace font.Face) {
	fill, stroke, width := nodeFill, nodeStroke, 1.5
	if n.violated {
		fill, stroke, width = violationFill, violationStroke, 2.5
	}
	b := n.bounds
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2

	dc.DrawRoundedRectangle(b.X, b.Y, b.Width, b.Height, 5)
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor(stroke)
	dc.SetLineWidth(width)
	dc.Stroke()

	dc.SetFontFace(smallFace)
	if n.violated {
		dc.SetHexColor(violationStroke)
		dc.DrawCircle(b.X+b.Width-10, b.Y+10, 8)
		dc.Fill()
		dc.SetHexColor("#ffffff")
		dc.DrawStringAnchored("!", b.X+b.Width-10, b.Y+10, 0.5, 0.5)
	}
	if n.notation != "" {
		dc.SetHexColor(nodeStroke)
		dc.DrawStringAnchored(n.notation, cx, b.Y-10, 0.5, 0.5)
	}

	if n.name != "" {
		dc.SetFontFace(nameFace)
		dc.SetHexColor(textColor)
		dc.DrawStringWrapped(n.name, cx, cy, 0.5, 0.5, b.Width-2*textPadding, float64(lineHeight)/nameFontSize, gg.AlignCenter)
	}
}
