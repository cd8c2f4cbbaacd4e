package overlay

import (
	"fmt"
	"html"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}()

// RenderSVG draws the frame as a minified SVG document. Polygons are
// emitted in frame order, so the selected zone is last and on top.
func RenderSVG(frame []editor.Projection, size domain.SurfaceSize) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		size.Width, size.Height, size.Width, size.Height)

	for _, p := range frame {
		if len(p.Surface) == 0 {
			continue
		}
		c := parseColor(p.Zone.Color)
		stroke := strokeWidth
		if p.Selected {
			stroke = selectedStroke
		}
		fmt.Fprintf(&b, `<polygon data-zone-id="%s" points="%s" fill="#%02x%02x%02x" fill-opacity="%.2f" stroke="#%02x%02x%02x" stroke-width="%g">`,
			html.EscapeString(p.Zone.ID), points(p.Surface),
			c.R, c.G, c.B, float64(fillAlpha)/255,
			c.R, c.G, c.B, stroke)
		fmt.Fprintf(&b, `<title>%s</title></polygon>`, html.EscapeString(p.Zone.Name))
		if p.Label != nil && p.Zone.Name != "" {
			fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" text-anchor="middle" font-size="%g" fill="#%02x%02x%02x">%s</text>`,
				p.Label.X, p.Label.Y, labelSize, c.R, c.G, c.B, html.EscapeString(p.Zone.Name))
		}
	}
	b.WriteString(`</svg>`)

	out, err := minifier.String("image/svg+xml", b.String())
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}
	return []byte(out), nil
}

func points(pts []domain.SurfacePoint) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}
