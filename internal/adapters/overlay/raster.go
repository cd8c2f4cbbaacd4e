package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"golang.org/x/image/vector"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
)

// Rasterize draws the frame onto a transparent image of the surface size.
func Rasterize(frame []editor.Projection, size domain.SurfaceSize) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	z := vector.NewRasterizer(size.Width, size.Height)

	for _, p := range frame {
		if len(p.Surface) < 3 {
			continue
		}
		c := parseColor(p.Zone.Color)

		z.Reset(size.Width, size.Height)
		z.DrawOp = draw.Over
		z.MoveTo(float32(p.Surface[0].X), float32(p.Surface[0].Y))
		for _, pt := range p.Surface[1:] {
			z.LineTo(float32(pt.X), float32(pt.Y))
		}
		z.ClosePath()
		fill := c
		fill.A = fillAlpha
		z.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{})

		width := strokeWidth
		if p.Selected {
			width = selectedStroke
		}
		strokeRing(z, p.Surface, width, size)
		z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	}
	return dst
}

// strokeRing adds one quad per edge, width px wide and centred on the edge.
func strokeRing(z *vector.Rasterizer, pts []domain.SurfacePoint, width float64, size domain.SurfaceSize) {
	z.Reset(size.Width, size.Height)
	z.DrawOp = draw.Over
	hw := width / 2
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		z.LineTo(float32(b.X+nx), float32(b.Y+ny))
		z.LineTo(float32(b.X-nx), float32(b.Y-ny))
		z.LineTo(float32(a.X-nx), float32(a.Y-ny))
		z.ClosePath()
	}
}

// Encode renders the frame in the requested format.
func Encode(format Format, frame []editor.Projection, size domain.SurfaceSize) ([]byte, error) {
	if format == SVG {
		return RenderSVG(frame, size)
	}

	img := Rasterize(frame, size)
	var buf bytes.Buffer
	switch format {
	case PNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case WebP:
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported overlay format %q", format)
	}
	return buf.Bytes(), nil
}
