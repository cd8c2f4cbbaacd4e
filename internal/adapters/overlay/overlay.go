// Package overlay draws projected zones into the pixel-space layer the map
// viewport places over its tiles.
package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// Format is an overlay encoding.
type Format string

const (
	SVG  Format = "svg"
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts svg, png or webp, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG, WebP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported overlay format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PNG:
		return "image/png"
	case WebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

const (
	fillAlpha      = 0x59
	strokeWidth    = 2.0
	selectedStroke = 4.0
	labelSize      = 12.0
)

// parseColor reads #rgb or #rrggbb; anything else falls back to the
// default zone color.
func parseColor(s string) color.NRGBA {
	c, ok := hexColor(s)
	if !ok {
		c, _ = hexColor(domain.DefaultZoneColor)
	}
	return c
}

func hexColor(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
