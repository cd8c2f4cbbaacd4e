package editor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

// CaptureState is the state of a polygon drawing session.
type CaptureState int

const (
	Idle CaptureState = iota
	Drawing
)

func (s CaptureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	default:
		return fmt.Sprintf("CaptureState(%d)", int(s))
	}
}

// Capture accumulates polygon vertices from pointer input and commits them
// as a Zone. Vertices are converted to geographic space with the window
// snapshotted at Start (the capture window), never the live one.
//
// Capture does not talk to any store; the caller hands committed zones on.
type Capture struct {
	size   domain.SurfaceSize
	state  CaptureState
	tr     geospatial.Transform
	sess   domain.DrawingSession
	target *domain.Zone

	newID func() string
	now   func() time.Time
}

// CaptureOption customises a Capture.
type CaptureOption func(*Capture)

// WithIDGenerator overrides the zone id generator (uuid by default).
func WithIDGenerator(fn func() string) CaptureOption {
	return func(c *Capture) { c.newID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) CaptureOption {
	return func(c *Capture) { c.now = fn }
}

// NewCapture creates an idle capture for a surface of the given size.
func NewCapture(size domain.SurfaceSize, opts ...CaptureOption) *Capture {
	c := &Capture{
		size:  size,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Capture) State() CaptureState { return c.state }

// Session returns a copy of the active drawing session.
func (c *Capture) Session() (domain.DrawingSession, bool) {
	if c.state != Drawing {
		return domain.DrawingSession{}, false
	}
	s := c.sess
	s.Vertices = append([]domain.GeoPoint(nil), c.sess.Vertices...)
	return s, true
}

// Start begins a new zone. The window in effect now becomes the capture window.
func (c *Capture) Start(window domain.GeoWindow, defaults domain.ZoneAttributes) error {
	return c.begin(window, defaults, nil)
}

// StartRedraw begins redrawing the polygon of an existing zone. The commit
// keeps the zone's id and uses its current attributes as defaults.
func (c *Capture) StartRedraw(window domain.GeoWindow, zone domain.Zone) error {
	z := zone.Clone()
	return c.begin(window, domain.AttributesOf(zone), &z)
}

func (c *Capture) begin(window domain.GeoWindow, defaults domain.ZoneAttributes, target *domain.Zone) error {
	if c.state != Idle {
		return fmt.Errorf("%w: start while %s", domain.ErrInvalidState, c.state)
	}
	tr, err := geospatial.NewTransform(window, c.size)
	if err != nil {
		return err
	}

	c.tr = tr
	c.target = target
	c.sess = domain.DrawingSession{
		ID:                uuid.NewString(),
		Window:            window,
		Size:              c.size,
		PendingAttributes: defaults,
		StartedAt:         c.now(),
	}
	if target != nil {
		c.sess.TargetID = target.ID
	}
	c.state = Drawing
	return nil
}

// AddVertex converts a surface point through the capture window and appends
// it. Points off the surface are rejected with ErrOutOfWindow.
func (c *Capture) AddVertex(pt domain.SurfacePoint) (domain.GeoPoint, error) {
	if c.state != Drawing {
		return domain.GeoPoint{}, fmt.Errorf("%w: add vertex while %s", domain.ErrInvalidState, c.state)
	}
	if !c.size.Contains(pt) {
		return domain.GeoPoint{}, fmt.Errorf("%w: (%g, %g) not on %dx%d surface",
			domain.ErrOutOfWindow, pt.X, pt.Y, c.size.Width, c.size.Height)
	}
	p := c.tr.ToGeo(pt.X, pt.Y)
	c.sess.Vertices = append(c.sess.Vertices, p)
	return p, nil
}

// Commit validates the vertices and attributes and returns the new zone.
// On failure the session stays in Drawing so more points can be added.
func (c *Capture) Commit(attrs domain.ZoneAttributes) (domain.Zone, error) {
	if c.state != Drawing {
		return domain.Zone{}, fmt.Errorf("%w: commit while %s", domain.ErrInvalidState, c.state)
	}
	if err := domain.ValidatePolygon(c.sess.Vertices); err != nil {
		return domain.Zone{}, err
	}
	merged := c.sess.PendingAttributes.Merge(attrs)
	if err := merged.Require(); err != nil {
		return domain.Zone{}, err
	}

	now := c.now()
	z := domain.Zone{ID: c.newID(), CreatedAt: now}
	if c.target != nil {
		z.ID = c.target.ID
		z.CreatedAt = c.target.CreatedAt
	}
	merged.Apply(&z)
	z.Polygon = append([]domain.GeoPoint(nil), c.sess.Vertices...)
	z.UpdatedAt = now

	c.reset()
	return z, nil
}

// Cancel discards the session.
func (c *Capture) Cancel() error {
	if c.state != Drawing {
		return fmt.Errorf("%w: cancel while %s", domain.ErrInvalidState, c.state)
	}
	c.reset()
	return nil
}

func (c *Capture) reset() {
	c.state = Idle
	c.sess = domain.DrawingSession{}
	c.target = nil
	c.tr = geospatial.Transform{}
}
