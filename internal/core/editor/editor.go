package editor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// Editor is one operator's editing session: the live viewport, the working
// set, the drawing state machine and the view filters.
//
// Remote snapshots may arrive on any goroutine, so every method locks.
// OnRender is called after the lock is released.
type Editor struct {
	mu      sync.Mutex
	logger  *slog.Logger
	capture *Capture
	store   *Store
	view    View

	pending    []domain.Zone
	hasPending bool

	onRender func([]Projection)
}

// Options configures an Editor.
type Options struct {
	Logger  *slog.Logger
	Capture []CaptureOption
	// OnRender receives a fresh frame whenever the window, the working set
	// or the view filters change.
	OnRender func([]Projection)
}

// New creates an editor over an initial working set.
func New(window domain.GeoWindow, size domain.SurfaceSize, zones []domain.Zone, opts Options) (*Editor, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := size.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		logger:   logger,
		capture:  NewCapture(size, opts.Capture...),
		store:    NewStore(zones),
		view:     View{Window: window, Size: size},
		onRender: opts.OnRender,
	}, nil
}

// Window returns the live window.
func (e *Editor) Window() domain.GeoWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Window
}

// Size returns the surface size.
func (e *Editor) Size() domain.SurfaceSize {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Size
}

// SetWindow is the viewport's pan/zoom notification. Every zone is
// re-projected under the new window. An active drawing keeps its capture
// window.
func (e *Editor) SetWindow(w domain.GeoWindow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.view.Window = w
	frame := e.frameLocked()
	e.mu.Unlock()

	e.emit(frame)
	return nil
}

// Drawing reports whether a drawing session is active.
func (e *Editor) Drawing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capture.State() == Drawing
}

// Session returns the active drawing session.
func (e *Editor) Session() (domain.DrawingSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capture.Session()
}

// StartDrawing begins a new zone under the live window.
func (e *Editor) StartDrawing(defaults domain.ZoneAttributes) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capture.Start(e.view.Window, defaults)
}

// StartRedraw begins replacing the polygon of an existing zone.
func (e *Editor) StartRedraw(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	z, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
	}
	return e.capture.StartRedraw(e.view.Window, z)
}

// AddVertex records a pointer click.
func (e *Editor) AddVertex(pt domain.SurfacePoint) (domain.GeoPoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capture.AddVertex(pt)
}

// CommitDrawing finishes the session and upserts the zone into the working
// set. A snapshot deferred during drawing is applied first.
func (e *Editor) CommitDrawing(attrs domain.ZoneAttributes) (domain.Zone, error) {
	e.mu.Lock()
	z, err := e.capture.Commit(attrs)
	if err != nil {
		e.mu.Unlock()
		return domain.Zone{}, err
	}
	e.flushPendingLocked()
	e.store.Upsert(z)
	frame := e.frameLocked()
	e.mu.Unlock()

	e.emit(frame)
	return z, nil
}

// CancelDrawing discards the session.
func (e *Editor) CancelDrawing() error {
	e.mu.Lock()
	if err := e.capture.Cancel(); err != nil {
		e.mu.Unlock()
		return err
	}
	flushed := e.flushPendingLocked()
	var frame []Projection
	if flushed {
		frame = e.frameLocked()
	}
	e.mu.Unlock()

	if flushed {
		e.emit(frame)
	}
	return nil
}

// ApplyRemote replaces the working set with a snapshot from the change
// feed. While drawing, the snapshot is held back until commit or cancel and
// ApplyRemote reports false.
func (e *Editor) ApplyRemote(zones []domain.Zone) bool {
	e.mu.Lock()
	if e.capture.State() == Drawing {
		e.pending = zones
		e.hasPending = true
		e.mu.Unlock()
		e.logger.Info("deferring zone snapshot while drawing", "zones", len(zones))
		return false
	}
	e.store.Replace(zones)
	frame := e.frameLocked()
	e.mu.Unlock()

	e.emit(frame)
	return true
}

// UpdateAttributes edits the descriptive fields of a zone in place.
func (e *Editor) UpdateAttributes(id string, attrs domain.ZoneAttributes) (domain.Zone, error) {
	e.mu.Lock()
	z, ok := e.store.Get(id)
	if !ok {
		e.mu.Unlock()
		return domain.Zone{}, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
	}
	merged := domain.AttributesOf(z).Merge(attrs)
	if err := merged.Require(); err != nil {
		e.mu.Unlock()
		return domain.Zone{}, err
	}
	merged.Apply(&z)
	e.store.Upsert(z)
	frame := e.frameLocked()
	e.mu.Unlock()

	e.emit(frame)
	return z, nil
}

// Remove drops a zone from the working set. It is deleted from the store
// on the next save.
func (e *Editor) Remove(id string) bool {
	e.mu.Lock()
	ok := e.store.Remove(id)
	if ok && e.view.Selected == id {
		e.view.Selected = ""
	}
	frame := e.frameLocked()
	e.mu.Unlock()

	if ok {
		e.emit(frame)
	}
	return ok
}

// WorkingSet returns a copy of the current zones, ready to be saved.
func (e *Editor) WorkingSet() []domain.Zone {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Zones()
}

// SetVisible replaces the visibility filter. Nil shows everything.
func (e *Editor) SetVisible(v VisibleSet) {
	e.mu.Lock()
	e.view.Visible = v
	frame := e.frameLocked()
	e.mu.Unlock()
	e.emit(frame)
}

// Select marks a zone as selected so it renders on top. Empty clears it.
func (e *Editor) Select(id string) {
	e.mu.Lock()
	e.view.Selected = id
	frame := e.frameLocked()
	e.mu.Unlock()
	e.emit(frame)
}

// Projections renders the working set under the live window.
func (e *Editor) Projections() ([]Projection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Render(e.store.zones, e.view)
}

// HitTest returns the topmost visible zone under a surface point.
func (e *Editor) HitTest(pt domain.SurfacePoint) (domain.Zone, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HitTest(pt, e.store.zones, e.view)
}

func (e *Editor) flushPendingLocked() bool {
	if !e.hasPending {
		return false
	}
	e.store.Replace(e.pending)
	e.pending = nil
	e.hasPending = false
	return true
}

func (e *Editor) frameLocked() []Projection {
	if e.onRender == nil {
		return nil
	}
	frame, err := Render(e.store.zones, e.view)
	if err != nil {
		e.logger.Error("render zones", "error", err)
		return nil
	}
	return frame
}

func (e *Editor) emit(frame []Projection) {
	if e.onRender != nil && frame != nil {
		e.onRender(frame)
	}
}
