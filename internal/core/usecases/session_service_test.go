package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
)

var (
	santiago = domain.GeoWindow{North: -32.0, South: -33.0, East: -70.0, West: -71.0}
	surface  = domain.SurfaceSize{Width: 800, Height: 600}
)

func feePtr(v float64) *float64 { return &v }

func TestSessionService_DrawAndCommit(t *testing.T) {
	repo := newMockZoneRepo()
	svc := usecases.NewSessionService(usecases.NewZoneService(repo, nil, nil, 0))
	ctx := context.Background()

	sess, err := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{ETALabel: "30 min"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := svc.AddVertex(sess.ID, domain.SurfacePoint{X: 400, Y: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != -32.5 || p.Lng != -70.5 {
		t.Errorf("expected (-32.5, -70.5), got %+v", p)
	}

	// Two vertices are not a polygon; the session must survive the failure.
	if _, err := svc.AddVertex(sess.ID, domain.SurfacePoint{X: 200, Y: 100}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Commit(ctx, sess.ID, domain.ZoneAttributes{Name: "Centro", Fee: feePtr(2000)}); !errors.Is(err, domain.ErrInvalidPolygon) {
		t.Fatalf("expected ErrInvalidPolygon, got %v", err)
	}
	if _, err := svc.AddVertex(sess.ID, domain.SurfacePoint{X: 600, Y: 150}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	z, err := svc.Commit(ctx, sess.ID, domain.ZoneAttributes{Name: "Centro", Fee: feePtr(2000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.ETALabel != "30 min" || len(z.Polygon) != 3 {
		t.Errorf("unexpected zone %+v", z)
	}
	equalStrings(t, "stored", repo.ids(), z.ID)

	if _, err := svc.Get(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session to be closed, got %v", err)
	}
}

func TestSessionService_Redraw(t *testing.T) {
	existing := box("centro", -32.8, -70.8, -32.2, -70.2)
	repo := newMockZoneRepo(existing)
	svc := usecases.NewSessionService(usecases.NewZoneService(repo, nil, nil, 0))
	ctx := context.Background()

	if _, err := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{}, "missing"); !errors.Is(err, domain.ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}

	sess, err := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{}, "centro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.TargetID != "centro" {
		t.Errorf("expected target centro, got %q", sess.TargetID)
	}
	for _, pt := range []domain.SurfacePoint{{X: 100, Y: 100}, {X: 700, Y: 100}, {X: 400, Y: 500}} {
		if _, err := svc.AddVertex(sess.ID, pt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	z, err := svc.Commit(ctx, sess.ID, domain.ZoneAttributes{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.ID != "centro" || z.Fee != existing.Fee {
		t.Errorf("expected redraw of centro, got %+v", z)
	}
	equalStrings(t, "stored", repo.ids(), "centro")
}

func TestSessionService_CancelAndExpire(t *testing.T) {
	svc := usecases.NewSessionService(usecases.NewZoneService(newMockZoneRepo(), nil, nil, 0))
	ctx := context.Background()

	a, _ := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{}, "")
	b, _ := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{}, "")
	if svc.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", svc.Len())
	}

	if err := svc.Cancel(a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Cancel(a.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if n := svc.Expire(time.Now().Add(time.Minute)); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := svc.AddVertex(b.ID, domain.SurfacePoint{X: 1, Y: 1}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_StartValidation(t *testing.T) {
	svc := usecases.NewSessionService(usecases.NewZoneService(newMockZoneRepo(), nil, nil, 0))
	ctx := context.Background()

	if _, err := svc.Start(ctx, domain.GeoWindow{North: 0, South: 1, East: 1, West: 0}, surface, domain.ZoneAttributes{}, ""); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := svc.Start(ctx, santiago, domain.SurfaceSize{}, domain.ZoneAttributes{}, ""); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for zero surface, got %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("failed starts must not leave sessions, got %d", svc.Len())
	}
}

func TestSessionService_CommitRetriesFailedWrite(t *testing.T) {
	repo := newMockZoneRepo()
	down := true
	repo.putFn = func(ctx context.Context, doc domain.ZoneDocument) error {
		if down {
			return errors.New("network down")
		}
		return nil
	}
	svc := usecases.NewSessionService(usecases.NewZoneService(repo, nil, nil, 0))
	ctx := context.Background()

	sess, err := svc.Start(ctx, santiago, surface, domain.ZoneAttributes{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, pt := range []domain.SurfacePoint{{X: 100, Y: 100}, {X: 700, Y: 100}, {X: 400, Y: 500}} {
		if _, err := svc.AddVertex(sess.ID, pt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	attrs := domain.ZoneAttributes{Name: "Centro", Fee: feePtr(2000)}
	if _, err := svc.Commit(ctx, sess.ID, attrs); !errors.Is(err, domain.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}

	pending, err := svc.Get(sess.ID)
	if err != nil {
		t.Fatalf("session must survive a failed write: %v", err)
	}
	if pending.Committed == nil || pending.Committed.Name != "Centro" || len(pending.Committed.Polygon) != 3 {
		t.Fatalf("expected the closed zone on the session, got %+v", pending.Committed)
	}
	if len(pending.Vertices) != 3 {
		t.Errorf("expected 3 vertices kept, got %d", len(pending.Vertices))
	}
	if len(repo.ids()) != 0 {
		t.Fatalf("nothing should be stored yet, got %v", repo.ids())
	}

	down = false
	z, err := svc.Commit(ctx, sess.ID, domain.ZoneAttributes{})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if z.ID != pending.Committed.ID || z.Name != "Centro" {
		t.Errorf("retry must store the closed zone, got %+v", z)
	}
	equalStrings(t, "stored", repo.ids(), z.ID)
	if _, err := svc.Get(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session to be closed, got %v", err)
	}
}
