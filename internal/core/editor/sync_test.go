package editor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/core/ports"
)

// --- Mock ZoneChangeFeed ---

type mockSubscription struct {
	unsubscribed int
	err          error
}

func (m *mockSubscription) Unsubscribe() error {
	m.unsubscribed++
	return m.err
}

type mockFeed struct {
	handler func(ctx context.Context, docs []domain.ZoneDocument)
	sub     *mockSubscription
	err     error
}

func (m *mockFeed) SubscribeZones(ctx context.Context, handler func(ctx context.Context, docs []domain.ZoneDocument)) (ports.Subscription, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.handler = handler
	m.sub = &mockSubscription{}
	return m.sub, nil
}

func (m *mockFeed) push(docs ...domain.ZoneDocument) {
	m.handler(context.Background(), docs)
}

// --- Tests ---

func TestSync_NormalisesEncodingsAndSkipsMalformed(t *testing.T) {
	ed, err := editor.New(santiago, santiagoSize, []domain.Zone{tri("old", 1)}, editor.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feed := &mockFeed{}
	var received, malformed int
	s := editor.NewSync(feed, ed, nil, func(r, m int) { received += r; malformed += m })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feed.push(
		domain.ZoneDocument{ID: "pairs", Name: "Pairs", Polygon: json.RawMessage(`[[-32.5,-70.5],[-32.5,-70.4],[-32.4,-70.4]]`)},
		domain.ZoneDocument{ID: "objects", Name: "Objects", Polygon: json.RawMessage(`[{"lat":-32.5,"lng":-70.5},{"lat":-32.5,"lng":-70.4},{"lat":-32.4,"lng":-70.4}]`)},
		domain.ZoneDocument{ID: "broken", Polygon: json.RawMessage(`[{"lat":-32.5}]`)},
	)

	zones := ed.WorkingSet()
	equalIDs(t, "snapshot", zones, "pairs", "objects")
	for i := range zones[0].Polygon {
		if zones[0].Polygon[i] != zones[1].Polygon[i] {
			t.Errorf("vertex %d: encodings disagree: %+v vs %+v", i, zones[0].Polygon[i], zones[1].Polygon[i])
		}
	}
	if received != 3 || malformed != 1 {
		t.Errorf("expected observer 3/1, got %d/%d", received, malformed)
	}
}

func TestSync_StartStopLifecycle(t *testing.T) {
	ed, _ := editor.New(santiago, santiagoSize, nil, editor.Options{})
	feed := &mockFeed{}
	s := editor.NewSync(feed, ed, nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double start, got %v", err)
	}
	if !s.Active() {
		t.Fatal("expected active subscription")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
	if feed.sub.unsubscribed != 1 {
		t.Errorf("expected exactly one unsubscribe, got %d", feed.sub.unsubscribed)
	}
	if s.Active() {
		t.Error("expected inactive after stop")
	}
}

func TestSync_SubscribeError(t *testing.T) {
	ed, _ := editor.New(santiago, santiagoSize, nil, editor.Options{})
	boom := errors.New("nats down")
	s := editor.NewSync(&mockFeed{err: boom}, ed, nil, nil)

	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped subscribe error, got %v", err)
	}
	if s.Active() {
		t.Error("failed start must not leave a subscription")
	}
}

func TestSync_SnapshotDuringDrawingIsDeferred(t *testing.T) {
	ed, _ := editor.New(santiago, santiagoSize, []domain.Zone{tri("A", 1)}, editor.Options{})
	feed := &mockFeed{}
	s := editor.NewSync(feed, ed, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if err := ed.StartDrawing(domain.ZoneAttributes{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feed.push(domain.ZoneDocument{ID: "B", Name: "B", Polygon: json.RawMessage(`[[0,0],[1,0],[0,1]]`)})
	equalIDs(t, "while drawing", ed.WorkingSet(), "A")

	if err := ed.CancelDrawing(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	equalIDs(t, "after cancel", ed.WorkingSet(), "B")
}
