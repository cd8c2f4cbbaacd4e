package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/ports"
)

// Store is an in-process zone document collection with a native change
// feed. It implements ports.ZoneRepository and ports.ZoneChangeFeed and is
// used for local runs, the importer's dry runs and tests.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]domain.ZoneDocument
	order   []string
	version uint64 // bumped by every write, under mu

	subMu  sync.Mutex
	subs   map[int]*subscription
	nextID int

	// deliverMu serializes deliveries. A subscriber never receives a
	// snapshot older than one it has already seen.
	deliverMu sync.Mutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		docs: make(map[string]domain.ZoneDocument),
		subs: make(map[int]*subscription),
	}
}

func (s *Store) Put(ctx context.Context, doc domain.ZoneDocument) error {
	s.mu.Lock()
	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = cloneDoc(doc)
	snap, version := s.commitLocked()
	s.mu.Unlock()

	s.notify(ctx, snap, version)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.docs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snap, version := s.commitLocked()
	s.mu.Unlock()

	s.notify(ctx, snap, version)
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.ZoneDocument, error) {
	snap, _ := s.snapshot()
	return snap, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// SubscribeZones delivers the current collection immediately, then again
// after every change, until Unsubscribe. Deliveries are serialized, so the
// handler must not write to the store.
func (s *Store) SubscribeZones(ctx context.Context, handler func(ctx context.Context, docs []domain.ZoneDocument)) (ports.Subscription, error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	snap, version := s.snapshot()
	s.subMu.Lock()
	s.nextID++
	sub := &subscription{id: s.nextID, store: s, handler: handler, seen: version}
	s.subs[sub.id] = sub
	s.subMu.Unlock()

	handler(ctx, snap)
	return sub, nil
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) snapshot() ([]domain.ZoneDocument, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.version
}

// commitLocked records a write and returns the collection as of that write.
func (s *Store) commitLocked() ([]domain.ZoneDocument, uint64) {
	s.version++
	return s.snapshotLocked(), s.version
}

func (s *Store) snapshotLocked() []domain.ZoneDocument {
	out := make([]domain.ZoneDocument, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneDoc(s.docs[id]))
	}
	return out
}

func (s *Store) notify(ctx context.Context, snap []domain.ZoneDocument, version uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.subMu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	for _, sub := range subs {
		if sub.seen >= version {
			continue
		}
		sub.seen = version
		sub.handler(ctx, snap)
	}
}

type subscription struct {
	id      int
	store   *Store
	handler func(ctx context.Context, docs []domain.ZoneDocument)
	seen    uint64 // guarded by store.deliverMu
}

func (s *subscription) Unsubscribe() error {
	s.store.subMu.Lock()
	delete(s.store.subs, s.id)
	s.store.subMu.Unlock()
	return nil
}

func cloneDoc(d domain.ZoneDocument) domain.ZoneDocument {
	d.Polygon = append(json.RawMessage(nil), d.Polygon...)
	return d
}
