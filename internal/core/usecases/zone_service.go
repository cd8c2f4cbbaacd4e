package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
	"github.com/samirrijal/pizzazones/internal/pkg/metrics"
	"github.com/samirrijal/pizzazones/internal/pkg/telemetry"
)

const (
	// Locate results are cached per geohash cell under the current
	// generation; any write rotates the generation.
	generationKey   = "zones:generation"
	generationTTL   = 24 * 60 * 60
	locatePrecision = 9
)

// Write operations reported in SaveResult and metrics.
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpValidate = "validate"
)

// ZoneFailure is one zone a batch save could not write.
type ZoneFailure struct {
	ZoneID string `json:"zone_id"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
}

func (f ZoneFailure) Error() string { return fmt.Sprintf("%s zone %q: %v", f.Op, f.ZoneID, f.Err) }

func (f ZoneFailure) Unwrap() error { return f.Err }

// MarshalJSON includes the error text.
func (f ZoneFailure) MarshalJSON() ([]byte, error) {
	type alias ZoneFailure
	return json.Marshal(struct {
		alias
		Error string `json:"error"`
	}{alias(f), f.Err.Error()})
}

// SaveResult reports what a batch save did, zone by zone.
type SaveResult struct {
	Created   []string      `json:"created"`
	Updated   []string      `json:"updated"`
	Deleted   []string      `json:"deleted"`
	Unchanged []string      `json:"unchanged"`
	Failed    []ZoneFailure `json:"failed"`
}

// OK reports whether every operation succeeded.
func (r *SaveResult) OK() bool { return len(r.Failed) == 0 }

// Record adds the outcome of one write.
func (r *SaveResult) Record(op, id string, err error) {
	if err != nil {
		r.Failed = append(r.Failed, ZoneFailure{ZoneID: id, Op: op, Err: err})
		return
	}
	switch op {
	case OpCreate:
		r.Created = append(r.Created, id)
	case OpUpdate:
		r.Updated = append(r.Updated, id)
	case OpDelete:
		r.Deleted = append(r.Deleted, id)
	}
}

// NewSaveResult seeds a result with the parts of a diff that need no I/O.
func NewSaveResult(diff editor.Diff) *SaveResult {
	r := &SaveResult{}
	for _, z := range diff.Unchanged {
		r.Unchanged = append(r.Unchanged, z.ID)
	}
	for _, inv := range diff.Invalid {
		r.Failed = append(r.Failed, ZoneFailure{ZoneID: inv.ZoneID, Op: OpValidate, Err: inv.Err})
	}
	return r
}

// ZoneService persists and queries delivery zones.
type ZoneService struct {
	repo      ports.ZoneRepository
	publisher ports.ZoneEventPublisher
	cache     ports.CacheService
	locateTTL int
	now       func() time.Time

	// publishMu orders snapshot reads with their publication so an older
	// collection never lands after a newer one.
	publishMu sync.Mutex
}

// NewZoneService creates a new ZoneService. publisher and cache may be nil.
func NewZoneService(repo ports.ZoneRepository, publisher ports.ZoneEventPublisher, cache ports.CacheService, locateTTLSeconds int) *ZoneService {
	if locateTTLSeconds <= 0 {
		locateTTLSeconds = 300
	}
	return &ZoneService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		locateTTL: locateTTLSeconds,
		now:       time.Now,
	}
}

// List returns every decodable zone in store order. Malformed documents
// are logged and skipped.
func (s *ZoneService) List(ctx context.Context) ([]domain.Zone, error) {
	zones, _, err := s.load(ctx)
	return zones, err
}

// load decodes the stored collection and also returns the ids of documents
// that could not be decoded.
func (s *ZoneService) load(ctx context.Context) ([]domain.Zone, []string, error) {
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list zones: %v", domain.ErrPersistenceFailure, err)
	}
	zones := make([]domain.Zone, 0, len(docs))
	var malformed []string
	for _, d := range docs {
		z, err := domain.DecodeZone(d)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed zone document", "zone_id", d.ID, "error", err)
			malformed = append(malformed, d.ID)
			continue
		}
		zones = append(zones, z)
	}
	metrics.MalformedDocuments.Add(float64(len(malformed)))
	return zones, malformed, nil
}

// Get returns one zone by id.
func (s *ZoneService) Get(ctx context.Context, id string) (*domain.Zone, error) {
	zones, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range zones {
		if zones[i].ID == id {
			return &zones[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
}

// Plan reconciles working against the stored collection without writing.
// Stored documents that cannot be decoded are still part of the collection:
// unless working carries their id, they are planned for deletion.
func (s *ZoneService) Plan(ctx context.Context, working []domain.Zone) (editor.Diff, error) {
	persisted, malformed, err := s.load(ctx)
	if err != nil {
		return editor.Diff{}, err
	}
	diff := editor.Reconcile(working, persisted)

	kept := make(map[string]bool, len(working))
	for _, z := range working {
		kept[z.ID] = true
	}
	for _, id := range malformed {
		if id != "" && !kept[id] {
			diff.ToDelete = append(diff.ToDelete, domain.Zone{ID: id})
		}
	}
	return diff, nil
}

// Save makes the stored collection equal to working: a full replace, so any
// stored zone missing from working is deleted. Each write is independent;
// failures are collected per zone and never abort the batch.
//
// Writes are not atomic as a group. A change-feed subscriber may observe a
// state where some deletes or upserts have landed and others have not.
func (s *ZoneService) Save(ctx context.Context, working []domain.Zone) (*SaveResult, error) {
	ctx, span := telemetry.Tracer(telemetry.TracerName).Start(ctx, "ZoneService.Save")
	defer span.End()
	start := time.Now()

	diff, err := s.Plan(ctx, working)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan failed")
		return nil, err
	}

	result := s.Apply(ctx, diff)

	metrics.ZoneSaveDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int(telemetry.AttrZoneCount, len(working)),
		attribute.Int(telemetry.AttrZoneFailed, len(result.Failed)),
	)
	if !result.OK() {
		span.SetStatus(codes.Error, "partial failure")
		slog.WarnContext(ctx, "zone save partially failed",
			"failed", len(result.Failed),
			"created", len(result.Created),
			"updated", len(result.Updated),
			"deleted", len(result.Deleted),
		)
	}
	return result, nil
}

// Apply executes a diff: deletes first, then creates and updates.
func (s *ZoneService) Apply(ctx context.Context, diff editor.Diff) *SaveResult {
	result := NewSaveResult(diff)
	if diff.Empty() {
		return result
	}

	for _, z := range diff.ToDelete {
		result.Record(OpDelete, z.ID, s.DeleteZone(ctx, z.ID))
	}
	for _, z := range diff.ToCreate {
		_, err := s.PutZone(ctx, z, OpCreate)
		result.Record(OpCreate, z.ID, err)
	}
	for _, z := range diff.ToUpdate {
		_, err := s.PutZone(ctx, z, OpUpdate)
		result.Record(OpUpdate, z.ID, err)
	}

	s.Changed(ctx)
	return result
}

// Upsert validates and writes a single zone, then broadcasts.
func (s *ZoneService) Upsert(ctx context.Context, z domain.Zone) (*domain.Zone, error) {
	if err := z.Validate(); err != nil {
		return nil, err
	}
	op := OpCreate
	prev, err := s.Get(ctx, z.ID)
	switch {
	case err == nil:
		op = OpUpdate
		z.CreatedAt = prev.CreatedAt
	case !errors.Is(err, domain.ErrZoneNotFound):
		return nil, err
	}
	stored, err := s.PutZone(ctx, z, op)
	if err != nil {
		return nil, err
	}
	s.Changed(ctx)
	return &stored, nil
}

// Delete removes a single zone, then broadcasts.
func (s *ZoneService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.DeleteZone(ctx, id); err != nil {
		return err
	}
	s.Changed(ctx)
	return nil
}

// PutZone stamps and writes one zone document, returning what was stored.
func (s *ZoneService) PutZone(ctx context.Context, z domain.Zone, op string) (domain.Zone, error) {
	now := s.now().UTC()
	if z.CreatedAt.IsZero() {
		z.CreatedAt = now
	}
	z.UpdatedAt = now

	doc, err := domain.EncodeZone(z)
	if err != nil {
		return domain.Zone{}, err
	}
	if err := s.repo.Put(ctx, doc); err != nil {
		metrics.ZoneWriteFailures.WithLabelValues(op).Inc()
		return domain.Zone{}, fmt.Errorf("%w: put %s: %v", domain.ErrPersistenceFailure, z.ID, err)
	}
	metrics.ZonesWritten.WithLabelValues(op).Inc()
	return z, nil
}

// DeleteZone removes one zone document.
func (s *ZoneService) DeleteZone(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.ZoneWriteFailures.WithLabelValues(OpDelete).Inc()
		return fmt.Errorf("%w: delete %s: %v", domain.ErrPersistenceFailure, id, err)
	}
	metrics.ZonesWritten.WithLabelValues(OpDelete).Inc()
	return nil
}

// Changed invalidates cached lookups and broadcasts the stored collection.
// Both are best-effort.
func (s *ZoneService) Changed(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Set(ctx, generationKey, []byte(uuid.NewString()), generationTTL)
	}
	if s.publisher == nil {
		return
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "zone snapshot not published", "error", err)
		return
	}
	if err := s.publisher.PublishZoneSnapshot(ctx, docs); err != nil {
		slog.WarnContext(ctx, "zone snapshot publish failed", "error", err)
	}
}

type locateResult struct {
	Found bool         `json:"found"`
	Zone  *domain.Zone `json:"zone,omitempty"`
}

// Locate resolves an address to the delivery zone containing it. Only
// active zones take part; where active zones overlap, the first one in
// collection order wins.
func (s *ZoneService) Locate(ctx context.Context, p domain.GeoPoint) (*domain.Zone, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: coordinate out of range (%g, %g)", domain.ErrInvalidCoordinate, p.Lat, p.Lng)
	}

	ctx, span := telemetry.Tracer(telemetry.TracerName).Start(ctx, "ZoneService.Locate")
	defer span.End()
	cell := geohash.EncodeWithPrecision(p.Lat, p.Lng, locatePrecision)
	span.SetAttributes(attribute.String(telemetry.AttrGeohash, cell))

	cacheKey := s.locateKey(ctx, cell)
	if cacheKey != "" {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res locateResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("locate").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return s.locateOutcome(res, p)
			}
		}
		metrics.CacheMisses.WithLabelValues("locate").Inc()
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	zones, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := zones[:0]
	for _, z := range zones {
		if z.Active {
			active = append(active, z)
		}
	}

	ix := geospatial.NewZoneIndex(active)
	span.SetAttributes(attribute.Int(telemetry.AttrZoneCount, ix.Len()))
	var res locateResult
	if z, ok := ix.Locate(p); ok {
		res = locateResult{Found: true, Zone: &z}
		span.SetAttributes(attribute.String(telemetry.AttrZoneID, z.ID))
	}

	if cacheKey != "" {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.locateTTL)
		}
	}
	return s.locateOutcome(res, p)
}

func (s *ZoneService) locateOutcome(res locateResult, p domain.GeoPoint) (*domain.Zone, error) {
	if !res.Found {
		metrics.ZoneLocates.WithLabelValues("miss").Inc()
		return nil, fmt.Errorf("%w: no active zone covers (%g, %g)", domain.ErrZoneNotFound, p.Lat, p.Lng)
	}
	metrics.ZoneLocates.WithLabelValues("hit").Inc()
	return res.Zone, nil
}

// locateKey returns "" when caching is unavailable.
func (s *ZoneService) locateKey(ctx context.Context, cell string) string {
	if s.cache == nil {
		return ""
	}
	gen, err := s.cache.Get(ctx, generationKey)
	if err != nil || len(gen) == 0 {
		fresh := uuid.NewString()
		if err := s.cache.Set(ctx, generationKey, []byte(fresh), generationTTL); err != nil {
			return ""
		}
		gen = []byte(fresh)
	}
	return fmt.Sprintf("zones:locate:%s:%s", gen, cell)
}
