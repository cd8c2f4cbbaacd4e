package telemetry

// TracerName is the instrumentation scope of the zone use cases.
const TracerName = "pizzazones/usecases"

// Span attribute keys.
const (
	AttrZoneID     = "zone.id"
	AttrZoneCount  = "zone.count"
	AttrZoneFailed = "zone.failed"
	AttrCacheHit   = "cache.hit"
	AttrGeohash    = "geo.geohash"
)
