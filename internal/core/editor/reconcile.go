package editor

import (
	"encoding/json"
	"fmt"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// Diff is the outcome of reconciling a working set against what is persisted.
//
// Saving is a full replace: a persisted zone whose id is missing from the
// working set lands in ToDelete. Callers that pass a partial set will delete
// everything they left out.
type Diff struct {
	ToCreate  []domain.Zone `json:"to_create"`
	ToUpdate  []domain.Zone `json:"to_update"`
	ToDelete  []domain.Zone `json:"to_delete"`
	Unchanged []domain.Zone `json:"unchanged"`
	Invalid   []ZoneError   `json:"invalid,omitempty"`
}

// ZoneError reports a zone skipped by reconciliation.
type ZoneError struct {
	ZoneID string `json:"zone_id"`
	Err    error  `json:"-"`
}

func (e ZoneError) Error() string { return fmt.Sprintf("zone %q: %v", e.ZoneID, e.Err) }

func (e ZoneError) Unwrap() error { return e.Err }

// MarshalJSON includes the error text.
func (e ZoneError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		ZoneID string `json:"zone_id"`
		Error  string `json:"error"`
	}{e.ZoneID, msg})
}

// Empty reports whether applying the diff would write nothing.
func (d Diff) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// Reconcile computes the writes needed to make persisted equal working.
//
// Working zones failing validation are reported in Invalid and skipped; a
// skipped zone that is already persisted is neither updated nor deleted.
// Duplicate ids in working resolve to the last occurrence. Updates keep
// the persisted creation time when the working copy has none.
func Reconcile(working, persisted []domain.Zone) Diff {
	var d Diff

	stored := make(map[string]domain.Zone, len(persisted))
	for _, z := range persisted {
		stored[z.ID] = z
	}

	keep := make(map[string]bool, len(working))
	last := make(map[string]int, len(working))
	for i, z := range working {
		last[z.ID] = i
	}

	for i, z := range working {
		if last[z.ID] != i {
			continue
		}
		keep[z.ID] = true
		if err := z.Validate(); err != nil {
			d.Invalid = append(d.Invalid, ZoneError{ZoneID: z.ID, Err: err})
			continue
		}
		prev, ok := stored[z.ID]
		switch {
		case !ok:
			d.ToCreate = append(d.ToCreate, z.Clone())
		case prev.SameContent(z):
			d.Unchanged = append(d.Unchanged, z.Clone())
		default:
			u := z.Clone()
			if u.CreatedAt.IsZero() {
				u.CreatedAt = prev.CreatedAt
			}
			d.ToUpdate = append(d.ToUpdate, u)
		}
	}

	for _, z := range persisted {
		if !keep[z.ID] {
			keep[z.ID] = true
			d.ToDelete = append(d.ToDelete, z.Clone())
		}
	}
	return d
}
