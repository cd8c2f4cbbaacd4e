package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// ZoneRepo implements ports.ZoneRepository on a JSONB document table.
// Each Put is a single-row upsert, so writes are atomic per document and the
// last writer wins.
type ZoneRepo struct {
	db *DB
}

func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

func (r *ZoneRepo) Put(ctx context.Context, doc domain.ZoneDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode zone %s: %w", doc.ID, err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO zones (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, doc.ID, data)
	return err
}

func (r *ZoneRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	return err
}

// ListAll returns documents in creation order. A row whose JSON does not fit
// the document shape is returned with only its id so the caller reports it
// as malformed.
func (r *ZoneRepo) ListAll(ctx context.Context) ([]domain.ZoneDocument, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, doc FROM zones ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []domain.ZoneDocument{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc domain.ZoneDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			slog.WarnContext(ctx, "zone row does not decode", "zone_id", id, "error", err)
			doc = domain.ZoneDocument{}
		}
		doc.ID = id
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
