package ports

import (
	"context"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// ZoneRepository persists zone documents keyed by id.
type ZoneRepository interface {
	// Put creates or replaces the document with doc.ID.
	Put(ctx context.Context, doc domain.ZoneDocument) error
	// Delete removes the document. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// ListAll returns every stored document, including malformed ones.
	ListAll(ctx context.Context) ([]domain.ZoneDocument, error)
}
