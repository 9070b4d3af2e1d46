package terminology

import "context"

// Store is the contract every terminology store gateway fulfils.
//
// Implementations report an absent resource as ErrNotFound and a store that
// cannot be reached (transport failure, server error) as
// ErrUpstreamUnavailable, wrapped with whatever detail they have.
type Store interface {
	// PutCatalog upserts a catalog under a caller-chosen id.
	PutCatalog(ctx context.Context, id string, catalog *CodeCatalog) error
	// PutMappingTable upserts a mapping table under a caller-chosen id.
	PutMappingTable(ctx context.Context, id string, table *MappingTable) error
	// GetCatalog returns the whole catalog stored under id.
	GetCatalog(ctx context.Context, id string) (*CodeCatalog, error)
	// Translate returns the candidate targets for a code of the given source
	// system. An empty result means the store answered but had nothing.
	Translate(ctx context.Context, system, code string) ([]Target, error)
}
