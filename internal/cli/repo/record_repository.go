package repo

import (
	"context"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

// SearchOptions are the keyword arguments of search and search_read. Zero values are omitted.
type SearchOptions struct {
	Fields []string
	Limit  int
	Offset int
	Order  string
}

// RPC определяет порт доступа к удалённым моделям Odoo. Реализуется api.Session.
type RPC interface {
	// Search returns the ids matching domain.
	Search(ctx context.Context, model string, domain model.Domain, opts SearchOptions) ([]int64, error)
	// Read returns the given records; nil fields means all fields.
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]model.Record, error)
	// SearchRead combines Search and Read in one round trip.
	SearchRead(ctx context.Context, model string, domain model.Domain, opts SearchOptions) ([]model.Record, error)
	// Create inserts a record and returns its id.
	Create(ctx context.Context, model string, values map[string]any) (int64, error)
	// Write updates records and reports success.
	Write(ctx context.Context, model string, ids []int64, values map[string]any) (bool, error)
	// Execute calls any other method of a model.
	Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error)

	// Username is the login the session authenticates with.
	Username() string
	// BaseURL is the configured instance URL without a trailing slash.
	BaseURL() string
}
