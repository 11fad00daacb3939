package reader

import (
	"context"

	"salesflow/models"
)

// Source loads the raw input tables of one run.
type Source interface {
	Name() string
	Load(ctx context.Context) (models.RawDataset, error)
}

// optionalTables may be absent from a source without failing the run.
var optionalTables = map[string]bool{
	models.TableReviews: true,
}
