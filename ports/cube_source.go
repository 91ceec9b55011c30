package ports

import (
	"context"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
	"gopivot/domain/selection"
)

// TreeLoader streams the dimension tree of a cube. Records arrive parent
// before child (breadth first), so each one can be attached as it is read.
type TreeLoader interface {
	StreamTree(ctx context.Context, cube core.CubeParts, fn func(dimension.TreeRecord) error) error
}

// MetadataLoader reads node and cube metadata.
type MetadataLoader interface {
	// LoadMetadata returns the properties grouped by reference.
	LoadMetadata(ctx context.Context, cube core.CubeParts) (map[string][]dimension.Property, error)
	// LoadCubeName returns the display name of the cube's fact.
	LoadCubeName(ctx context.Context, cube core.CubeParts) (dimension.Label, error)
}

// FactLoader reads cube values.
type FactLoader interface {
	// FactColumns lists the dimension ids of the fact table in column order.
	FactColumns(ctx context.Context, cube core.CubeParts) ([]string, error)
	// LoadFacts reads the values restricted to the admissible nodes. An
	// empty admissible set yields an empty dataset.
	LoadFacts(ctx context.Context, cube core.CubeParts, columns []string, catalog *dimension.Catalog, admissible *selection.AdmissibleNodes) (*pivot.Dataset, error)
}

// CubeSource is everything needed to render a cube.
type CubeSource interface {
	TreeLoader
	MetadataLoader
	FactLoader
}
