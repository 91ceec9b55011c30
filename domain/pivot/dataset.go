package pivot

import (
	"fmt"
	"strings"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
)

const keySeparator = "\x1f"

// Dataset holds fact values keyed by one node per dimension column.
type Dataset struct {
	columns []string
	index   map[string]int
	values  map[string]string
}

// NewDataset creates an empty dataset over the given dimension columns.
func NewDataset(columns []string) *Dataset {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
		values:  make(map[string]string),
	}
}

// Columns returns the dimension identifiers in column order.
func (d *Dataset) Columns() []string {
	return d.columns
}

// Len returns the number of stored facts.
func (d *Dataset) Len() int {
	return len(d.values)
}

// Put stores value under keys, one node per column in column order.
func (d *Dataset) Put(value string, keys []*dimension.Node) error {
	if len(keys) != len(d.columns) {
		return core.NewUnknownColumnError(strings.Join(d.columns, ","), fmt.Sprintf("fact has %d keys", len(keys)))
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		if k.Dimension().ID != d.columns[i] {
			return core.NewUnknownColumnError(d.columns[i], fmt.Sprintf("key %s", k))
		}
		ids[i] = k.ID
	}
	d.values[strings.Join(ids, keySeparator)] = value
	return nil
}

// Get returns the value addressed by coords, which maps dimension
// identifiers to nodes. Every column must be addressed.
func (d *Dataset) Get(coords map[string]*dimension.Node) (string, bool) {
	ids := make([]string, len(d.columns))
	for i, c := range d.columns {
		n, ok := coords[c]
		if !ok {
			return "", false
		}
		ids[i] = n.ID
	}
	v, ok := d.values[strings.Join(ids, keySeparator)]
	return v, ok
}
