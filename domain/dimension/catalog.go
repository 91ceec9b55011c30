package dimension

import (
	"gopivot/domain/core"
)

// TreeRecord is one row of the breadth-first tree stream.
type TreeRecord struct {
	Dimension   string
	Level       string
	NodeID      string
	ParentID    string // empty for the root
	Ref         string
	SurrogateID *int
}

type nodeKey struct {
	dimension string
	id        string
}

// Catalog is the materialized dimension forest of one cube. It is read-only
// once built and safe to share between requests.
type Catalog struct {
	dimensions  []*Dimension
	byID        map[string]*Dimension
	nodes       map[nodeKey]*Node
	byRef       map[string]*Node
	bySurrogate map[int]*Node
}

func newCatalog() *Catalog {
	return &Catalog{
		byID:        make(map[string]*Dimension),
		nodes:       make(map[nodeKey]*Node),
		byRef:       make(map[string]*Node),
		bySurrogate: make(map[int]*Node),
	}
}

// Dimensions returns the dimensions in first-seen order with the measure
// dimension last.
func (c *Catalog) Dimensions() []*Dimension {
	out := make([]*Dimension, 0, len(c.dimensions))
	var measure *Dimension
	for _, d := range c.dimensions {
		if d.IsMeasure() {
			measure = d
			continue
		}
		out = append(out, d)
	}
	if measure != nil {
		out = append(out, measure)
	}
	return out
}

// Dimension looks up a dimension by identifier.
func (c *Catalog) Dimension(id string) (*Dimension, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Node looks up a node by dimension and identifier. A miss is an integrity error.
func (c *Catalog) Node(dimension, id string) (*Node, error) {
	if n, ok := c.nodes[nodeKey{dimension, id}]; ok {
		return n, nil
	}
	return nil, core.NewNodeNotFoundError(dimension, id)
}

// NodeByRef looks up a node by its external metadata reference.
func (c *Catalog) NodeByRef(ref string) (*Node, bool) {
	n, ok := c.byRef[ref]
	return n, ok
}

// NodeBySurrogate looks up a node by its integer surrogate.
func (c *Catalog) NodeBySurrogate(id int) (*Node, bool) {
	n, ok := c.bySurrogate[id]
	return n, ok
}

// Len returns the number of nodes across all dimensions.
func (c *Catalog) Len() int {
	return len(c.nodes)
}

// Builder assembles a Catalog from a breadth-first record stream. Records
// without a stored surrogate get negative ones, which never collide with
// stored ids.
type Builder struct {
	catalog       *Catalog
	lastGenerated int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{catalog: newCatalog()}
}

// Add links one record into the tree. The parent must already be present,
// which holds for every truly breadth-first stream.
func (b *Builder) Add(r TreeRecord) error {
	c := b.catalog

	dim, ok := c.byID[r.Dimension]
	if !ok {
		dim = &Dimension{ID: r.Dimension, Label: Label{}}
		c.byID[r.Dimension] = dim
		c.dimensions = append(c.dimensions, dim)
	}

	key := nodeKey{r.Dimension, r.NodeID}
	if _, exists := c.nodes[key]; exists {
		return core.NewDuplicateNodeError(r.Dimension, r.NodeID)
	}

	var parent *Node
	if r.ParentID == "" {
		if dim.root != nil {
			return core.NewDuplicateRootError(r.Dimension, r.NodeID)
		}
	} else {
		parent, ok = c.nodes[nodeKey{r.Dimension, r.ParentID}]
		if !ok {
			return core.NewUnknownParentError(r.Dimension, r.NodeID, r.ParentID)
		}
	}

	var surrogate int
	if r.SurrogateID != nil {
		surrogate = *r.SurrogateID
		if _, taken := c.bySurrogate[surrogate]; taken {
			return core.NewDuplicateNodeError(r.Dimension, r.NodeID)
		}
	} else {
		b.lastGenerated--
		surrogate = b.lastGenerated
	}

	level, ok := dim.Level(r.Level)
	if !ok {
		level = &Level{ID: r.Level, Index: len(dim.levels), Label: Label{}, dimension: dim}
		dim.levels = append(dim.levels, level)
	}

	n := &Node{
		ID:        r.NodeID,
		Surrogate: surrogate,
		Ref:       r.Ref,
		Label:     Label{},
		Link:      Label{},
		dimension: dim,
		level:     level,
		parent:    parent,
	}
	if parent == nil {
		dim.root = n
	} else {
		parent.children = append(parent.children, n)
	}
	level.nodes = append(level.nodes, n)

	c.nodes[key] = n
	c.bySurrogate[surrogate] = n
	if r.Ref != "" {
		c.byRef[r.Ref] = n
	}
	return nil
}

// Catalog returns the catalog built so far.
func (b *Builder) Catalog() *Catalog {
	return b.catalog
}

// BuildTree builds a catalog from records already in breadth-first order.
func BuildTree(records []TreeRecord) (*Catalog, error) {
	b := NewBuilder()
	for _, r := range records {
		if err := b.Add(r); err != nil {
			return nil, err
		}
	}
	return b.Catalog(), nil
}
