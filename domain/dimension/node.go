package dimension

// MeasureDimension is the identifier of the distinguished measure dimension.
// Only its nodes carry confidence-limit and sample-size companions.
const MeasureDimension = "measure"

// Dimension is a rooted hierarchical classification such as region or time.
type Dimension struct {
	ID    string
	Label Label

	root   *Node
	levels []*Level
}

// Root returns the single root node. It stands for "all members".
func (d *Dimension) Root() *Node {
	return d.root
}

// Levels returns the hierarchy levels in the order they were first seen.
func (d *Dimension) Levels() []*Level {
	return d.levels
}

// Level looks up a level by identifier.
func (d *Dimension) Level(id string) (*Level, bool) {
	for _, l := range d.levels {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// reorderLevels lists the nodes of every level breadth first over the
// children, so levels follow the sort order of their parents' children.
func (d *Dimension) reorderLevels() {
	if d.root == nil {
		return
	}
	for _, l := range d.levels {
		l.nodes = l.nodes[:0]
	}
	queue := []*Node{d.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		n.level.nodes = append(n.level.nodes, n)
		queue = append(queue, n.children...)
	}
}

// IsMeasure reports whether d is the measure dimension.
func (d *Dimension) IsMeasure() bool {
	return d.ID == MeasureDimension
}

// DisplayLabel returns the dimension label, or the root label when the dimension has none.
func (d *Dimension) DisplayLabel(lang string) string {
	if !d.Label.IsEmpty() {
		return d.Label.Value(lang)
	}
	if d.root != nil && !d.root.Label.IsEmpty() {
		return d.root.Label.Value(lang)
	}
	return d.ID
}

// Level is a named tier of a dimension hierarchy.
type Level struct {
	ID    string
	Index int
	Label Label

	dimension *Dimension
	nodes     []*Node
}

// Dimension returns the owning dimension.
func (l *Level) Dimension() *Dimension {
	return l.dimension
}

// Nodes returns the nodes of this level in load order, or in sort order once
// metadata has assigned sort keys.
func (l *Level) Nodes() []*Node {
	return l.nodes
}

// Node is one value of a dimension hierarchy. The parent reference is a
// back reference; the dimension owns the whole node set.
type Node struct {
	ID        string
	Surrogate int
	Ref       string
	Label     Label
	Link      Label
	SortKey   int

	dimension *Dimension
	level     *Level
	parent    *Node
	children  []*Node

	ciLower    *Node
	ciUpper    *Node
	sampleSize *Node
}

func (n *Node) Dimension() *Dimension { return n.dimension }

func (n *Node) Level() *Level { return n.level }

// Parent returns nil for the root.
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return n.children }

func (n *Node) IsRoot() bool { return n.parent == nil }

// Depth is the number of edges between n and its root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Same compares node identity: equal identifiers within the same dimension.
func (n *Node) Same(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.ID == o.ID && n.dimension.ID == o.dimension.ID
}

// AncestorOf reports whether o is reachable from n by following children
// zero or more times. A node is its own ancestor.
func (n *Node) AncestorOf(o *Node) bool {
	if n == nil || o == nil || n.dimension.ID != o.dimension.ID {
		return false
	}
	for p := o; p != nil; p = p.parent {
		if p.Same(n) {
			return true
		}
	}
	return false
}

// DescendantOf is the inverse of AncestorOf.
func (n *Node) DescendantOf(o *Node) bool {
	return o.AncestorOf(n)
}

// ConfidenceLowerLimit returns the lower confidence-limit companion or nil.
func (n *Node) ConfidenceLowerLimit() *Node { return n.ciLower }

// ConfidenceUpperLimit returns the upper confidence-limit companion or nil.
func (n *Node) ConfidenceUpperLimit() *Node { return n.ciUpper }

// SampleSize returns the sample-size companion or nil.
func (n *Node) SampleSize() *Node { return n.sampleSize }

// Companions returns the configured companions, skipping absent ones.
func (n *Node) Companions() []*Node {
	out := make([]*Node, 0, 3)
	for _, c := range []*Node{n.ciLower, n.ciUpper, n.sampleSize} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// DisplayLabel returns the node label in lang, or the identifier when unlabeled.
func (n *Node) DisplayLabel(lang string) string {
	if v := n.Label.Value(lang); v != "" {
		return v
	}
	return n.ID
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.dimension.ID + ":" + n.ID
}
