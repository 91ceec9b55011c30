package selection

import (
	"gopivot/domain/dimension"
)

// AdmissibleNodes maps each restricted dimension to the nodes a fact query
// may return. An empty value selects nothing, never everything.
type AdmissibleNodes struct {
	order []string
	nodes map[string][]*dimension.Node
	seen  map[string]struct{}
}

func newAdmissibleNodes() *AdmissibleNodes {
	return &AdmissibleNodes{
		nodes: make(map[string][]*dimension.Node),
		seen:  make(map[string]struct{}),
	}
}

func (a *AdmissibleNodes) add(n *dimension.Node) {
	key := n.String()
	if _, dup := a.seen[key]; dup {
		return
	}
	a.seen[key] = struct{}{}
	id := n.Dimension().ID
	if _, ok := a.nodes[id]; !ok {
		a.order = append(a.order, id)
	}
	a.nodes[id] = append(a.nodes[id], n)
}

// IsEmpty reports whether no dimension admits any node.
func (a *AdmissibleNodes) IsEmpty() bool {
	return len(a.order) == 0
}

// Dimensions returns the restricted dimensions in first-added order.
func (a *AdmissibleNodes) Dimensions() []string {
	return a.order
}

// Nodes returns the admissible nodes of a dimension.
func (a *AdmissibleNodes) Nodes(dimensionID string) []*dimension.Node {
	return a.nodes[dimensionID]
}

// IDs returns the admissible node identifiers of a dimension.
func (a *AdmissibleNodes) IDs(dimensionID string) []string {
	nodes := a.nodes[dimensionID]
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// BuildAdmissibleNodeSets unions the shown nodes and the filter nodes per
// dimension. A shown node that is not a descendant of a filter node of its
// own dimension contradicts the filter and is dropped. With
// includeMeasureCompanions the confidence-limit and sample-size companions
// of measure nodes are admitted as well.
func BuildAdmissibleNodeSets(shown, filters []*dimension.Node, includeMeasureCompanions bool) *AdmissibleNodes {
	corrected := make([]*dimension.Node, 0, len(shown))
	for _, s := range shown {
		if consistentWithFilters(s, filters) {
			corrected = append(corrected, s)
		}
	}

	a := newAdmissibleNodes()
	for _, group := range [][]*dimension.Node{corrected, filters} {
		for _, n := range group {
			a.add(n)
			if includeMeasureCompanions && n.Dimension().IsMeasure() {
				for _, c := range n.Companions() {
					a.add(c)
				}
			}
		}
	}
	return a
}

func consistentWithFilters(s *dimension.Node, filters []*dimension.Node) bool {
	for _, f := range filters {
		if f.Dimension().ID == s.Dimension().ID && !s.DescendantOf(f) {
			return false
		}
	}
	return true
}
