// Package selection turns a header selection into the node sets a fact
// query is restricted to.
//
// Filter nodes are chosen per dimension:
//   - an explicit filter node is always used;
//   - a dimension shown as a row or column header gets no implicit filter;
//   - any other dimension is filtered by its root node, which stands for
//     all members.
package selection

import (
	"log"

	"gopivot/domain/dimension"
)

// SelectFilterNodes returns the filter nodes for every dimension in order.
// headers holds the header bands of both axes.
func SelectFilterNodes(dimensions []*dimension.Dimension, headers [][]*dimension.Node, explicit []*dimension.Node) []*dimension.Node {
	shown := make(map[string]bool)
	for _, level := range headers {
		for _, n := range level {
			shown[n.Dimension().ID] = true
		}
	}

	var filters []*dimension.Node
	for _, d := range dimensions {
		assigned := false
		for _, fn := range explicit {
			if fn == nil || fn.Dimension() == nil {
				continue
			}
			if fn.Dimension().ID == d.ID {
				filters = append(filters, fn)
				assigned = true
			}
		}
		if !shown[d.ID] && !assigned {
			log.Printf("[FilterBuilder] Using root of dimension %s as filter", d.ID)
			filters = append(filters, d.Root())
		}
	}
	return filters
}

// Flatten concatenates header bands into one node list.
func Flatten(levels [][]*dimension.Node) []*dimension.Node {
	var out []*dimension.Node
	for _, l := range levels {
		out = append(out, l...)
	}
	return out
}
