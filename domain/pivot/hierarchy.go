package pivot

import (
	"gopivot/domain/dimension"
)

// IsImpossibleCombination reports whether the header nodes of one row or
// column contain two nodes of the same dimension where neither is an
// ancestor of the other.
func IsImpossibleCombination(nodes []*dimension.Node) bool {
	byDimension := make(map[string][]*dimension.Node, len(nodes))
	for _, n := range nodes {
		id := n.Dimension().ID
		byDimension[id] = append(byDimension[id], n)
	}
	for _, group := range byDimension {
		if len(group) > 1 && incoherentPair(group) {
			return true
		}
	}
	return false
}

func incoherentPair(group []*dimension.Node) bool {
	for i := 0; i < len(group)-1; i++ {
		for j := i + 1; j < len(group); j++ {
			if !related(group[i], group[j]) {
				return true
			}
		}
	}
	return false
}

func related(a, b *dimension.Node) bool {
	return a.AncestorOf(b) || b.AncestorOf(a)
}

// HideImpossibleHierarchy returns a predicate that rejects cells whose row
// or column combines unrelated nodes of one dimension. Header positions are
// read from p at evaluation time, so p should be the pivot being filtered.
func HideImpossibleHierarchy(p Pivot) Predicate {
	rowLevels, columnLevels := len(p.Rows()), len(p.Columns())
	return func(c Cell) bool {
		if axisImpossible(p, RowAxis, rowLevels, c.Row) {
			return false
		}
		return !axisImpossible(p, ColumnAxis, columnLevels, c.Column)
	}
}

func axisImpossible(p Pivot, axis Axis, levels, index int) bool {
	if levels < 2 || index >= Count(p, axis) {
		return false
	}
	nodes := make([]*dimension.Node, levels)
	for l := range nodes {
		nodes[l] = p.HeaderAt(axis, l, index)
	}
	return IsImpossibleCombination(nodes)
}

// pruneIncoherentAxisIndices returns the visible positions of one axis that
// combine incoherent nodes of a dimension occupying several header levels.
// designated holds the bands whose last nodes act as leaf sentinels; header
// reads the node at (level, position) of the axis being pruned.
func pruneIncoherentAxisIndices(designated []*Level, count int, header func(level, index int) *dimension.Node) []int {
	if count == 0 || len(designated) < 2 {
		return nil
	}

	levelsByDimension := make(map[string][]int, len(designated))
	order := make([]string, 0, len(designated))
	for l := range designated {
		id := header(l, 0).Dimension().ID
		if _, seen := levelsByDimension[id]; !seen {
			order = append(order, id)
		}
		levelsByDimension[id] = append(levelsByDimension[id], l)
	}
	if len(order) == len(designated) {
		return nil
	}

	var hidden []int
	for i := 0; i < count; i++ {
		if incoherentAt(designated, levelsByDimension, order, i, header) {
			hidden = append(hidden, i)
		}
	}
	return hidden
}

func incoherentAt(designated []*Level, levelsByDimension map[string][]int, order []string, i int, header func(level, index int) *dimension.Node) bool {
	for _, id := range order {
		levels := levelsByDimension[id]
		for x := 0; x < len(levels)-1; x++ {
			for y := x + 1; y < len(levels); y++ {
				a, b := levels[x], levels[y]
				na, nb := header(a, i), header(b, i)
				if designated[a].LastNode().Same(na) && !designated[b].LastNode().Same(nb) {
					return true
				}
				if !related(na, nb) {
					return true
				}
			}
		}
	}
	return false
}
