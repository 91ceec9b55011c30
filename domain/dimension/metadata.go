package dimension

import (
	"log"
	"sort"
	"strconv"
)

// Metadata predicates understood by ApplyMetadata.
const (
	PredicateName       = "name"
	PredicateSort       = "sort"
	PredicateLink       = "link"
	PredicateCILower    = "meta:ci_lower"
	PredicateCIUpper    = "meta:ci_upper"
	PredicateSampleSize = "meta:n"
)

// Property is one (predicate, language, value) triple attached to a reference.
type Property struct {
	Predicate string
	Language  string
	Value     string
}

// ApplyMetadata attaches labels, sort keys, links and measure companions to
// the nodes addressed by each reference. A reference of the form
// "<dimension>" labels the dimension and "<dimension>.<level>" labels a level.
// It must run before the catalog is shared between requests.
func (c *Catalog) ApplyMetadata(propertiesByRef map[string][]Property) {
	resorted := make(map[*Node]bool)

	for ref, props := range propertiesByRef {
		if n, ok := c.byRef[ref]; ok {
			for _, p := range props {
				if c.applyNodeProperty(n, p) && p.Predicate == PredicateSort && n.parent != nil {
					resorted[n.parent] = true
				}
			}
			continue
		}
		if label := c.labelForRef(ref); label != nil {
			for _, p := range props {
				if p.Predicate == PredicateName {
					label.Set(p.Language, p.Value)
				}
			}
		}
	}

	reordered := make(map[*Dimension]bool)
	for parent := range resorted {
		sort.SliceStable(parent.children, func(i, j int) bool {
			return parent.children[i].SortKey < parent.children[j].SortKey
		})
		reordered[parent.dimension] = true
	}
	for d := range reordered {
		d.reorderLevels()
	}
}

func (c *Catalog) applyNodeProperty(n *Node, p Property) bool {
	switch p.Predicate {
	case PredicateName:
		n.Label.Set(p.Language, p.Value)
	case PredicateLink:
		n.Link.Set(p.Language, p.Value)
	case PredicateSort:
		v, err := strconv.Atoi(p.Value)
		if err != nil {
			log.Printf("[Catalog] WARN: ignoring non-numeric sort %q for %s", p.Value, n)
			return false
		}
		n.SortKey = v
	case PredicateCILower, PredicateCIUpper, PredicateSampleSize:
		if !n.dimension.IsMeasure() {
			return false
		}
		companion, ok := c.byRef[p.Value]
		if !ok {
			log.Printf("[Catalog] WARN: %s of %s references unknown node %q", p.Predicate, n, p.Value)
			return false
		}
		switch p.Predicate {
		case PredicateCILower:
			n.ciLower = companion
		case PredicateCIUpper:
			n.ciUpper = companion
		default:
			n.sampleSize = companion
		}
	default:
		return false
	}
	return true
}

func (c *Catalog) labelForRef(ref string) Label {
	if d, ok := c.byID[ref]; ok {
		return d.Label
	}
	for _, d := range c.dimensions {
		for _, l := range d.levels {
			if d.ID+"."+l.ID == ref {
				return l.Label
			}
		}
	}
	return nil
}
