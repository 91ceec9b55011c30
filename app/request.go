package app

import (
	"fmt"
	"strings"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
	"gopivot/internal/errors"
)

// HeaderSpec selects the nodes of one header band. Either Nodes lists node
// ids of Dimension, or Level names a tree level whose nodes are all shown.
type HeaderSpec struct {
	Dimension string
	Level     string
	Nodes     []string
}

// NodeRef addresses a node by dimension and id.
type NodeRef struct {
	Dimension string
	Node      string
}

// CubeRequest describes one rendering of a cube.
type CubeRequest struct {
	Env            string
	Locale         string
	Cube           string
	Rows           []HeaderSpec
	Columns        []HeaderSpec
	Filters        []NodeRef
	FilterZero     bool
	FilterEmpty    bool
	ShowValueTypes bool

	// Client details for the usage log.
	Host      string
	IPAddr    string
	SessionID string
	View      string
}

// ParseHeaderSpec parses "dim:node1,node2" or "dim.level".
func ParseHeaderSpec(s string) (HeaderSpec, error) {
	s = strings.TrimSpace(s)
	if dim, nodes, ok := strings.Cut(s, ":"); ok {
		spec := HeaderSpec{Dimension: dim}
		for _, n := range strings.Split(nodes, ",") {
			if n = strings.TrimSpace(n); n != "" {
				spec.Nodes = append(spec.Nodes, n)
			}
		}
		if dim == "" || len(spec.Nodes) == 0 {
			return HeaderSpec{}, errors.InvalidInput(fmt.Sprintf("header %q must name a dimension and at least one node", s))
		}
		return spec, nil
	}
	if dim, level, ok := strings.Cut(s, "."); ok && dim != "" && level != "" {
		return HeaderSpec{Dimension: dim, Level: level}, nil
	}
	return HeaderSpec{}, errors.InvalidInput(fmt.Sprintf("header %q must have the form dim:node,... or dim.level", s))
}

// ParseNodeRefs parses "dim:node1,node2" into one reference per node.
func ParseNodeRefs(s string) ([]NodeRef, error) {
	spec, err := ParseHeaderSpec(s)
	if err != nil {
		return nil, err
	}
	if spec.Level != "" {
		return nil, errors.InvalidInput(fmt.Sprintf("filter %q must list nodes", s))
	}
	refs := make([]NodeRef, len(spec.Nodes))
	for i, n := range spec.Nodes {
		refs[i] = NodeRef{Dimension: spec.Dimension, Node: n}
	}
	return refs, nil
}

// resolveHeaders turns header specs into pivot header bands.
func resolveHeaders(catalog *dimension.Catalog, specs []HeaderSpec) ([]*pivot.Level, error) {
	levels := make([]*pivot.Level, 0, len(specs))
	for _, spec := range specs {
		d, ok := catalog.Dimension(spec.Dimension)
		if !ok {
			return nil, errors.WithCode(errors.CodeInvalidInput, core.NewDimensionNotFoundError(spec.Dimension))
		}
		if spec.Level != "" {
			l, ok := d.Level(spec.Level)
			if !ok {
				return nil, errors.WithCode(errors.CodeInvalidInput, core.NewLevelNotFoundError(spec.Dimension, spec.Level))
			}
			levels = append(levels, pivot.NewLevel(l.Nodes()...))
			continue
		}
		nodes := make([]*dimension.Node, 0, len(spec.Nodes))
		for _, id := range spec.Nodes {
			n, err := catalog.Node(spec.Dimension, id)
			if err != nil {
				return nil, errors.Integrity("header references an unknown node", err)
			}
			nodes = append(nodes, n)
		}
		levels = append(levels, pivot.NewLevel(nodes...))
	}
	return levels, nil
}

func resolveFilters(catalog *dimension.Catalog, refs []NodeRef) ([]*dimension.Node, error) {
	nodes := make([]*dimension.Node, 0, len(refs))
	for _, ref := range refs {
		n, err := catalog.Node(ref.Dimension, ref.Node)
		if err != nil {
			return nil, errors.Integrity("filter references an unknown node", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func bandNodes(levels []*pivot.Level) [][]*dimension.Node {
	out := make([][]*dimension.Node, len(levels))
	for i, l := range levels {
		out[i] = l.Nodes()
	}
	return out
}
