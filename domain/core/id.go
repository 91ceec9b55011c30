package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// CubeID names a cube as subject.hydra.fact[.run], e.g. "health.sotkanet.population".
type CubeID string

// identifierPattern restricts cube id components, which end up in table names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CubeParts is the dotted cube identifier split into its components.
type CubeParts struct {
	Subject string
	Hydra   string
	Fact    string
	Run     string
}

// ParseCubeID splits a cube identifier. The run defaults to "latest".
func ParseCubeID(s string) (CubeParts, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return CubeParts{}, fmt.Errorf("cube id %q must have the form subject.hydra.fact[.run]", s)
	}
	for _, p := range parts {
		if p == "" {
			return CubeParts{}, fmt.Errorf("cube id %q has an empty component", s)
		}
		if !identifierPattern.MatchString(p) {
			return CubeParts{}, fmt.Errorf("cube id %q: component %q is not a plain identifier", s, p)
		}
	}
	cp := CubeParts{Subject: parts[0], Hydra: parts[1], Fact: parts[2], Run: "latest"}
	if len(parts) == 4 {
		cp.Run = parts[3]
	}
	return cp, nil
}

// String returns the canonical dotted form.
func (c CubeParts) String() string {
	return c.Subject + "." + c.Hydra + "." + c.Fact + "." + c.Run
}

// TreeTable is the dimension tree table of the cube's hydra run.
func (c CubeParts) TreeTable() string {
	return strings.ToLower(c.Subject + "_" + c.Hydra + "_tree_" + c.Run)
}

// MetaTable holds node and cube metadata.
func (c CubeParts) MetaTable() string {
	return strings.ToLower(c.Subject + "_" + c.Hydra + "_meta_" + c.Run)
}

// FactTable holds the cube's values keyed by <dimension>_key columns.
func (c CubeParts) FactTable() string {
	return strings.ToLower(c.Subject + "_" + c.Hydra + "_fact_" + c.Fact + "_" + c.Run)
}
