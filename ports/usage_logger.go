package ports

import (
	"context"

	"gopivot/domain/core"
)

// SelectionUsage tells where a logged node was used.
type SelectionUsage string

const (
	UsageRow    SelectionUsage = "r"
	UsageColumn SelectionUsage = "c"
	UsageFilter SelectionUsage = "f"
)

// UsageSelection is one node of a displayed cube.
type UsageSelection struct {
	Dimension string
	Node      string
	Usage     SelectionUsage
}

// DisplayEvent records a single rendering of a cube.
type DisplayEvent struct {
	ID          core.ID
	Env         string
	Cube        core.CubeParts
	Host        string
	IPAddr      string
	SessionID   string
	View        string
	FilterZero  bool
	FilterEmpty bool
	Selections  []UsageSelection
}

// UsageLogger persists display events.
type UsageLogger interface {
	LogDisplayEvent(ctx context.Context, event DisplayEvent) error
}
