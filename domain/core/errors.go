package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Integrity errors: the loaded tree or fact stream is inconsistent
	ErrIntegrity     = errors.New("cube data integrity violated")
	ErrUnknownParent = fmt.Errorf("%w: parent node not yet loaded", ErrIntegrity)
	ErrNodeNotFound  = fmt.Errorf("%w: dimension node not found", ErrIntegrity)
	ErrDuplicateRoot = fmt.Errorf("%w: dimension has more than one root", ErrIntegrity)
	ErrDuplicateNode = fmt.Errorf("%w: duplicate dimension node", ErrIntegrity)
	ErrUnknownColumn = fmt.Errorf("%w: fact column does not map to a dimension", ErrIntegrity)

	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrDimensionNotFound = fmt.Errorf("%w: dimension", ErrNotFound)
	ErrLevelNotFound     = fmt.Errorf("%w: level", ErrNotFound)
)

// Error constructors with context
func NewUnknownParentError(dimension, node, parent string) error {
	return fmt.Errorf("%w: node %s.%s references parent %s", ErrUnknownParent, dimension, node, parent)
}

func NewNodeNotFoundError(dimension, node string) error {
	return fmt.Errorf("%w: %s.%s", ErrNodeNotFound, dimension, node)
}

func NewDuplicateRootError(dimension, node string) error {
	return fmt.Errorf("%w: %s.%s", ErrDuplicateRoot, dimension, node)
}

func NewDuplicateNodeError(dimension, node string) error {
	return fmt.Errorf("%w: %s.%s", ErrDuplicateNode, dimension, node)
}

func NewUnknownColumnError(column, detail string) error {
	return fmt.Errorf("%w: %s (%s)", ErrUnknownColumn, column, detail)
}

func NewDimensionNotFoundError(dimension string) error {
	return fmt.Errorf("%w %s", ErrDimensionNotFound, dimension)
}

func NewLevelNotFoundError(dimension, level string) error {
	return fmt.Errorf("%w %s.%s", ErrLevelNotFound, dimension, level)
}

// Error checking helpers
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
