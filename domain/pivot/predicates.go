package pivot

// Predicate decides whether a cell may stay visible. Returning false rejects it.
type Predicate func(Cell) bool

// accepts evaluates predicates in order and stops at the first rejection.
func accepts(predicates []Predicate, c Cell) bool {
	for _, p := range predicates {
		if !p(c) {
			return false
		}
	}
	return true
}

// HideEmpty rejects cells without a figure. Sentinel cells carry no value
// to judge and are accepted.
func HideEmpty() Predicate {
	return func(c Cell) bool {
		return c.Sentinel || c.HasValue()
	}
}

// HideZero rejects cells whose figure is numerically zero.
func HideZero() Predicate {
	return func(c Cell) bool {
		return c.Sentinel || !c.IsZero()
	}
}
