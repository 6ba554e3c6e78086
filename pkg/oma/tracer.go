package oma

// SearchPosition describes the solver's state at one point in the
// preference search: which variables are currently assumed, and which
// constraints conflicted with the last guess.
type SearchPosition interface {
	Variables() []Variable
	Conflicts() []AppliedConstraint
}

// Tracer receives a callback after every accepted upgrade of the preference
// search (internal/sat's search.go), so a caller can log resolution
// progress without the solver itself depending on a logging library.
type Tracer interface {
	Trace(p SearchPosition)
}
