package rig

import "sort"

// Expression preset names driven by face tracking.
const (
	ExprBlink = "Blink"
	ExprA     = "A"
	ExprE     = "E"
	ExprI     = "I"
	ExprO     = "O"
	ExprU     = "U"
)

// ExpressionSet holds blendshape weights and the eye look-at target of
// rigs that support facial expressions.
type ExpressionSet struct {
	values map[string]float64
	LookAt Euler
}

// NewExpressionSet returns an empty set.
func NewExpressionSet() *ExpressionSet {
	return &ExpressionSet{values: make(map[string]float64)}
}

// Value returns the current weight of name, zero if unset.
func (e *ExpressionSet) Value(name string) float64 {
	return e.values[name]
}

// Set stores the weight of name.
func (e *ExpressionSet) Set(name string, v float64) {
	e.values[name] = v
}

// Reset clears all weights and the look-at target.
func (e *ExpressionSet) Reset() {
	e.values = make(map[string]float64)
	e.LookAt = Euler{}
}

// Names returns the set weights in sorted order.
func (e *ExpressionSet) Names() []string {
	names := make([]string, 0, len(e.values))
	for n := range e.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of all weights.
func (e *ExpressionSet) Values() map[string]float64 {
	out := make(map[string]float64, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}
