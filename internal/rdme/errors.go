package rdme

import "fmt"

// BadPropensityError reports a propensity function that returned a negative
// or non-finite value. It is a modeling-input fault: the realization aborts
// immediately, since flooring the value to zero would silently break the
// exact-sampling guarantee.
type BadPropensityError struct {
	Cell     int
	Reaction int
	Value    float64
	Time     float64
}

func (e *BadPropensityError) Error() string {
	return fmt.Sprintf("propensity for reaction %d in cell %d evaluated to %v at t=%g",
		e.Reaction, e.Cell, e.Value, e.Time)
}

// NegativeCountError reports an applied event that would drive a species
// count below zero. It indicates the stoichiometry/propensity pair is
// inconsistent with the current state, a correctness bug in the inputs.
type NegativeCountError struct {
	Cell    int
	Species int
	Count   int64
	Time    float64
}

func (e *NegativeCountError) Error() string {
	return fmt.Sprintf("species %d in cell %d would reach count %d at t=%g",
		e.Species, e.Cell, e.Count, e.Time)
}

// DimensionError reports inconsistent or oversized model dimensions,
// detected before any simulation work begins.
type DimensionError struct {
	What string
}

func (e *DimensionError) Error() string {
	return "invalid dimensions: " + e.What
}
