package rdme

import "math"

// PropensityFunc computes the instantaneous firing rate of one reaction in
// one cell. Implementations must be pure with respect to their inputs: no
// hidden counters, no mutation of the slices they receive. counts is the
// cell's species vector, vol its volume, ldata its local parameter block,
// gdata the shared global block, subdomain the cell's label, and t the
// current simulation time.
type PropensityFunc interface {
	Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64
}

// evalPropensity invokes the reaction's propensity function for a cell and
// checks the result. A negative or non-finite value is a fatal
// modeling-input fault, never floored to zero.
func evalPropensity(fn PropensityFunc, st *State, cell, reaction int, t float64) (float64, error) {
	a := fn.Evaluate(st.CellCounts(cell), st.Vol[cell], st.CellLdata(cell), st.Gdata, st.Subdomain[cell], t)
	if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, &BadPropensityError{Cell: cell, Reaction: reaction, Value: a, Time: t}
	}
	return a, nil
}

// ConstantRate is a zeroth-order mass-action propensity: molecules appear
// from a source at rate k scaled by the cell volume.
type ConstantRate struct {
	K float64
}

func (p ConstantRate) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	return p.K * vol
}

// UnaryRate is a first-order mass-action propensity k*x for one reactant
// species.
type UnaryRate struct {
	K       float64
	Species int
}

func (p UnaryRate) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	return p.K * float64(counts[p.Species])
}

// BinaryRate is a second-order mass-action propensity k*xA*xB/vol for two
// distinct reactant species.
type BinaryRate struct {
	K    float64
	A, B int
}

func (p BinaryRate) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	return p.K * float64(counts[p.A]) * float64(counts[p.B]) / vol
}

// DimerRate is a second-order mass-action propensity for two molecules of
// the same species, k*x*(x-1)/vol.
type DimerRate struct {
	K       float64
	Species int
}

func (p DimerRate) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	x := float64(counts[p.Species])
	return p.K * x * (x - 1) / vol
}

// SubdomainRestricted wraps a propensity so it is active only in cells whose
// subdomain label is listed; everywhere else it evaluates to zero.
type SubdomainRestricted struct {
	Fn      PropensityFunc
	Allowed []int
}

func (p SubdomainRestricted) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	for _, sd := range p.Allowed {
		if sd == subdomain {
			return p.Fn.Evaluate(counts, vol, ldata, gdata, subdomain, t)
		}
	}
	return 0
}
