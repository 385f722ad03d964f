// Package rdme implements an exact stochastic simulator for spatial
// reaction-diffusion systems (the reaction-diffusion master equation).
//
// A model is a mesh of well-mixed subvolumes (cells), each holding integer
// molecule counts for a set of species. Reactions fire inside a cell at a
// rate given by a per-reaction propensity function; diffusion moves single
// molecules between neighboring cells along precomputed channels. Both kinds
// of event are interleaved into one global continuous-time Markov jump chain
// and sampled exactly with Gillespie's direct method: one exponential draw
// for the waiting time, one uniform draw for the firing event, per step.
//
// The package is split into a read-only model (sparse stoichiometry,
// dependency graph and diffusion topology, plus the propensity table) that
// may be shared across concurrent realizations, and per-realization mutable
// pieces (state, intensity table, trajectory) that are exclusively owned by
// one goroutine.
package rdme
