package rdme

import "fmt"

// Model bundles the immutable inputs of a simulation: dimensions, sparse
// topology and the propensity function table. A Model carries no mutable
// state and may be shared by reference across concurrent realizations.
type Model struct {
	Ncells     int
	Mspecies   int
	Mreactions int

	Stoich *StoichMatrix
	Dep    *DepGraph
	Diff   *Diffusion // nil when the model has no diffusion channels
	Props  []PropensityFunc
}

// Validate checks the cross-component dimension invariants.
func (m *Model) Validate() error {
	if m.Ncells <= 0 || m.Mspecies <= 0 || m.Mreactions < 0 {
		return &DimensionError{What: fmt.Sprintf("%d cells, %d species, %d reactions", m.Ncells, m.Mspecies, m.Mreactions)}
	}
	if m.Stoich == nil {
		return fmt.Errorf("model: stoichiometry matrix is required")
	}
	if m.Stoich.Rows != m.Mspecies || m.Stoich.Cols != m.Mreactions {
		return &DimensionError{What: fmt.Sprintf("stoichiometry is %dx%d, want %dx%d",
			m.Stoich.Rows, m.Stoich.Cols, m.Mspecies, m.Mreactions)}
	}
	if m.Dep == nil {
		return fmt.Errorf("model: dependency graph is required")
	}
	if m.Dep.Mspecies != m.Mspecies || m.Dep.Mreactions != m.Mreactions {
		return &DimensionError{What: fmt.Sprintf("dependency graph is for %d species, %d reactions, want %d, %d",
			m.Dep.Mspecies, m.Dep.Mreactions, m.Mspecies, m.Mreactions)}
	}
	if len(m.Props) != m.Mreactions {
		return &DimensionError{What: fmt.Sprintf("%d propensity functions for %d reactions", len(m.Props), m.Mreactions)}
	}
	for r, fn := range m.Props {
		if fn == nil {
			return fmt.Errorf("model: propensity function %d is nil", r)
		}
	}
	if m.Mreactions == 0 && m.Diff == nil {
		return fmt.Errorf("model: no reactions and no diffusion channels")
	}
	return nil
}

// nchannels returns the diffusion channel count, zero for nil topology.
func (m *Model) nchannels() int {
	if m.Diff == nil {
		return 0
	}
	return m.Diff.Nchannels
}
