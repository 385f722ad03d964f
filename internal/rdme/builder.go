package rdme

import (
	"fmt"
	"sort"
)

// BuildModelFromConfig turns a validated model description into the solver
// inputs: the sparse stoichiometry matrix, the dependency graph derived from
// the reactions' reactant sets, the diffusion topology expanded from the
// mesh edges, the mass-action propensity table, and the initial state.
func BuildModelFromConfig(cfg ModelConfig) (*Model, *State, error) {
	if err := ValidateModelConfig(cfg); err != nil {
		return nil, nil, err
	}

	mspecies := len(cfg.Species)
	ncells := len(cfg.Cells)
	mreactions := len(cfg.Reactions)

	speciesIdx := make(map[string]int, mspecies)
	for i, sp := range cfg.Species {
		speciesIdx[sp.Name] = i
	}

	stoich, changed, err := buildStoich(cfg, speciesIdx)
	if err != nil {
		return nil, nil, err
	}
	props, reads := buildPropensities(cfg, speciesIdx)
	dep, err := buildDepGraph(mspecies, reads, changed)
	if err != nil {
		return nil, nil, err
	}
	diff, err := buildDiffusion(cfg, ncells, mspecies)
	if err != nil {
		return nil, nil, err
	}

	m := &Model{
		Ncells:     ncells,
		Mspecies:   mspecies,
		Mreactions: mreactions,
		Stoich:     stoich,
		Dep:        dep,
		Diff:       diff,
		Props:      props,
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	st, err := buildState(cfg, speciesIdx)
	if err != nil {
		return nil, nil, err
	}
	return m, st, nil
}

// buildStoich assembles the CSC stoichiometry matrix (products minus
// reactants per column) and returns, per reaction, the species it changes.
func buildStoich(cfg ModelConfig, speciesIdx map[string]int) (*StoichMatrix, [][]int, error) {
	mspecies := len(cfg.Species)
	mreactions := len(cfg.Reactions)

	rowIdx := make([]int, 0, 2*mreactions)
	val := make([]int64, 0, 2*mreactions)
	colPtr := make([]int, mreactions+1)
	changed := make([][]int, mreactions)

	delta := make([]int64, mspecies)
	for r, rc := range cfg.Reactions {
		for i := range delta {
			delta[i] = 0
		}
		for _, name := range rc.Reactants {
			delta[speciesIdx[name]]--
		}
		for _, name := range rc.Products {
			delta[speciesIdx[name]]++
		}
		for s, d := range delta {
			if d != 0 {
				rowIdx = append(rowIdx, s)
				val = append(val, d)
				changed[r] = append(changed[r], s)
			}
		}
		colPtr[r+1] = len(rowIdx)
	}

	stoich, err := NewStoichMatrix(mspecies, mreactions, rowIdx, colPtr, val)
	if err != nil {
		return nil, nil, err
	}
	return stoich, changed, nil
}

// buildPropensities creates one mass-action propensity per reaction and
// returns, per reaction, the species its propensity reads.
func buildPropensities(cfg ModelConfig, speciesIdx map[string]int) ([]PropensityFunc, [][]int) {
	props := make([]PropensityFunc, len(cfg.Reactions))
	reads := make([][]int, len(cfg.Reactions))

	for r, rc := range cfg.Reactions {
		var fn PropensityFunc
		switch len(rc.Reactants) {
		case 0:
			fn = ConstantRate{K: rc.Rate}
		case 1:
			s := speciesIdx[rc.Reactants[0]]
			fn = UnaryRate{K: rc.Rate, Species: s}
			reads[r] = []int{s}
		default:
			a := speciesIdx[rc.Reactants[0]]
			b := speciesIdx[rc.Reactants[1]]
			if a == b {
				fn = DimerRate{K: rc.Rate, Species: a}
				reads[r] = []int{a}
			} else {
				fn = BinaryRate{K: rc.Rate, A: a, B: b}
				reads[r] = []int{a, b}
			}
		}
		if len(rc.Subdomains) > 0 {
			fn = SubdomainRestricted{Fn: fn, Allowed: rc.Subdomains}
		}
		props[r] = fn
	}
	return props, reads
}

// buildDepGraph derives the sparse dependency pattern: column s lists the
// reactions reading species s; column Mspecies+r lists the reactions whose
// read set intersects the species reaction r changes.
func buildDepGraph(mspecies int, reads, changed [][]int) (*DepGraph, error) {
	mreactions := len(reads)

	bySpecies := make([][]int, mspecies)
	for r, rs := range reads {
		for _, s := range rs {
			bySpecies[s] = append(bySpecies[s], r)
		}
	}

	rowIdx := make([]int, 0, 4*mreactions)
	colPtr := make([]int, mspecies+mreactions+1)
	for s := 0; s < mspecies; s++ {
		rowIdx = append(rowIdx, bySpecies[s]...)
		colPtr[s+1] = len(rowIdx)
	}
	for r := 0; r < mreactions; r++ {
		deps := make(map[int]bool)
		for _, s := range changed[r] {
			for _, dep := range bySpecies[s] {
				deps[dep] = true
			}
		}
		col := make([]int, 0, len(deps))
		for dep := range deps {
			col = append(col, dep)
		}
		sort.Ints(col)
		rowIdx = append(rowIdx, col...)
		colPtr[mspecies+r+1] = len(rowIdx)
	}

	return NewDepGraph(mspecies, mreactions, rowIdx, colPtr)
}

// buildDiffusion expands (species, edge) pairs into jump channels, species
// in declaration order outermost, edges in declaration order within.
func buildDiffusion(cfg ModelConfig, ncells, mspecies int) (*Diffusion, error) {
	var rate []float64
	var species, from, to []int
	for s, sp := range cfg.Species {
		if sp.Diffusion <= 0 {
			continue
		}
		for _, edge := range cfg.Edges {
			rate = append(rate, sp.Diffusion*edge.Weight)
			species = append(species, s)
			from = append(from, edge.From)
			to = append(to, edge.To)
		}
	}
	return NewDiffusion(ncells, mspecies, rate, species, from, to)
}

// buildState assembles the initial per-cell state from the cell configs.
func buildState(cfg ModelConfig, speciesIdx map[string]int) (*State, error) {
	ncells := len(cfg.Cells)
	mspecies := len(cfg.Species)
	dsize := len(cfg.Cells[0].Ldata)

	counts := make([]int64, ncells*mspecies)
	vol := make([]float64, ncells)
	subdomain := make([]int, ncells)
	ldata := make([]float64, 0, ncells*dsize)

	for c, cell := range cfg.Cells {
		vol[c] = cell.Volume
		subdomain[c] = cell.Subdomain
		ldata = append(ldata, cell.Ldata...)
		for name, n := range cell.Counts {
			s, ok := speciesIdx[name]
			if !ok {
				return nil, fmt.Errorf("cell %d: unknown species '%s'", c, name)
			}
			counts[c*mspecies+s] = n
		}
	}
	return NewState(ncells, mspecies, counts, vol, subdomain, ldata, dsize, cfg.Gdata)
}
