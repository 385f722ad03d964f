package rdme

// applyEvent applies the selected event's effect on the state and
// recomputes exactly the propensity-table entries the event invalidated.
// t is the clock value after the event, passed through to the propensity
// functions of the recomputed entries.
func applyEvent(m *Model, st *State, tab *IntensityTable, ev event, t float64) error {
	if ev.kind == reactionEvent {
		return applyReaction(m, st, tab, ev.cell, ev.index, t)
	}
	return applyDiffusion(m, st, tab, ev.index, t)
}

// applyReaction adds reaction r's stoichiometric column to the firing
// cell's counts, then refreshes the dependent reaction propensities in that
// cell and the outgoing diffusion channels of every species the reaction
// changed.
func applyReaction(m *Model, st *State, tab *IntensityTable, cell, r int, t float64) error {
	species, delta := m.Stoich.Col(r)
	row := st.CellCounts(cell)
	for k, s := range species {
		n := row[s] + delta[k]
		if n < 0 {
			// Roll back already-applied entries so the recorded state stays
			// the pre-event state.
			for j := 0; j < k; j++ {
				row[species[j]] -= delta[j]
			}
			return &NegativeCountError{Cell: cell, Species: s, Count: n, Time: t}
		}
		row[s] = n
	}

	for _, dep := range m.Dep.DependentOnReaction(r) {
		if err := tab.updateReaction(st, cell, dep, t); err != nil {
			return err
		}
	}
	refreshChannels(m, st, tab, cell, species)
	return nil
}

// applyDiffusion moves one molecule of the channel's species from its
// source cell to its destination cell, then refreshes the reactions
// depending on that species in both cells and the species' outgoing
// channels of both cells.
func applyDiffusion(m *Model, st *State, tab *IntensityTable, ch int, t float64) error {
	d := m.Diff
	sp, src, dst := d.Species[ch], d.From[ch], d.To[ch]

	if st.Counts[src*m.Mspecies+sp] == 0 {
		return &NegativeCountError{Cell: src, Species: sp, Count: -1, Time: t}
	}
	st.Counts[src*m.Mspecies+sp]--
	st.Counts[dst*m.Mspecies+sp]++

	single := [1]int{sp}
	for _, cell := range [2]int{src, dst} {
		for _, dep := range m.Dep.DependentOnSpecies(sp) {
			if err := tab.updateReaction(st, cell, dep, t); err != nil {
				return err
			}
		}
		refreshChannels(m, st, tab, cell, single[:])
	}
	return nil
}

// refreshChannels reevaluates the cell's outgoing diffusion channels whose
// species count just changed. Channel intensity is linear in the source
// count, so this set is exact.
func refreshChannels(m *Model, st *State, tab *IntensityTable, cell int, species []int) {
	if m.Diff == nil {
		return
	}
	for _, ch := range m.Diff.Outgoing(cell) {
		for _, s := range species {
			if m.Diff.Species[ch] == s {
				tab.updateChannel(st, ch)
				break
			}
		}
	}
}
