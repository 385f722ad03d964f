package rdme

import (
	"gonum.org/v1/gonum/floats"
)

// defaultResyncEvery is how many incremental sum updates are allowed before
// the per-cell sums and the grand total are recomputed exactly from the
// entry arrays. Entries themselves never drift (each update reevaluates
// from state), but the running sums accumulate rounding error; for long
// trajectories the periodic resync is a correctness requirement, not an
// optimization. Sums are also resynced at every recorded output frame.
const defaultResyncEvery = 10000

// IntensityTable maintains every reaction propensity and diffusion channel
// intensity of one realization, plus the per-cell sums and the grand total
// used for weighted event selection. Updates are incremental: after an
// event, only the entries invalidated by the dependency graph are
// reevaluated, and the sums are adjusted by the delta.
type IntensityTable struct {
	model *Model

	reac []float64 // cell*Mreactions + reaction
	diff []float64 // per channel, indexed like the topology

	cellSum []float64 // reactions of the cell plus its outgoing channels
	grand   float64

	updates     int
	resyncEvery int
	resyncs     uint64
}

// newIntensityTable evaluates every propensity and channel intensity at the
// given time and builds exact sums.
func newIntensityTable(m *Model, st *State, t float64, resyncEvery int) (*IntensityTable, error) {
	if resyncEvery <= 0 {
		resyncEvery = defaultResyncEvery
	}
	tab := &IntensityTable{
		model:       m,
		reac:        make([]float64, m.Ncells*m.Mreactions),
		diff:        make([]float64, m.nchannels()),
		cellSum:     make([]float64, m.Ncells),
		resyncEvery: resyncEvery,
	}
	if err := tab.evalAll(st, t); err != nil {
		return nil, err
	}
	return tab, nil
}

// evalAll recomputes every entry from state and rebuilds exact sums.
func (tab *IntensityTable) evalAll(st *State, t float64) error {
	m := tab.model
	for c := 0; c < m.Ncells; c++ {
		for r := 0; r < m.Mreactions; r++ {
			a, err := evalPropensity(m.Props[r], st, c, r, t)
			if err != nil {
				return err
			}
			tab.reac[c*m.Mreactions+r] = a
		}
	}
	if m.Diff != nil {
		for ch := 0; ch < m.Diff.Nchannels; ch++ {
			tab.diff[ch] = tab.channelIntensity(st, ch)
		}
	}
	tab.resum()
	return nil
}

// channelIntensity is the realized rate of one diffusion channel: the fixed
// coefficient times the current source-cell count of the channel's species.
func (tab *IntensityTable) channelIntensity(st *State, ch int) float64 {
	d := tab.model.Diff
	return d.Rate[ch] * float64(st.Count(d.From[ch], d.Species[ch]))
}

// updateReaction reevaluates one (cell, reaction) entry and adjusts sums.
func (tab *IntensityTable) updateReaction(st *State, cell, r int, t float64) error {
	m := tab.model
	a, err := evalPropensity(m.Props[r], st, cell, r, t)
	if err != nil {
		return err
	}
	i := cell*m.Mreactions + r
	delta := a - tab.reac[i]
	tab.reac[i] = a
	tab.bump(cell, delta)
	return nil
}

// updateChannel reevaluates one diffusion channel and adjusts sums.
func (tab *IntensityTable) updateChannel(st *State, ch int) {
	delta := tab.channelIntensity(st, ch) - tab.diff[ch]
	tab.diff[ch] += delta
	tab.bump(tab.model.Diff.From[ch], delta)
}

func (tab *IntensityTable) bump(cell int, delta float64) {
	tab.cellSum[cell] += delta
	tab.grand += delta
	tab.updates++
	if tab.updates >= tab.resyncEvery {
		tab.resum()
	}
}

// resum rebuilds the per-cell sums and the grand total exactly from the
// entry arrays, discarding accumulated floating-point drift.
func (tab *IntensityTable) resum() {
	m := tab.model
	for c := 0; c < m.Ncells; c++ {
		s := floats.Sum(tab.reac[c*m.Mreactions : (c+1)*m.Mreactions])
		if m.Diff != nil {
			for _, ch := range m.Diff.Outgoing(c) {
				s += tab.diff[ch]
			}
		}
		tab.cellSum[c] = s
	}
	tab.grand = floats.Sum(tab.cellSum)
	tab.updates = 0
	tab.resyncs++
}

// Grand returns the aggregate intensity across every cell and event.
func (tab *IntensityTable) Grand() float64 {
	return tab.grand
}

// Reaction returns the current propensity of one (cell, reaction) entry.
func (tab *IntensityTable) Reaction(cell, r int) float64 {
	return tab.reac[cell*tab.model.Mreactions+r]
}

// Channel returns the current intensity of one diffusion channel.
func (tab *IntensityTable) Channel(ch int) float64 {
	return tab.diff[ch]
}
