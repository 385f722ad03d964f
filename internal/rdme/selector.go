package rdme

import "math"

// eventKind distinguishes the two event families of the jump chain.
type eventKind int

const (
	reactionEvent eventKind = iota
	diffusionEvent
)

// event identifies one firing: which cell, which family, and the reaction
// index (reactionEvent) or global channel index (diffusionEvent).
type event struct {
	cell  int
	kind  eventKind
	index int
}

// nextEvent draws the waiting time to the next event and selects which event
// fires, per Gillespie's direct method. It consumes exactly two uniforms
// from rng in a fixed order: the waiting-time draw first, the selection draw
// second. Reproducibility of whole trajectories rests on this order.
//
// The waiting time is tau = -ln(1-u)/total, mapping u in [0,1) onto a finite
// exponential variate. The selection draw is scaled by the grand total and
// resolved by scanning cells in index order, then within the chosen cell
// the reactions [0, Mreactions) followed by the cell's outgoing diffusion
// channels in topology order; the firing entry is the first entry with
// positive intensity whose cumulative sum is >= the scaled draw. Entries
// with zero intensity are never selected.
//
// ok is false when the grand total is zero: the process is silent forever.
// A zero-total step consumes no randomness.
func nextEvent(tab *IntensityTable, rng func() float64) (tau float64, ev event, ok bool) {
	if tab.grand <= 0 {
		return 0, event{}, false
	}
	u1 := rng()
	u2 := rng()

	// If the incremental sums have drifted so far that the scan cannot land
	// on a positive entry, resync them exactly and scan again. A second
	// failure means the total is genuinely zero.
	for attempt := 0; attempt < 2; attempt++ {
		total := tab.grand
		if total <= 0 {
			return 0, event{}, false
		}
		if ev, hit := scanEvents(tab, u2*total); hit {
			return -math.Log1p(-u1) / total, ev, true
		}
		tab.resum()
	}
	return 0, event{}, false
}

// scanEvents walks the per-cell sums and then the chosen cell's entries,
// returning the first positive entry whose cumulative intensity reaches the
// target. hit is false when rounding leaves every positive entry short.
func scanEvents(tab *IntensityTable, target float64) (ev event, hit bool) {
	m := tab.model
	cum := 0.0
	lastCell := -1
	for c := 0; c < m.Ncells; c++ {
		s := tab.cellSum[c]
		if s <= 0 {
			continue
		}
		lastCell = c
		cum += s
		if cum >= target {
			if ev, hit = scanCell(tab, c, target-(cum-s)); hit {
				return ev, true
			}
			// The cell's own entries fell short of its recorded sum; treat
			// the remainder as belonging to a later cell.
		}
	}
	if lastCell < 0 {
		return event{}, false
	}
	// The cumulative total came up a hair short of the draw: the last cell
	// with any intensity owns the tail.
	return scanCell(tab, lastCell, tab.cellSum[lastCell])
}

// scanCell resolves the selection within one cell, target already reduced to
// the cell-local remainder. The last positive entry absorbs any rounding
// shortfall.
func scanCell(tab *IntensityTable, cell int, target float64) (ev event, hit bool) {
	m := tab.model
	cum := 0.0
	last := event{index: -1}

	base := cell * m.Mreactions
	for r := 0; r < m.Mreactions; r++ {
		a := tab.reac[base+r]
		if a <= 0 {
			continue
		}
		last = event{cell: cell, kind: reactionEvent, index: r}
		cum += a
		if cum >= target {
			return last, true
		}
	}
	if m.Diff != nil {
		for _, ch := range m.Diff.Outgoing(cell) {
			a := tab.diff[ch]
			if a <= 0 {
				continue
			}
			last = event{cell: cell, kind: diffusionEvent, index: ch}
			cum += a
			if cum >= target {
				return last, true
			}
		}
	}
	if last.index < 0 {
		return event{}, false
	}
	return last, true
}
