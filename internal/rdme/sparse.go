package rdme

import "fmt"

// StoichMatrix is the stoichiometry matrix in compressed sparse column form:
// Mspecies rows, Mreactions columns. Column r holds the signed change each
// species undergoes when reaction r fires. The three flat arrays (values,
// row indices, column offsets) are the layout the inner loop indexes
// directly; the matrix is immutable after construction and safe to share
// across realizations.
type StoichMatrix struct {
	Rows   int
	Cols   int
	RowIdx []int
	ColPtr []int
	Val    []int64
}

// NewStoichMatrix validates the CSC arrays and wraps them. The arrays are
// retained, not copied.
func NewStoichMatrix(rows, cols int, rowIdx, colPtr []int, val []int64) (*StoichMatrix, error) {
	if rows <= 0 || cols < 0 {
		return nil, &DimensionError{What: fmt.Sprintf("stoichiometry %dx%d", rows, cols)}
	}
	if err := checkCSC("stoichiometry", rows, cols, rowIdx, colPtr); err != nil {
		return nil, err
	}
	if len(val) != len(rowIdx) {
		return nil, fmt.Errorf("stoichiometry: %d values for %d entries", len(val), len(rowIdx))
	}
	return &StoichMatrix{Rows: rows, Cols: cols, RowIdx: rowIdx, ColPtr: colPtr, Val: val}, nil
}

// Col returns the species indices and deltas of column r as subslices of the
// backing arrays. Callers must not modify them.
func (m *StoichMatrix) Col(r int) (species []int, delta []int64) {
	lo, hi := m.ColPtr[r], m.ColPtr[r+1]
	return m.RowIdx[lo:hi], m.Val[lo:hi]
}

// DepGraph is the sparse dependency pattern in compressed sparse column
// form. Rows are reaction indices; the first Mspecies columns list the reactions
// whose propensity depends on that species' count (consulted when a
// diffusion jump changes the count), and the following Mreactions columns
// list the reactions to recompute after that reaction fires.
type DepGraph struct {
	Mspecies   int
	Mreactions int
	RowIdx     []int
	ColPtr     []int
}

// NewDepGraph validates the CSC pattern arrays and wraps them.
func NewDepGraph(mspecies, mreactions int, rowIdx, colPtr []int) (*DepGraph, error) {
	if mspecies <= 0 || mreactions < 0 {
		return nil, &DimensionError{What: fmt.Sprintf("dependency graph for %d species, %d reactions", mspecies, mreactions)}
	}
	if err := checkCSC("dependency graph", mreactions, mspecies+mreactions, rowIdx, colPtr); err != nil {
		return nil, err
	}
	return &DepGraph{Mspecies: mspecies, Mreactions: mreactions, RowIdx: rowIdx, ColPtr: colPtr}, nil
}

// DependentOnSpecies returns the reactions whose propensity reads species s.
func (g *DepGraph) DependentOnSpecies(s int) []int {
	return g.RowIdx[g.ColPtr[s]:g.ColPtr[s+1]]
}

// DependentOnReaction returns the reactions to recompute after r fires.
func (g *DepGraph) DependentOnReaction(r int) []int {
	c := g.Mspecies + r
	return g.RowIdx[g.ColPtr[c]:g.ColPtr[c+1]]
}

// Diffusion is the diffusion topology: a fixed set of channels, each a
// potential single-molecule jump of one species from a source cell to a
// neighboring cell at a fixed rate coefficient. The realized intensity of a
// channel is rate times the current count of its species in the source
// cell. Channels are additionally indexed by source cell in compressed
// column form so the selector and the staleness pass can walk a cell's
// outgoing channels without scanning all of them.
type Diffusion struct {
	Nchannels int
	Rate      []float64
	Species   []int
	From      []int
	To        []int

	cellPtr  []int // len Ncells+1
	cellChan []int // channel indices grouped by source cell, creation order kept
}

// NewDiffusion validates the channel arrays and builds the per-cell index.
// A nil return with a nil error is used for models without diffusion.
func NewDiffusion(ncells, mspecies int, rate []float64, species, from, to []int) (*Diffusion, error) {
	n := len(rate)
	if len(species) != n || len(from) != n || len(to) != n {
		return nil, &DimensionError{What: "diffusion channel arrays differ in length"}
	}
	if n == 0 {
		return nil, nil
	}
	for c := 0; c < n; c++ {
		if rate[c] < 0 {
			return nil, fmt.Errorf("diffusion channel %d: negative rate %v", c, rate[c])
		}
		if species[c] < 0 || species[c] >= mspecies {
			return nil, fmt.Errorf("diffusion channel %d: species %d out of range", c, species[c])
		}
		if from[c] < 0 || from[c] >= ncells || to[c] < 0 || to[c] >= ncells {
			return nil, fmt.Errorf("diffusion channel %d: cells %d->%d out of range", c, from[c], to[c])
		}
		if from[c] == to[c] {
			return nil, fmt.Errorf("diffusion channel %d: source and destination are both cell %d", c, from[c])
		}
	}

	d := &Diffusion{
		Nchannels: n,
		Rate:      rate,
		Species:   species,
		From:      from,
		To:        to,
		cellPtr:   make([]int, ncells+1),
		cellChan:  make([]int, n),
	}
	// Counting sort by source cell, stable in channel index.
	for _, c := range from {
		d.cellPtr[c+1]++
	}
	for i := 0; i < ncells; i++ {
		d.cellPtr[i+1] += d.cellPtr[i]
	}
	fill := make([]int, ncells)
	for ch, c := range from {
		d.cellChan[d.cellPtr[c]+fill[c]] = ch
		fill[c]++
	}
	return d, nil
}

// Outgoing returns the channels whose source is the given cell, in channel
// creation order. The slice aliases the internal index; do not modify.
func (d *Diffusion) Outgoing(cell int) []int {
	return d.cellChan[d.cellPtr[cell]:d.cellPtr[cell+1]]
}

// checkCSC validates a compressed-sparse-column offset/index pair.
func checkCSC(what string, rows, cols int, rowIdx, colPtr []int) error {
	if len(colPtr) != cols+1 {
		return fmt.Errorf("%s: column offsets length %d, want %d", what, len(colPtr), cols+1)
	}
	if colPtr[0] != 0 {
		return fmt.Errorf("%s: column offsets must start at 0", what)
	}
	for j := 0; j < cols; j++ {
		if colPtr[j+1] < colPtr[j] {
			return fmt.Errorf("%s: column offsets decrease at column %d", what, j)
		}
	}
	if colPtr[cols] != len(rowIdx) {
		return fmt.Errorf("%s: column offsets end at %d, want %d entries", what, colPtr[cols], len(rowIdx))
	}
	for k, r := range rowIdx {
		if r < 0 || r >= rows {
			return fmt.Errorf("%s: row index %d at entry %d out of range", what, r, k)
		}
	}
	return nil
}
