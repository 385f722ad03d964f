package rdme

import "fmt"

// State holds the mutable per-cell data of one realization: the molecule
// count table plus the fixed bookkeeping the propensity functions read
// (volumes, subdomain labels, local and global parameter blocks). Counts are
// stored cell-major, so a cell's species vector is one contiguous slice.
type State struct {
	Ncells   int
	Mspecies int
	Counts   []int64 // cell*Mspecies + species

	Vol       []float64 // per cell, positive
	Subdomain []int     // per cell
	Ldata     []float64 // per cell, Dsize entries each; may be empty
	Dsize     int
	Gdata     []float64 // shared global parameter block
}

// NewState validates dimensions and wraps the given arrays. Counts are
// copied so the caller's initial-condition slice stays untouched; the
// read-only blocks (volumes, parameters, labels) are retained by reference.
func NewState(ncells, mspecies int, counts []int64, vol []float64, subdomain []int, ldata []float64, dsize int, gdata []float64) (*State, error) {
	if ncells <= 0 || mspecies <= 0 {
		return nil, &DimensionError{What: fmt.Sprintf("%d cells, %d species", ncells, mspecies)}
	}
	if len(counts) != ncells*mspecies {
		return nil, &DimensionError{What: fmt.Sprintf("%d initial counts for %d cells x %d species", len(counts), ncells, mspecies)}
	}
	if len(vol) != ncells {
		return nil, &DimensionError{What: fmt.Sprintf("%d volumes for %d cells", len(vol), ncells)}
	}
	if len(subdomain) != ncells {
		return nil, &DimensionError{What: fmt.Sprintf("%d subdomain labels for %d cells", len(subdomain), ncells)}
	}
	if dsize < 0 || len(ldata) != ncells*dsize {
		return nil, &DimensionError{What: fmt.Sprintf("%d local parameters for %d cells x %d", len(ldata), ncells, dsize)}
	}
	for c, v := range vol {
		if v <= 0 {
			return nil, fmt.Errorf("cell %d: volume must be positive, got %v", c, v)
		}
	}
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("initial count at index %d is negative (%d)", i, n)
		}
	}
	s := &State{
		Ncells:    ncells,
		Mspecies:  mspecies,
		Counts:    make([]int64, len(counts)),
		Vol:       vol,
		Subdomain: subdomain,
		Ldata:     ldata,
		Dsize:     dsize,
		Gdata:     gdata,
	}
	copy(s.Counts, counts)
	return s, nil
}

// Count returns the current count of a species in a cell.
func (s *State) Count(cell, species int) int64 {
	return s.Counts[cell*s.Mspecies+species]
}

// CellCounts returns the species vector of one cell as a subslice of the
// count table. Callers must not hold it across mutations.
func (s *State) CellCounts(cell int) []int64 {
	lo := cell * s.Mspecies
	return s.Counts[lo : lo+s.Mspecies]
}

// CellLdata returns the local parameter block of one cell.
func (s *State) CellLdata(cell int) []float64 {
	if s.Dsize == 0 {
		return nil
	}
	lo := cell * s.Dsize
	return s.Ldata[lo : lo+s.Dsize]
}

// Clone makes an independently mutable copy of the state. The read-only
// blocks are shared; only the count table is duplicated.
func (s *State) Clone() *State {
	out := *s
	out.Counts = make([]int64, len(s.Counts))
	copy(out.Counts, s.Counts)
	return &out
}

// TotalPerSpecies sums every species across all cells, used by conservation
// checks on closed topologies.
func (s *State) TotalPerSpecies() []int64 {
	total := make([]int64, s.Mspecies)
	for c := 0; c < s.Ncells; c++ {
		row := s.CellCounts(c)
		for sp, n := range row {
			total[sp] += n
		}
	}
	return total
}
