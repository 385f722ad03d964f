package rdme

import (
	"fmt"
	"math"
)

// Trajectory is the output buffer of one realization: a species-count
// snapshot for every requested output time. Frames are stored flat,
// time-major, and addressed through At with the (species, cell, time index)
// convention. Only the Recorder writes frames; everything else reads.
type Trajectory struct {
	Mspecies int       `json:"mspecies"`
	Ncells   int       `json:"ncells"`
	Times    []float64 `json:"times"`
	Counts   []int64   `json:"counts"` // ti*Ncells*Mspecies + cell*Mspecies + species

	// Recorded counts the valid leading frames. It equals len(Times) after a
	// completed run; after a fatal fault the remaining frames stay zero.
	Recorded int `json:"recorded"`
}

// newTrajectory allocates the output buffer, guarding the dimensions before
// the allocation is attempted.
func newTrajectory(mspecies, ncells int, times []float64) (*Trajectory, error) {
	if len(times) == 0 {
		return nil, &DimensionError{What: "no output times requested"}
	}
	frame := mspecies * ncells
	if frame <= 0 || frame > math.MaxInt/len(times) {
		return nil, &DimensionError{What: fmt.Sprintf("output buffer %d species x %d cells x %d times", mspecies, ncells, len(times))}
	}
	t := make([]float64, len(times))
	copy(t, times)
	return &Trajectory{
		Mspecies: mspecies,
		Ncells:   ncells,
		Times:    t,
		Counts:   make([]int64, frame*len(times)),
	}, nil
}

// At returns the recorded count of a species in a cell at an output index.
func (tr *Trajectory) At(species, cell, ti int) int64 {
	return tr.Counts[(ti*tr.Ncells+cell)*tr.Mspecies+species]
}

// Frame returns the snapshot at one output index as a subslice, cell-major
// like State.Counts.
func (tr *Trajectory) Frame(ti int) []int64 {
	n := tr.Ncells * tr.Mspecies
	return tr.Counts[ti*n : (ti+1)*n]
}

// TotalPerSpecies sums a frame's counts per species across all cells.
func (tr *Trajectory) TotalPerSpecies(ti int) []int64 {
	total := make([]int64, tr.Mspecies)
	frame := tr.Frame(ti)
	for i, n := range frame {
		total[i%tr.Mspecies] += n
	}
	return total
}
