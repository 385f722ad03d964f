package rdme

import "fmt"

// recorder copies state snapshots into the trajectory at the caller's
// output times. Snapshots are pre-event: when the clock jumps past one or
// more pending output times, each of them receives the state that was valid
// up to (but not including) the new clock value.
type recorder struct {
	traj *Trajectory
	next int // next unconsumed output index
}

func newRecorder(mspecies, ncells int, times []float64) (*recorder, error) {
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("output times must be strictly increasing, got %g after %g", times[i], times[i-1])
		}
	}
	traj, err := newTrajectory(mspecies, ncells, times)
	if err != nil {
		return nil, err
	}
	return &recorder{traj: traj}, nil
}

// recordInitial snapshots the initial state at the first output time, which
// by contract equals the simulation start.
func (rc *recorder) recordInitial(st *State) {
	rc.snapshot(st)
}

// advanceTo records st (the pre-event state) for every pending output time
// the clock has reached or passed, in increasing time order. Zero, one or
// many output times may fall inside a single inter-event interval.
func (rc *recorder) advanceTo(clock float64, st *State) {
	for rc.next < len(rc.traj.Times) && rc.traj.Times[rc.next] <= clock {
		rc.snapshot(st)
	}
}

// drain fills every remaining output time with st, used when the process
// goes silent or the last event overshoots the horizon.
func (rc *recorder) drain(st *State) {
	for rc.next < len(rc.traj.Times) {
		rc.snapshot(st)
	}
}

func (rc *recorder) snapshot(st *State) {
	copy(rc.traj.Frame(rc.next), st.Counts)
	rc.next++
	rc.traj.Recorded = rc.next
}

// done reports whether every requested output time has been recorded.
func (rc *recorder) done() bool {
	return rc.next >= len(rc.traj.Times)
}
