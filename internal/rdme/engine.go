package rdme

import (
	"context"
	"fmt"
	"math/rand"
)

// phase is the driver loop's state machine position.
type phase int

const (
	phaseInitializing phase = iota
	phaseRunning
	phaseDraining
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseInitializing:
		return "initializing"
	case phaseRunning:
		return "running"
	case phaseDraining:
		return "draining"
	case phaseDone:
		return "done"
	case phaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress describes one recorded output frame of a running realization.
type Progress struct {
	FrameIndex int
	Time       float64
	Events     uint64
}

// ProgressFunc is called after output frames are recorded. It must not
// block the hot loop for long; it runs on the simulating goroutine.
type ProgressFunc func(Progress)

type options struct {
	logger      Logger
	reportLevel int
	progress    ProgressFunc
	resyncEvery int
}

// Option configures a realization.
type Option func(*options)

// WithLogger injects the logger used for progress and diagnostics.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithReportLevel sets the verbosity: 0 silent, 1 frame progress, 2 adds
// per-realization diagnostics. Reporting never alters simulation semantics
// or random-number consumption.
func WithReportLevel(level int) Option {
	return func(o *options) { o.reportLevel = level }
}

// WithProgress registers a callback invoked as output frames are recorded.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithResyncEvery overrides the incremental-sum resync cadence.
func WithResyncEvery(n int) Option {
	return func(o *options) { o.resyncEvery = n }
}

// cancelCheckEvery bounds how many events run between context checks. The
// check sits between loop iterations, never inside the select-mutate-record
// sequence, so cancellation can never leave a half-applied event.
const cancelCheckEvery = 4096

// Simulate runs one realization of the model from the given initial state
// over the requested output times (strictly increasing, first element the
// simulation start) and returns the recorded trajectory.
//
// The initial state is cloned; the caller's copy is untouched. The model is
// read-only and may be shared with concurrent Simulate calls. Each seed
// defines an independent random stream; identical seed, model and initial
// state reproduce the trajectory bit for bit.
//
// On a fatal fault the partially recorded trajectory is returned together
// with the error: frames recorded before the fault remain valid (see
// Trajectory.Recorded), later frames stay zero.
func Simulate(ctx context.Context, m *Model, init *State, times []float64, seed int64, opts ...Option) (*Trajectory, error) {
	o := options{logger: NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if init.Ncells != m.Ncells || init.Mspecies != m.Mspecies {
		return nil, &DimensionError{What: fmt.Sprintf("state is %d cells x %d species, model wants %d x %d",
			init.Ncells, init.Mspecies, m.Ncells, m.Mspecies)}
	}

	ph := phaseInitializing
	rec, err := newRecorder(m.Mspecies, m.Ncells, times)
	if err != nil {
		return nil, err
	}
	st := init.Clone()

	rng := rand.New(rand.NewSource(seed))
	random := rng.Float64

	tab, err := newIntensityTable(m, st, times[0], o.resyncEvery)
	if err != nil {
		return rec.traj, fmt.Errorf("initial propensity evaluation: %w", err)
	}
	rec.recordInitial(st)
	ph = phaseRunning

	clock := times[0]
	horizon := times[len(times)-1]
	var events uint64
	reportFrames(&o, rec, 0, 0)
	lastFrame := rec.next

	for ph == phaseRunning {
		if events%cancelCheckEvery == 0 && ctx.Err() != nil {
			return rec.traj, fmt.Errorf("realization interrupted at t=%g: %w", clock, ctx.Err())
		}

		tau, ev, ok := nextEvent(tab, random)
		if !ok {
			// Silent forever: jump the clock to the horizon and flush the
			// remaining frames with the final state.
			ph = phaseDraining
			clock = horizon
			rec.drain(st)
			reportFrames(&o, rec, events, lastFrame)
			break
		}
		clock += tau

		rec.advanceTo(clock, st)
		if rec.next > lastFrame {
			tab.resum()
			reportFrames(&o, rec, events, lastFrame)
			lastFrame = rec.next
		}
		if rec.done() {
			break
		}

		if err := applyEvent(m, st, tab, ev, clock); err != nil {
			ph = phaseFailed
			o.logger.Errorf("realization failed at t=%g after %d events: %v", clock, events, err)
			return rec.traj, fmt.Errorf("at t=%g after %d events: %w", clock, events, err)
		}
		events++
	}
	ph = phaseDone

	if o.reportLevel >= 2 {
		o.logger.Debugf("realization %s: %d events, %d sum resyncs, final t=%g",
			ph, events, tab.resyncs, clock)
	}
	return rec.traj, nil
}

// reportFrames emits progress for the frames recorded by the last event.
func reportFrames(o *options, rec *recorder, events uint64, from int) {
	for i := from; i < rec.next; i++ {
		if o.reportLevel >= 1 {
			o.logger.Infof("%3.0f%% done, t=%g, %d events",
				100*float64(i+1)/float64(len(rec.traj.Times)), rec.traj.Times[i], events)
		}
		if o.progress != nil {
			o.progress(Progress{FrameIndex: i, Time: rec.traj.Times[i], Events: events})
		}
	}
}
