package rdme

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func decayModel(t *testing.T) (*Model, *State) {
	t.Helper()
	cfg := ModelConfig{
		Name:    "decay",
		Species: []SpeciesConfig{{Name: "X"}},
		Cells:   []CellConfig{{Volume: 1, Counts: map[string]int64{"X": 100}}},
		Reactions: []ReactionConfig{
			{ID: "decay", Rate: 1.0, Reactants: []string{"X"}},
		},
	}
	m, st, err := BuildModelFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m, st
}

func TestSimulate_DecayScenario(t *testing.T) {
	m, st := decayModel(t)
	times := []float64{0, 1, 5, 20}

	const replicates = 300
	sums := make([]float64, len(times))
	for seed := int64(0); seed < replicates; seed++ {
		traj, err := Simulate(context.Background(), m, st, times, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if traj.Recorded != len(times) {
			t.Fatalf("seed %d: recorded %d frames, want %d", seed, traj.Recorded, len(times))
		}
		// Counts are non-increasing and non-negative for pure decay.
		prev := int64(math.MaxInt64)
		for ti := range times {
			n := traj.At(0, 0, ti)
			if n < 0 {
				t.Fatalf("seed %d: negative count %d at frame %d", seed, n, ti)
			}
			if n > prev {
				t.Fatalf("seed %d: count grew from %d to %d at frame %d", seed, prev, n, ti)
			}
			prev = n
			sums[ti] += float64(n)
		}
	}

	// E[X(t)] = 100*exp(-t); standard error at t=1 is about 0.3 over 300
	// replicates, so a +-1.5 band is a comfortable 5 sigma.
	for ti, tm := range times {
		mean := sums[ti] / replicates
		want := 100 * math.Exp(-tm)
		tol := 1.5
		if tm >= 5 {
			tol = 0.5
		}
		if math.Abs(mean-want) > tol {
			t.Errorf("t=%g: ensemble mean %v, want %v +- %v", tm, mean, want, tol)
		}
	}
}

func TestSimulate_DeterministicForFixedSeed(t *testing.T) {
	m, st := reversibleTwoCellModel(t)
	times := []float64{0, 0.5, 1, 2, 4}

	a, err := Simulate(context.Background(), m, st, times, 1234)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Simulate(context.Background(), m, st, times, 1234)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Counts, b.Counts) {
		t.Error("identical seeds produced different trajectories")
	}

	c, err := Simulate(context.Background(), m, st, times, 4321)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a.Counts, c.Counts) {
		t.Error("different seeds produced identical trajectories (suspicious)")
	}
}

func TestSimulate_ConservationOnClosedTopology(t *testing.T) {
	// Reversible A<->B plus diffusion: total molecules never change.
	m, st := reversibleTwoCellModel(t)
	times := []float64{0, 1, 2, 5, 10}

	traj, err := Simulate(context.Background(), m, st, times, 7)
	if err != nil {
		t.Fatal(err)
	}
	for ti := range times {
		total := traj.TotalPerSpecies(ti)
		if total[0]+total[1] != 65 {
			t.Errorf("frame %d: total molecules %d, want 65", ti, total[0]+total[1])
		}
		for _, n := range traj.Frame(ti) {
			if n < 0 {
				t.Errorf("frame %d holds a negative count", ti)
			}
		}
	}
}

func TestSimulate_ZeroIntensityDegeneracy(t *testing.T) {
	cfg := ModelConfig{
		Name:    "frozen",
		Species: []SpeciesConfig{{Name: "A"}, {Name: "B"}},
		Cells: []CellConfig{
			{Volume: 1, Counts: map[string]int64{"A": 7}},
			{Volume: 1, Counts: map[string]int64{"B": 3}},
		},
		Reactions: []ReactionConfig{
			// Rate zero: the process is silent from t=0.
			{ID: "noop", Rate: 0, Reactants: []string{"A"}, Products: []string{"B"}},
		},
	}
	m, st, err := BuildModelFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	times := []float64{0, 10, 100, 1000}
	traj, err := Simulate(context.Background(), m, st, times, 99)
	if err != nil {
		t.Fatal(err)
	}
	for ti := range times {
		if traj.At(0, 0, ti) != 7 || traj.At(1, 1, ti) != 3 {
			t.Errorf("frame %d differs from the initial state", ti)
		}
	}
}

func TestSimulate_TwoCellDiffusionEquilibrates(t *testing.T) {
	cfg := ModelConfig{
		Name:    "equilibrate",
		Species: []SpeciesConfig{{Name: "X", Diffusion: 1.0}},
		Cells: []CellConfig{
			{Volume: 1, Counts: map[string]int64{"X": 1000}},
			{Volume: 1},
		},
		Edges: []EdgeConfig{
			{From: 0, To: 1, Weight: 1},
			{From: 1, To: 0, Weight: 1},
		},
	}
	m, st, err := BuildModelFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	times := []float64{0, 50}
	const replicates = 20
	var final0 []float64
	for seed := int64(0); seed < replicates; seed++ {
		traj, err := Simulate(context.Background(), m, st, times, 1000+seed)
		if err != nil {
			t.Fatal(err)
		}
		if traj.At(0, 0, 1)+traj.At(0, 1, 1) != 1000 {
			t.Fatal("diffusion lost molecules")
		}
		final0 = append(final0, float64(traj.At(0, 0, 1)))
	}
	// Equal volumes: expect a 50/50 split. Per-replicate sd is ~16, the
	// ensemble mean sd ~3.5, so a +-25 band is generous.
	mean := stat.Mean(final0, nil)
	if math.Abs(mean-500) > 25 {
		t.Errorf("mean cell-0 count %v, want 500 +- 25", mean)
	}
}

// failAfterDecay decays species 0 but turns invalid once the count drops
// below the threshold, to exercise the fatal model-input path mid-run.
type failAfterDecay struct {
	threshold int64
}

func (p failAfterDecay) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	if counts[0] < p.threshold {
		return math.NaN()
	}
	return float64(counts[0])
}

func TestSimulate_FatalPropensityKeepsEarlierFrames(t *testing.T) {
	stoich, err := NewStoichMatrix(1, 1, []int{0}, []int{0, 1}, []int64{-1})
	if err != nil {
		t.Fatal(err)
	}
	dep, err := NewDepGraph(1, 1, []int{0, 0}, []int{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	m := &Model{
		Ncells: 1, Mspecies: 1, Mreactions: 1,
		Stoich: stoich, Dep: dep,
		Props: []PropensityFunc{failAfterDecay{threshold: 50}},
	}
	st, err := NewState(1, 1, []int64{100}, []float64{1}, []int{0}, nil, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The fault hits around t~ln(2), well after the first frames.
	times := []float64{0, 0.01, 0.02, 10, 20}
	traj, err := Simulate(context.Background(), m, st, times, 5)
	var badErr *BadPropensityError
	if !errors.As(err, &badErr) {
		t.Fatalf("error = %v, want BadPropensityError", err)
	}
	if traj == nil {
		t.Fatal("partial trajectory not returned")
	}
	if traj.Recorded < 1 || traj.Recorded >= len(times) {
		t.Fatalf("recorded %d frames, want partial coverage", traj.Recorded)
	}
	if traj.At(0, 0, 0) != 100 {
		t.Errorf("initial frame = %d, want 100", traj.At(0, 0, 0))
	}
}

func TestSimulate_OutputTimesMatchRequested(t *testing.T) {
	m, st := decayModel(t)
	times := []float64{0, 0.25, 1.5, 3}
	traj, err := Simulate(context.Background(), m, st, times, 11)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(traj.Times, times) {
		t.Errorf("trajectory times %v, want %v", traj.Times, times)
	}
}

func TestSimulate_CancellationBetweenIterations(t *testing.T) {
	// A birth-death chain that never goes silent, so only cancellation can
	// stop it before the horizon.
	cfg := ModelConfig{
		Name:    "busy",
		Species: []SpeciesConfig{{Name: "X"}},
		Cells:   []CellConfig{{Volume: 1, Counts: map[string]int64{"X": 100}}},
		Reactions: []ReactionConfig{
			{ID: "birth", Rate: 100, Products: []string{"X"}},
			{ID: "death", Rate: 1, Reactants: []string{"X"}},
		},
	}
	m, st, err := BuildModelFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Simulate(ctx, m, st, []float64{0, 1e9}, 3)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSimulate_LeavesCallerStateUntouched(t *testing.T) {
	m, st := decayModel(t)
	if _, err := Simulate(context.Background(), m, st, []float64{0, 5}, 1); err != nil {
		t.Fatal(err)
	}
	if st.Count(0, 0) != 100 {
		t.Errorf("caller's initial state mutated to %d", st.Count(0, 0))
	}
}
