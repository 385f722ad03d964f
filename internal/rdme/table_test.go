package rdme

import (
	"math"
	"math/rand"
	"testing"
)

// reversibleTwoCellModel is the small hand-built topology used by the
// incremental-vs-exact checks: 2 cells, 2 species, a reversible reaction
// A <-> B and diffusion of both species between the cells.
func reversibleTwoCellModel(t *testing.T) (*Model, *State) {
	t.Helper()
	cfg := ModelConfig{
		Name: "reversible",
		Species: []SpeciesConfig{
			{Name: "A", Diffusion: 0.5},
			{Name: "B", Diffusion: 0.25},
		},
		Cells: []CellConfig{
			{Volume: 1, Counts: map[string]int64{"A": 50, "B": 10}},
			{Volume: 2, Counts: map[string]int64{"A": 5}},
		},
		Reactions: []ReactionConfig{
			{ID: "fwd", Rate: 1.0, Reactants: []string{"A"}, Products: []string{"B"}},
			{ID: "rev", Rate: 0.5, Reactants: []string{"B"}, Products: []string{"A"}},
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
	return m, st
}

func TestIntensityTable_InitialEvaluation(t *testing.T) {
	m, st := reversibleTwoCellModel(t)
	tab, err := newIntensityTable(m, st, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Cell 0: fwd = 1.0*50, rev = 0.5*10
	if got := tab.Reaction(0, 0); got != 50 {
		t.Errorf("propensity(0, fwd) = %v, want 50", got)
	}
	if got := tab.Reaction(0, 1); got != 5 {
		t.Errorf("propensity(0, rev) = %v, want 5", got)
	}
	// Cell 1: fwd = 1.0*5, rev = 0
	if got := tab.Reaction(1, 0); got != 5 {
		t.Errorf("propensity(1, fwd) = %v, want 5", got)
	}

	// Diffusion: A channels rate 0.5, B channels rate 0.25.
	// Channel order: species A on edges (0->1, 1->0), then species B.
	if got := tab.Channel(0); got != 0.5*50 {
		t.Errorf("channel 0 intensity = %v, want 25", got)
	}
	if got := tab.Channel(1); got != 0.5*5 {
		t.Errorf("channel 1 intensity = %v, want 2.5", got)
	}
	if got := tab.Channel(2); got != 0.25*10 {
		t.Errorf("channel 2 intensity = %v, want 2.5", got)
	}

	wantGrand := 50.0 + 5 + 5 + 0 + 25 + 2.5 + 2.5 + 0
	if math.Abs(tab.Grand()-wantGrand) > 1e-12 {
		t.Errorf("grand total = %v, want %v", tab.Grand(), wantGrand)
	}
}

// TestIntensityTable_IncrementalMatchesScratch drives the jump chain for
// many events and after every one compares the incrementally maintained
// table against a table rebuilt from scratch. This pins down the
// completeness of the dependency handling: any missing stale entry shows up
// as a mismatch.
func TestIntensityTable_IncrementalMatchesScratch(t *testing.T) {
	m, st := reversibleTwoCellModel(t)
	tab, err := newIntensityTable(m, st, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(42))
	clock := 0.0
	for step := 0; step < 2000; step++ {
		tau, ev, ok := nextEvent(tab, rng.Float64)
		if !ok {
			t.Fatalf("process went silent at step %d", step)
		}
		clock += tau
		if err := applyEvent(m, st, tab, ev, clock); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		fresh, err := newIntensityTable(m, st, clock, 0)
		if err != nil {
			t.Fatalf("step %d: fresh evaluation: %v", step, err)
		}
		for i := range tab.reac {
			if math.Abs(tab.reac[i]-fresh.reac[i]) > 1e-9 {
				t.Fatalf("step %d: propensity entry %d: incremental %v, scratch %v",
					step, i, tab.reac[i], fresh.reac[i])
			}
		}
		for i := range tab.diff {
			if math.Abs(tab.diff[i]-fresh.diff[i]) > 1e-9 {
				t.Fatalf("step %d: channel %d: incremental %v, scratch %v",
					step, i, tab.diff[i], fresh.diff[i])
			}
		}
		if math.Abs(tab.Grand()-fresh.Grand()) > 1e-6 {
			t.Fatalf("step %d: grand total: incremental %v, scratch %v",
				step, tab.Grand(), fresh.Grand())
		}
	}
}

func TestIntensityTable_ResyncDiscardsDrift(t *testing.T) {
	m, st := reversibleTwoCellModel(t)
	tab, err := newIntensityTable(m, st, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Inject drift into the running sums, then resync.
	tab.grand += 1e-3
	tab.cellSum[0] -= 1e-3
	tab.resum()

	fresh, err := newIntensityTable(m, st, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Grand() != fresh.Grand() {
		t.Errorf("resync left grand total %v, want %v", tab.Grand(), fresh.Grand())
	}
	for c := range tab.cellSum {
		if tab.cellSum[c] != fresh.cellSum[c] {
			t.Errorf("resync left cell %d sum %v, want %v", c, tab.cellSum[c], fresh.cellSum[c])
		}
	}
}

func TestIntensityTable_ResyncCadence(t *testing.T) {
	m, st := reversibleTwoCellModel(t)
	tab, err := newIntensityTable(m, st, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	start := tab.resyncs

	// Three incremental updates must trigger exactly one cadence resync.
	for i := 0; i < 3; i++ {
		if err := tab.updateReaction(st, 0, 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if tab.resyncs != start+1 {
		t.Errorf("resyncs = %d after 3 updates with cadence 3, want %d", tab.resyncs, start+1)
	}
}

func TestEvalPropensity_RejectsInvalidValues(t *testing.T) {
	st, err := NewState(1, 1, []int64{1}, []float64{1}, []int{0}, nil, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	bad := []PropensityFunc{
		propensityValue(-1),
		propensityValue(math.NaN()),
		propensityValue(math.Inf(1)),
	}
	for _, fn := range bad {
		if _, err := evalPropensity(fn, st, 0, 0, 0); err == nil {
			t.Errorf("propensity %v accepted", fn.Evaluate(nil, 1, nil, nil, 0, 0))
		}
	}
	if _, err := evalPropensity(propensityValue(0), st, 0, 0, 0); err != nil {
		t.Errorf("zero propensity rejected: %v", err)
	}
}

// propensityValue always evaluates to a fixed value.
type propensityValue float64

func (p propensityValue) Evaluate(counts []int64, vol float64, ldata, gdata []float64, subdomain int, t float64) float64 {
	return float64(p)
}
