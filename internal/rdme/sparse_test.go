package rdme

import "testing"

func TestNewStoichMatrix_ValidatesCSC(t *testing.T) {
	// 2 species x 2 reactions: r0 = -1 on species 0, r1 = +1 on species 1
	m, err := NewStoichMatrix(2, 2, []int{0, 1}, []int{0, 1, 2}, []int64{-1, 1})
	if err != nil {
		t.Fatalf("valid matrix rejected: %v", err)
	}
	species, delta := m.Col(0)
	if len(species) != 1 || species[0] != 0 || delta[0] != -1 {
		t.Errorf("column 0 = (%v, %v), want ([0], [-1])", species, delta)
	}

	cases := []struct {
		name   string
		rowIdx []int
		colPtr []int
		val    []int64
	}{
		{"offsets too short", []int{0}, []int{0, 1}, []int64{1}},
		{"offsets decrease", []int{0, 1}, []int{0, 2, 1}, []int64{1, 1}},
		{"offsets end wrong", []int{0}, []int{0, 1, 2}, []int64{1}},
		{"row out of range", []int{5}, []int{0, 1, 1}, []int64{1}},
		{"value count mismatch", []int{0}, []int{0, 1, 1}, []int64{1, 2}},
	}
	for _, tc := range cases {
		if _, err := NewStoichMatrix(2, 2, tc.rowIdx, tc.colPtr, tc.val); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNewDepGraph_ColumnAccess(t *testing.T) {
	// 2 species, 2 reactions. Species 0 feeds both reactions, species 1
	// feeds reaction 1. Reaction 0 invalidates both, reaction 1 only itself.
	g, err := NewDepGraph(2, 2,
		[]int{0, 1, 1, 0, 1, 1},
		[]int{0, 2, 3, 5, 6})
	if err != nil {
		t.Fatalf("valid graph rejected: %v", err)
	}

	if got := g.DependentOnSpecies(0); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("DependentOnSpecies(0) = %v, want [0 1]", got)
	}
	if got := g.DependentOnSpecies(1); len(got) != 1 || got[0] != 1 {
		t.Errorf("DependentOnSpecies(1) = %v, want [1]", got)
	}
	if got := g.DependentOnReaction(0); len(got) != 2 {
		t.Errorf("DependentOnReaction(0) = %v, want two entries", got)
	}
	if got := g.DependentOnReaction(1); len(got) != 1 || got[0] != 1 {
		t.Errorf("DependentOnReaction(1) = %v, want [1]", got)
	}
}

func TestNewDiffusion_GroupsChannelsBySourceCell(t *testing.T) {
	// Three channels: 0->1, 1->0, 0->1 (two species on the same edge).
	d, err := NewDiffusion(2, 2,
		[]float64{1.0, 2.0, 0.5},
		[]int{0, 0, 1},
		[]int{0, 1, 0},
		[]int{1, 0, 1})
	if err != nil {
		t.Fatalf("valid topology rejected: %v", err)
	}

	out0 := d.Outgoing(0)
	if len(out0) != 2 || out0[0] != 0 || out0[1] != 2 {
		t.Errorf("Outgoing(0) = %v, want [0 2] in creation order", out0)
	}
	out1 := d.Outgoing(1)
	if len(out1) != 1 || out1[0] != 1 {
		t.Errorf("Outgoing(1) = %v, want [1]", out1)
	}
}

func TestNewDiffusion_RejectsBadChannels(t *testing.T) {
	cases := []struct {
		name    string
		rate    []float64
		species []int
		from    []int
		to      []int
	}{
		{"negative rate", []float64{-1}, []int{0}, []int{0}, []int{1}},
		{"species out of range", []float64{1}, []int{9}, []int{0}, []int{1}},
		{"cell out of range", []float64{1}, []int{0}, []int{0}, []int{7}},
		{"self jump", []float64{1}, []int{0}, []int{1}, []int{1}},
		{"length mismatch", []float64{1, 1}, []int{0}, []int{0}, []int{1}},
	}
	for _, tc := range cases {
		if _, err := NewDiffusion(2, 2, tc.rate, tc.species, tc.from, tc.to); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNewDiffusion_EmptyTopologyIsNil(t *testing.T) {
	d, err := NewDiffusion(2, 2, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("empty topology rejected: %v", err)
	}
	if d != nil {
		t.Errorf("empty topology should build a nil Diffusion")
	}
}
