package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniacca/rdmesim/internal/rdme"
)

func TestModelBuilder(t *testing.T) {
	cfg := NewModel("two-cell").
		Species("A", 0.5).
		Species("B", 0).
		Cell(1.0, map[string]int64{"A": 100}).
		CellIn(2.0, 1, nil).
		Reaction(NewReaction("fwd").Rate(1.0).Reactants("A").Products("B")).
		Reaction(NewReaction("dimer").Rate(0.1).Reactants("B", "B").Products("A").InSubdomains(1)).
		Edge(0, 1, 0.5).
		Edge(1, 0, 0.5).
		Tspan(0, 1, 2).
		Build()

	require.NoError(t, rdme.ValidateModelConfig(cfg))
	assert.Equal(t, "two-cell", cfg.Name)
	assert.Len(t, cfg.Species, 2)
	assert.Equal(t, 0.5, cfg.Species[0].Diffusion)
	assert.Len(t, cfg.Cells, 2)
	assert.Equal(t, 1, cfg.Cells[1].Subdomain)
	require.Len(t, cfg.Reactions, 2)
	assert.Equal(t, []string{"B", "B"}, cfg.Reactions[1].Reactants)
	assert.Equal(t, []int{1}, cfg.Reactions[1].Subdomains)
	assert.Len(t, cfg.Edges, 2)
	assert.Equal(t, []float64{0, 1, 2}, cfg.Tspan)
}

// fakeServer emulates the run lifecycle: running for the first polls, then
// done.
type fakeServer struct {
	mux           *http.ServeMux
	polls         atomic.Int64
	getsUntilDone int64
}

func newFakeServer(getsUntilDone int64) *fakeServer {
	fs := &fakeServer{mux: http.NewServeMux(), getsUntilDone: getsUntilDone}

	fs.mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var cfg rdme.ModelConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rdme.ValidateModelConfig(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "model-1"})
	})

	fs.mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req startRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ModelID != "model-1" {
			http.Error(w, "model not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(RunInfo{
			ID: "run-1", ModelID: req.ModelID, Realizations: req.Realizations,
			Seed: req.Seed, Status: RunPending,
		})
	})

	fs.mux.HandleFunc("/runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		status := RunRunning
		if fs.polls.Add(1) >= fs.getsUntilDone {
			status = RunDone
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(RunInfo{ID: "run-1", ModelID: "model-1", Status: status})
	})

	fs.mux.HandleFunc("/runs/run-1/trajectory", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("realization") == "9" {
			http.Error(w, "realization not available", http.StatusNotFound)
			return
		}
		traj := &rdme.Trajectory{
			Mspecies: 1, Ncells: 1,
			Times:    []float64{0, 1},
			Counts:   []int64{10, 4},
			Recorded: 2,
		}
		data, _ := rdme.EncodeTrajectoryJSON(traj)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})

	return fs
}

func TestClient_SubmitModelAndRun(t *testing.T) {
	fs := newFakeServer(2)
	ts := httptest.NewServer(fs.mux)
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	cfg := NewModel("decay").
		Species("X", 0).
		Cell(1.0, map[string]int64{"X": 10}).
		Reaction(NewReaction("decay").Rate(1.0).Reactants("X")).
		Tspan(0, 1).
		Build()

	modelID, err := c.SubmitModel(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "model-1", modelID)

	info, err := c.StartRun(ctx, modelID, 4, 99, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", info.ID)
	assert.Equal(t, 4, info.Realizations)

	final, err := c.WaitRun(ctx, info.ID, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, RunDone, final.Status)

	traj, err := c.GetTrajectory(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), traj.At(0, 0, 0))
	assert.Equal(t, int64(4), traj.At(0, 0, 1))
}

func TestClient_APIError(t *testing.T) {
	fs := newFakeServer(1)
	ts := httptest.NewServer(fs.mux)
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	_, err := c.StartRun(ctx, "missing", 1, 0, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "model not found")

	_, err = c.GetTrajectory(ctx, "run-1", 9)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_WaitRunHonorsContext(t *testing.T) {
	fs := newFakeServer(1 << 30) // never done
	ts := httptest.NewServer(fs.mux)
	defer ts.Close()

	c := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.WaitRun(ctx, "run-1", 5*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_GetTrajectoryRejectsInconsistent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs/bad/trajectory", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// Recorded exceeds the frame count.
		_, _ = w.Write([]byte(`{"mspecies":1,"ncells":1,"times":[0],"counts":[5],"recorded":3}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.GetTrajectory(context.Background(), "bad", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent trajectory")
}
