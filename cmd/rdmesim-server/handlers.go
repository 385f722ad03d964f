package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/daniacca/rdmesim/internal/rdme"
	rdmenotifiers "github.com/daniacca/rdmesim/internal/rdme/notifiers"
)

// routes builds the server's HTTP mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/models", s.handleModelsRoutes)
	mux.HandleFunc("/models/", s.handleModelsRoutes)
	mux.HandleFunc("/runs", s.handleRunsRoutes)
	mux.HandleFunc("/runs/", s.handleRunsRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.HandleFunc("/ws/progress", s.handleProgressWS)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// modelInfo is the JSON view of a registered model.
type modelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Ncells   int    `json:"ncells"`
	Mspecies int    `json:"mspecies"`
}

// handleModelsRoutes routes /models and /models/{id}
func (s *Server) handleModelsRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/models" && r.Method == http.MethodPost:
		s.handleRegisterModel(w, r)
	case r.URL.Path == "/models" && r.Method == http.MethodGet:
		s.handleListModels(w, r)
	case strings.HasPrefix(r.URL.Path, "/models/") && r.Method == http.MethodGet:
		s.handleGetModel(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /models
// Body: ModelConfig JSON. Validates, builds and stores the model.
func (s *Server) handleRegisterModel(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var cfg rdme.ModelConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid model json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := rdme.ValidateModelConfig(cfg); err != nil {
		http.Error(w, "invalid model: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.registerModel(cfg)
	if err != nil {
		http.Error(w, "cannot build model: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GET /models
func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	infos := make([]modelInfo, 0, len(s.models))
	for _, sm := range s.models {
		infos = append(infos, modelInfo{
			ID:       sm.ID,
			Name:     sm.Config.Name,
			Ncells:   len(sm.Config.Cells),
			Mspecies: len(sm.Config.Species),
		})
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string][]modelInfo{"models": infos})
}

// GET /models/{id}
// Returns the full registered model config.
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/models/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "model ID is required in path: /models/{id}", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	sm, exists := s.models[id]
	s.mu.RUnlock()
	if !exists {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, sm.Config)
}

// startRunRequest is the body of POST /runs.
type startRunRequest struct {
	ModelID      string    `json:"model_id"`
	Realizations int       `json:"realizations"`
	Seed         int64     `json:"seed"`
	Tspan        []float64 `json:"tspan,omitempty"`
}

// runInfo is the JSON view of a run.
type runInfo struct {
	ID           string `json:"id"`
	ModelID      string `json:"model_id"`
	Realizations int    `json:"realizations"`
	Seed         int64  `json:"seed"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) runView(r *run) runInfo {
	status, errMsg := r.snapshotStatus()
	return runInfo{
		ID:           r.ID,
		ModelID:      r.ModelID,
		Realizations: r.Realizations,
		Seed:         r.Seed,
		Status:       status,
		Error:        errMsg,
	}
}

// handleRunsRoutes routes /runs, /runs/{id} and /runs/{id}/trajectory
func (s *Server) handleRunsRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/runs" {
		switch r.Method {
		case http.MethodPost:
			s.handleStartRun(w, r)
		case http.MethodGet:
			s.handleListRuns(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "run ID is required in path: /runs/{id}", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.handleGetRun(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		s.handleDeleteRun(w, r, id)
	case sub == "trajectory" && r.Method == http.MethodGet:
		s.handleGetTrajectory(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /runs
// Body: startRunRequest. Launches the ensemble asynchronously and returns
// the run ID immediately.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Realizations <= 0 {
		req.Realizations = 1
	}

	s.mu.RLock()
	sm, exists := s.models[req.ModelID]
	s.mu.RUnlock()
	if !exists {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}

	times := req.Tspan
	if len(times) == 0 {
		times = sm.Config.Tspan
	}
	if len(times) == 0 {
		http.Error(w, "model has no tspan and the request gave none", http.StatusBadRequest)
		return
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			http.Error(w, "tspan must be strictly increasing", http.StatusBadRequest)
			return
		}
	}

	run := s.startRun(sm, req.Realizations, req.Seed, times)
	writeJSON(w, http.StatusAccepted, s.runView(run))
}

// GET /runs
func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	infos := make([]runInfo, 0, len(s.runs))
	for _, r := range s.runs {
		infos = append(infos, s.runView(r))
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string][]runInfo{"runs": infos})
}

// GET /runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, _ *http.Request, id string) {
	s.mu.RLock()
	run, exists := s.runs[id]
	s.mu.RUnlock()
	if !exists {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, s.runView(run))
}

// DELETE /runs/{id}
// Cancels the run if still executing and removes it from the registry.
func (s *Server) handleDeleteRun(w http.ResponseWriter, _ *http.Request, id string) {
	s.mu.Lock()
	run, exists := s.runs[id]
	if exists {
		delete(s.runs, id)
	}
	s.mu.Unlock()
	if !exists {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	if run.cancel != nil {
		run.cancel()
	}
	s.logger.Infof("Run deleted: id=%s", id)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("run deleted"))
}

// GET /runs/{id}/trajectory?realization=k
// Returns one realization's trajectory once the run has finished. A failed
// run still serves its partial trajectories.
func (s *Server) handleGetTrajectory(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.RLock()
	run, exists := s.runs[id]
	s.mu.RUnlock()
	if !exists {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	realization := 0
	if kStr := r.URL.Query().Get("realization"); kStr != "" {
		k, err := strconv.Atoi(kStr)
		if err != nil || k < 0 {
			http.Error(w, "invalid realization: must be a non-negative integer", http.StatusBadRequest)
			return
		}
		realization = k
	}

	run.mu.RLock()
	status := run.status
	var traj *rdme.Trajectory
	if realization < len(run.trajs) {
		traj = run.trajs[realization]
	}
	run.mu.RUnlock()

	if status == runPending || status == runRunning {
		http.Error(w, "run still in progress", http.StatusConflict)
		return
	}
	if traj == nil {
		http.Error(w, "realization not available", http.StatusNotFound)
		return
	}

	data, err := rdme.EncodeTrajectoryJSON(traj)
	if err != nil {
		http.Error(w, "cannot encode trajectory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /ws/progress
// Upgrades to a WebSocket and streams progress events until the client
// disconnects.
func (s *Server) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	s.wsNotifier.RegisterClient(conn)
	s.logger.Debugf("WebSocket client connected: %s", conn.RemoteAddr())

	// Reads are discarded; the loop exists to notice the client going away.
	go func() {
		defer s.wsNotifier.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.notifierMgr.ListNotifiers()

	notifierList := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.notifierMgr.GetNotifier(id)
		if exists {
			notifierList = append(notifierList, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifiers": notifierList})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier rdme.Notifier
	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := rdmenotifiers.NewWebhookNotifier(req.ID, url)

		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}
