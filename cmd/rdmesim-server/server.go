package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/daniacca/rdmesim/internal/rdme"
	"github.com/daniacca/rdmesim/internal/rdme/notifiers"
)

// rdmeLoggerAdapter adapts the server's Logger to the rdme.Logger interface
type rdmeLoggerAdapter struct {
	logger *Logger
}

func (a *rdmeLoggerAdapter) Debugf(format string, v ...any) { a.logger.Debugf(format, v...) }
func (a *rdmeLoggerAdapter) Infof(format string, v ...any)  { a.logger.Infof(format, v...) }
func (a *rdmeLoggerAdapter) Warnf(format string, v ...any)  { a.logger.Warnf(format, v...) }
func (a *rdmeLoggerAdapter) Errorf(format string, v ...any) { a.logger.Errorf(format, v...) }

// storedModel is a registered model: the validated config plus the built
// read-only simulation structures, shared by every run of the model.
type storedModel struct {
	ID     string
	Config rdme.ModelConfig
	model  *rdme.Model
	init   *rdme.State
}

// Run lifecycle states reported by GET /runs/{id}.
const (
	runPending = "pending"
	runRunning = "running"
	runDone    = "done"
	runFailed  = "failed"
)

// run tracks one asynchronous ensemble execution.
type run struct {
	mu sync.RWMutex

	ID           string
	ModelID      string
	Realizations int
	Seed         int64
	Times        []float64
	CreatedAt    time.Time

	status string
	errMsg string
	trajs  []*rdme.Trajectory
	cancel context.CancelFunc
}

func (r *run) snapshotStatus() (status, errMsg string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status, r.errMsg
}

// Server is the HTTP server for the simulator: a model registry, a run
// registry and the notification fan-out for progress streaming.
type Server struct {
	mu     sync.RWMutex
	models map[string]*storedModel
	runs   map[string]*run

	notifierMgr *rdme.NotificationManager
	wsNotifier  *notifiers.WebSocketNotifier
	metrics     *serverMetrics
	logger      *Logger

	workers     int
	reportLevel int
}

// NewServer creates a new server instance
func NewServer(cfg ServerConfig, logger *Logger) *Server {
	rdmeLogger := &rdmeLoggerAdapter{logger: logger}
	mgr := rdme.NewNotificationManagerWithLogger(rdmeLogger)

	ws := notifiers.NewWebSocketNotifier("websocket")
	if err := mgr.RegisterNotifier(ws); err != nil {
		logger.Errorf("Failed to register websocket notifier: %v", err)
	}

	return &Server{
		models:      make(map[string]*storedModel),
		runs:        make(map[string]*run),
		notifierMgr: mgr,
		wsNotifier:  ws,
		metrics:     newServerMetrics(),
		logger:      logger,
		workers:     cfg.Workers,
		reportLevel: cfg.ReportLevel,
	}
}

// Close shuts down the notification fan-out and cancels running runs.
func (s *Server) Close() error {
	s.mu.Lock()
	for _, r := range s.runs {
		if r.cancel != nil {
			r.cancel()
		}
	}
	s.mu.Unlock()
	return s.notifierMgr.Close()
}

// registerModel validates and stores a model config, returning its ID.
func (s *Server) registerModel(cfg rdme.ModelConfig) (string, error) {
	model, init, err := rdme.BuildModelFromConfig(cfg)
	if err != nil {
		return "", err
	}

	sm := &storedModel{
		ID:     uuid.NewString(),
		Config: cfg,
		model:  model,
		init:   init,
	}

	s.mu.Lock()
	s.models[sm.ID] = sm
	s.mu.Unlock()

	s.logger.Infof("Model registered: id=%s name=%s cells=%d species=%d",
		sm.ID, cfg.Name, model.Ncells, model.Mspecies)
	return sm.ID, nil
}

// startRun creates a run record and launches the ensemble asynchronously.
func (s *Server) startRun(sm *storedModel, realizations int, seed int64, times []float64) *run {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		ID:           uuid.NewString(),
		ModelID:      sm.ID,
		Realizations: realizations,
		Seed:         seed,
		Times:        times,
		CreatedAt:    time.Now(),
		status:       runPending,
		cancel:       cancel,
	}

	s.mu.Lock()
	s.runs[r.ID] = r
	s.mu.Unlock()

	s.metrics.runsStarted.Inc()
	s.logger.Infof("Run started: id=%s model=%s realizations=%d seed=%d",
		r.ID, sm.ID, realizations, seed)

	go s.executeRun(ctx, r, sm)
	return r
}

// executeRun runs the ensemble for one run record, publishing progress
// events and updating the run status when it finishes.
func (s *Server) executeRun(ctx context.Context, r *run, sm *storedModel) {
	r.mu.Lock()
	r.status = runRunning
	r.mu.Unlock()

	var eventsRun atomic.Uint64
	start := time.Now()

	ens := &rdme.Ensemble{
		Model:        sm.model,
		Init:         sm.init,
		Times:        r.Times,
		Realizations: r.Realizations,
		Seed:         r.Seed,
		Workers:      s.workers,
		Opts: []rdme.Option{
			rdme.WithLogger(&rdmeLoggerAdapter{logger: s.logger}),
			rdme.WithReportLevel(s.reportLevel),
		},
		OptsFor: func(k int) []rdme.Option {
			var last uint64
			return []rdme.Option{rdme.WithProgress(func(p rdme.Progress) {
				eventsRun.Add(p.Events - last)
				last = p.Events
				s.notifierMgr.Publish(rdme.ProgressEvent{
					RunID:       r.ID,
					Realization: k,
					Status:      rdme.StatusRunning,
					FrameIndex:  p.FrameIndex,
					FrameCount:  len(r.Times),
					SimTime:     p.Time,
					Events:      p.Events,
					Timestamp:   time.Now().Unix(),
				})
			})}
		},
	}

	trajs, err := ens.Run(ctx)
	s.metrics.runDuration.Observe(time.Since(start).Seconds())
	s.metrics.eventsTotal.Add(float64(eventsRun.Load()))

	r.mu.Lock()
	r.trajs = trajs
	if err != nil {
		r.status = runFailed
		r.errMsg = err.Error()
	} else {
		r.status = runDone
	}
	status, errMsg := r.status, r.errMsg
	r.mu.Unlock()

	event := rdme.ProgressEvent{
		RunID:      r.ID,
		Status:     rdme.StatusDone,
		FrameCount: len(r.Times),
		Timestamp:  time.Now().Unix(),
	}
	if status == runFailed {
		event.Status = rdme.StatusFailed
		event.Error = errMsg
		s.metrics.runsFailed.Inc()
		s.logger.Errorf("Run failed: id=%s error=%s", r.ID, errMsg)
	} else {
		s.metrics.runsCompleted.Inc()
		s.logger.Infof("Run completed: id=%s duration=%v events=%d",
			r.ID, time.Since(start), eventsRun.Load())
	}
	s.notifierMgr.Publish(event)
}
