package main

import (
	"net/http"

	"github.com/daniacca/rdmesim/internal/rdme"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(cfg, logger)
	defer srv.Close()

	if cfg.ModelFile != "" {
		modelCfg, err := rdme.LoadModelConfig(cfg.ModelFile)
		if err != nil {
			logger.Fatalf("Cannot load startup model %s: %v", cfg.ModelFile, err)
		}
		id, err := srv.registerModel(modelCfg)
		if err != nil {
			logger.Fatalf("Cannot build startup model %s: %v", cfg.ModelFile, err)
		}
		logger.Infof("Startup model registered: file=%s id=%s", cfg.ModelFile, id)
	}

	logger.Infof("rdmesim-server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.routes()); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
