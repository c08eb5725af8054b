package main

import (
	"log"

	"github.com/vbonduro/tabletinfo/internal/app"
	"github.com/vbonduro/tabletinfo/internal/config"
	"github.com/vbonduro/tabletinfo/internal/logging"
	"github.com/vbonduro/tabletinfo/internal/web"
	"github.com/vbonduro/tabletinfo/internal/web/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	svc, err := app.NewAnalysisService(cfg, logger)
	if err != nil {
		logger.Error("failed to configure analysis", "error", err)
		return
	}

	server := web.NewServer(svc, templates.FS, logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
