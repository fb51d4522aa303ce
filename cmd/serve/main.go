package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/fakereview/config"
	"github.com/rushteam/fakereview/pkg/logging"
	"github.com/rushteam/fakereview/service"
	"github.com/rushteam/fakereview/store"
)

var configFlag = flag.String("config", "", "Path to the serving YAML config")

func main() {
	flag.Parse()

	cfg, err := config.LoadServe(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Artifacts.Store)
	if err != nil {
		logger.Error("open artifact store", "error", err)
		os.Exit(1)
	}
	svc, err := service.Load(ctx, st, cfg.Artifacts.Keys)
	st.Close()
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	info := svc.Info()
	logger.Info("artifacts loaded", "fingerprint", info.Fingerprint, "vocabulary", info.VocabularySize, "run_id", info.RunID)

	server := service.NewServer(svc, service.NewMetrics(), logger)
	go func() {
		if err := server.Listen(cfg.Addr); err != nil {
			logger.Error("server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", cfg.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := server.Shutdown(); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}
