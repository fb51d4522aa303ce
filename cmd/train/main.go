package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/fakereview/config"
	"github.com/rushteam/fakereview/pipeline"
	"github.com/rushteam/fakereview/pkg/logging"
	"github.com/rushteam/fakereview/store"
)

var (
	configFlag  = flag.String("config", "", "Path to the training YAML config")
	datasetFlag = flag.String("dataset", "", "Override dataset.path")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadTrain(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *datasetFlag != "" {
		cfg.Dataset.Path = *datasetFlag
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Artifacts.Store)
	if err != nil {
		logger.Error("open artifact store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	state, err := pipeline.Train(ctx, cfg, st, pipeline.WithLogger(logger))
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}

	logger.Info("training finished",
		"run_id", state.RunID,
		"examples", len(state.Raw),
		"dropped", state.Dropped,
		"train", len(state.TrainText),
		"test", len(state.TestText),
		"vocabulary", state.Vectorizer.VocabularySize(),
		"iterations", state.ModelState.Fit.Iterations,
		"converged", state.ModelState.Fit.Converged,
		"fingerprint", state.Bundle.Meta.Fingerprint,
		"store", st.Name(),
	)
	fmt.Println(state.Report.String())
}
