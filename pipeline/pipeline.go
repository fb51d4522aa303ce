package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/dataset"
	"github.com/rushteam/fakereview/eval"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
	"github.com/rushteam/fakereview/pkg/logging"
)

// Pipeline 把离线训练拆成线性的 Stage 链：
// LOAD → NORMALIZE → SPLIT → FIT_VECTORIZER → FIT_CLASSIFIER → EVALUATE → SERIALIZE。
// 任何阶段失败都会中止整条链，不重试。
type Pipeline struct {
	Stages []Stage
	Logger *slog.Logger
}

// State 承载各阶段的输入输出，训练结束后可用于检查中间结果。
type State struct {
	RunID string

	Raw     []core.LabeledExample // LOAD
	Clean   []string              // NORMALIZE，与 Raw 一一对应
	Dropped int                   // NORMALIZE 阶段被过滤掉的样本数

	Split       dataset.Split // SPLIT
	TrainText   []string
	TestText    []string
	TrainLabels []core.Label
	TestLabels  []core.Label

	Vectorizer *feature.TFIDFVectorizer // FIT_VECTORIZER
	TrainX     []feature.SparseVector
	TestX      []feature.SparseVector

	Model      *model.LRModel // FIT_CLASSIFIER
	ModelState model.ModelState

	Predictions []core.Label // EVALUATE
	Report      eval.Report

	Bundle *artifact.Bundle // SERIALIZE
}

// NewState 创建带新 run id 的空状态
func NewState() *State {
	return &State{RunID: uuid.NewString()}
}

// Run 依次执行各阶段，返回的错误均为 TRAINING_FAILURE
func (p *Pipeline) Run(ctx context.Context, st *State) error {
	logger := p.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("run_id", st.RunID)

	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return core.WrapDomainError(core.ModulePipeline, core.ErrorCodeTrainingFailure, fmt.Sprintf("pipeline: stage %s", stage.Name()), err)
		}
		start := time.Now()
		if err := stage.Process(ctx, st); err != nil {
			logger.Error("stage failed", "stage", stage.Name(), "kind", stage.Kind(), "error", err)
			return core.WrapDomainError(core.ModulePipeline, core.ErrorCodeTrainingFailure, fmt.Sprintf("pipeline: stage %s", stage.Name()), err)
		}
		logger.Info("stage done", "stage", stage.Name(), "kind", stage.Kind(), "elapsed", time.Since(start))
	}
	return nil
}
