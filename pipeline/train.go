package pipeline

import (
	"context"
	"log/slog"

	"github.com/rushteam/fakereview/config"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/dataset"
)

// TrainOption 调整 NewTrainingPipeline 构建出的阶段
type TrainOption func(*trainOptions)

type trainOptions struct {
	loader Loader
	logger *slog.Logger
}

// WithLoader 替换默认的 CSV 加载
func WithLoader(l Loader) TrainOption {
	return func(o *trainOptions) { o.loader = l }
}

// WithLogger 设置阶段日志
func WithLogger(l *slog.Logger) TrainOption {
	return func(o *trainOptions) { o.logger = l }
}

// NewTrainingPipeline 按配置组装完整的训练链
func NewTrainingPipeline(cfg *config.TrainConfig, st core.ArtifactStore, opts ...TrainOption) (*Pipeline, error) {
	o := &trainOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.loader == nil {
		o.loader = CSVLoader(cfg.Dataset.Path, cfg.Dataset.Schema)
	}
	filter, err := dataset.NewFilter(cfg.Dataset.Filter)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Logger: o.logger,
		Stages: []Stage{
			&LoadStage{Loader: o.loader},
			&NormalizeStage{Filter: filter},
			&SplitStage{TestRatio: cfg.Split.TestRatio, Seed: uint64(cfg.Split.Seed)},
			&FitVectorizerStage{Options: cfg.Vectorizer.Options()},
			&FitClassifierStage{Trainer: cfg.Classifier.Trainer()},
			&EvaluateStage{},
			&SerializeStage{Store: st, Keys: cfg.Artifacts.Keys},
		},
	}, nil
}

// Train 组装并执行训练链，返回最终状态
func Train(ctx context.Context, cfg *config.TrainConfig, st core.ArtifactStore, opts ...TrainOption) (*State, error) {
	p, err := NewTrainingPipeline(cfg, st, opts...)
	if err != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeTrainingFailure, "pipeline: build", err)
	}
	state := NewState()
	if err := p.Run(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}
