package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/dataset"
	"github.com/rushteam/fakereview/eval"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
	"github.com/rushteam/fakereview/text"
)

// Loader 提供原始样本
type Loader func(ctx context.Context) ([]core.LabeledExample, error)

// CSVLoader 从 CSV 文件加载
func CSVLoader(path string, schema dataset.Schema) Loader {
	return func(ctx context.Context) ([]core.LabeledExample, error) {
		return dataset.LoadCSVFile(path, schema)
	}
}

// StaticLoader 直接使用内存中的样本，样本会被复制
func StaticLoader(examples []core.LabeledExample) Loader {
	return func(ctx context.Context) ([]core.LabeledExample, error) {
		return append([]core.LabeledExample(nil), examples...), nil
	}
}

// LoadStage 读取数据集
type LoadStage struct {
	Loader Loader
}

func (s *LoadStage) Name() string { return StageLoad }
func (s *LoadStage) Kind() Kind   { return KindIO }

func (s *LoadStage) Process(ctx context.Context, st *State) error {
	if s.Loader == nil {
		return fmt.Errorf("no loader configured")
	}
	examples, err := s.Loader(ctx)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("dataset is empty")
	}
	st.Raw = examples
	return nil
}

// NormalizeStage 归一化文本，并按过滤表达式丢弃样本
type NormalizeStage struct {
	Normalizer text.Normalizer
	Filter     *dataset.Filter
}

func (s *NormalizeStage) Name() string { return StageNormalize }
func (s *NormalizeStage) Kind() Kind   { return KindTransform }

func (s *NormalizeStage) Process(ctx context.Context, st *State) error {
	n := s.Normalizer
	if n == nil {
		n = text.Default
	}
	clean := make([]string, len(st.Raw))
	for i, ex := range st.Raw {
		clean[i] = n.Normalize(ex.Text)
	}
	raw, clean, dropped, err := s.Filter.Apply(st.Raw, clean)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no examples left after filtering (%d dropped)", dropped)
	}
	st.Raw, st.Clean, st.Dropped = raw, clean, dropped
	return nil
}

// SplitStage 分层切分训练集和测试集
type SplitStage struct {
	TestRatio float64
	Seed      uint64
}

func (s *SplitStage) Name() string { return StageSplit }
func (s *SplitStage) Kind() Kind   { return KindTransform }

func (s *SplitStage) Process(ctx context.Context, st *State) error {
	labels := make([]core.Label, len(st.Raw))
	for i, ex := range st.Raw {
		labels[i] = ex.Label
	}
	split, err := dataset.StratifiedSplit(labels, s.TestRatio, s.Seed)
	if err != nil {
		return err
	}
	st.Split = split
	if st.TrainText, st.TestText, err = dataset.Partition(st.Clean, split); err != nil {
		return err
	}
	if st.TrainLabels, st.TestLabels, err = dataset.Partition(labels, split); err != nil {
		return err
	}
	return nil
}

// FitVectorizerStage 只在训练集上拟合 TF-IDF，再变换训练集与测试集
type FitVectorizerStage struct {
	Options []feature.Option
}

func (s *FitVectorizerStage) Name() string { return StageFitVectorizer }
func (s *FitVectorizerStage) Kind() Kind   { return KindFit }

func (s *FitVectorizerStage) Process(ctx context.Context, st *State) error {
	v := feature.NewTFIDFVectorizer(s.Options...)
	if err := v.Fit(st.TrainText); err != nil {
		return err
	}
	trainX, err := v.TransformBatch(ctx, st.TrainText)
	if err != nil {
		return err
	}
	testX, err := v.TransformBatch(ctx, st.TestText)
	if err != nil {
		return err
	}
	st.Vectorizer, st.TrainX, st.TestX = v, trainX, testX
	return nil
}

// FitClassifierStage 在训练向量上拟合逻辑回归
type FitClassifierStage struct {
	Trainer *model.LRTrainer
}

func (s *FitClassifierStage) Name() string { return StageFitClassifier }
func (s *FitClassifierStage) Kind() Kind   { return KindFit }

func (s *FitClassifierStage) Process(ctx context.Context, st *State) error {
	trainer := s.Trainer
	if trainer == nil {
		trainer = model.NewLRTrainer()
	}
	m, res, err := trainer.FitLR(st.TrainX, st.TrainLabels)
	if err != nil {
		return err
	}
	st.Model = m
	st.ModelState = trainer.State(m, res)
	return nil
}

// EvaluateStage 在测试集上计算准确率与分类报告
type EvaluateStage struct{}

func (s *EvaluateStage) Name() string { return StageEvaluate }
func (s *EvaluateStage) Kind() Kind   { return KindEvaluate }

func (s *EvaluateStage) Process(ctx context.Context, st *State) error {
	preds := make([]core.Label, len(st.TestX))
	for i, x := range st.TestX {
		p, err := st.Model.Predict(x)
		if err != nil {
			return err
		}
		preds[i] = p
	}
	report, err := eval.Evaluate(st.TestLabels, preds)
	if err != nil {
		return err
	}
	st.Predictions, st.Report = preds, report
	return nil
}

// SerializeStage 把向量化器与模型作为一对产物写入存储
type SerializeStage struct {
	Store core.ArtifactStore
	Keys  artifact.Keys
	Now   func() time.Time
}

func (s *SerializeStage) Name() string { return StageSerialize }
func (s *SerializeStage) Kind() Kind   { return KindIO }

func (s *SerializeStage) Process(ctx context.Context, st *State) error {
	if s.Store == nil {
		return fmt.Errorf("no artifact store configured")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	b := &artifact.Bundle{
		Vectorizer: st.Vectorizer,
		Model:      st.Model,
		ModelState: st.ModelState,
		Meta:       artifact.Meta{RunID: st.RunID, CreatedAt: now().UTC()},
	}
	if err := artifact.Save(ctx, s.Store, s.Keys, b); err != nil {
		return err
	}
	b.Meta.Fingerprint = st.Vectorizer.Fingerprint()
	st.Bundle = b
	return nil
}
