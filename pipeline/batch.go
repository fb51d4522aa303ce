package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/eval"
)

// Classifier 是 BatchPredict 需要的最小推理接口，service.Service 实现了它
type Classifier interface {
	Classify(ctx context.Context, text string) (core.Label, error)
}

// Predict 并发地对一批文本分类，结果与输入一一对应。任一条失败则整体失败。
func Predict(ctx context.Context, clf Classifier, texts []string) ([]core.Label, error) {
	preds := make([]core.Label, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := clf.Classify(gctx, text)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			preds[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}

// BatchPredict 用已加载的推理服务对一批带标签样本打分，
// 返回逐条预测以及与真实标签比对的报告。
func BatchPredict(ctx context.Context, clf Classifier, examples []core.LabeledExample) ([]core.Label, eval.Report, error) {
	texts := make([]string, len(examples))
	truth := make([]core.Label, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		truth[i] = ex.Label
	}
	preds, err := Predict(ctx, clf, texts)
	if err != nil {
		return nil, eval.Report{}, err
	}
	report, err := eval.Evaluate(truth, preds)
	if err != nil {
		return preds, eval.Report{}, err
	}
	return preds, report, nil
}
