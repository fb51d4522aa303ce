package dataset

import (
	"fmt"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/pkg/dsl"
	"github.com/rushteam/fakereview/text"
)

// Filter 用 CEL 表达式筛选样本，例如 `row.tokens >= 3`。
type Filter struct {
	eval *dsl.Eval
}

// NewFilter 编译过滤表达式，空表达式保留全部样本
func NewFilter(expr string) (*Filter, error) {
	e, err := dsl.NewEval(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, fmt.Sprintf("dataset: filter %q", expr), err)
	}
	return &Filter{eval: e}, nil
}

// Apply 返回满足表达式的样本及被丢弃的数量。
// raw 与 clean 一一对应：clean[i] 是 raw[i] 归一化后的文本。
func (f *Filter) Apply(raw []core.LabeledExample, clean []string) ([]core.LabeledExample, []string, int, error) {
	if len(raw) != len(clean) {
		return nil, nil, 0, fmt.Errorf("dataset: %d examples but %d normalized texts", len(raw), len(clean))
	}
	if f == nil || f.eval.Expr() == "" {
		return raw, clean, 0, nil
	}
	keptRaw := make([]core.LabeledExample, 0, len(raw))
	keptClean := make([]string, 0, len(clean))
	for i, ex := range raw {
		ok, err := f.eval.Evaluate(dsl.Row{
			Text:   ex.Text,
			Clean:  clean[i],
			Label:  int(ex.Label),
			Tokens: len(text.Tokens(clean[i])),
		})
		if err != nil {
			return nil, nil, 0, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, fmt.Sprintf("dataset: filter row %d", i), err)
		}
		if ok {
			keptRaw = append(keptRaw, ex)
			keptClean = append(keptClean, clean[i])
		}
	}
	return keptRaw, keptClean, len(raw) - len(keptRaw), nil
}
