// Package eval 计算二分类评估指标，输出格式参照常见的 classification report。
package eval

import (
	"fmt"
	"strings"

	"github.com/rushteam/fakereview/core"
)

// ClassMetrics 是单个类别的指标
type ClassMetrics struct {
	Label     core.Label `json:"label"`
	Precision float64    `json:"precision"`
	Recall    float64    `json:"recall"`
	F1        float64    `json:"f1"`
	Support   int        `json:"support"`
}

// Report 是一次评估的完整结果
type Report struct {
	Accuracy    float64        `json:"accuracy"`
	Total       int            `json:"total"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	// Confusion[真实][预测]
	Confusion [2][2]int `json:"confusion"`
}

// Evaluate 对比真实标签与预测标签。分母为 0 的指标记为 0。
func Evaluate(yTrue, yPred []core.Label) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("eval: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	var r Report
	r.Total = len(yTrue)
	if r.Total == 0 {
		return Report{}, fmt.Errorf("eval: no samples")
	}
	correct := 0
	for i := range yTrue {
		if !yTrue[i].Valid() || !yPred[i].Valid() {
			return Report{}, fmt.Errorf("eval: invalid label at %d", i)
		}
		r.Confusion[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	r.Accuracy = float64(correct) / float64(r.Total)

	for _, l := range core.Labels {
		tp := r.Confusion[l][l]
		var predicted, actual int
		for _, other := range core.Labels {
			predicted += r.Confusion[other][l]
			actual += r.Confusion[l][other]
		}
		m := ClassMetrics{Label: l, Support: actual}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, actual)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision / float64(len(core.Labels))
		r.MacroAvg.Recall += m.Recall / float64(len(core.Labels))
		r.MacroAvg.F1 += m.F1 / float64(len(core.Labels))
		w := float64(actual) / float64(r.Total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = r.Total
	r.WeightedAvg.Support = r.Total
	return r, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// String 渲染人类可读的报告
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n\n", r.Accuracy*100)
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", fmt.Sprintf("%d (%s)", int(m.Label), m.Label), m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}
