package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Label 是二分类标签。编码固定：0 → REAL，1 → FAKE，修改需重新训练。
type Label int

const (
	LabelReal Label = 0
	LabelFake Label = 1
)

// Labels 按编码顺序列出全部标签，评估报告按此顺序输出。
var Labels = []Label{LabelReal, LabelFake}

func (l Label) String() string {
	switch l {
	case LabelReal:
		return "REAL"
	case LabelFake:
		return "FAKE"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Valid 报告标签是否在 {0, 1} 内
func (l Label) Valid() bool {
	return l == LabelReal || l == LabelFake
}

// ParseLabel 解析数据集中的标签列。
// 支持 0/1、true/false、real/fake（不区分大小写），以及 1.0 / 0.0 这类整数值的浮点写法
// （pandas 在列中出现过缺失值时会这样导出）。
func ParseLabel(s string) (Label, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "0", "false", "real":
		return LabelReal, nil
	case "1", "true", "fake":
		return LabelFake, nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		switch f {
		case 0:
			return LabelReal, nil
		case 1:
			return LabelFake, nil
		}
	}
	return 0, NewDomainError(ModuleDataset, ErrorCodeInvalidInput, fmt.Sprintf("invalid label %q", s))
}

// LabeledExample 是一条训练样本：原始评论文本 + 标签。
type LabeledExample struct {
	Text  string
	Label Label
}

// CountLabels 统计各类样本数
func CountLabels(examples []LabeledExample) map[Label]int {
	counts := make(map[Label]int, len(Labels))
	for _, ex := range examples {
		counts[ex.Label]++
	}
	return counts
}
