package model

import (
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
)

// Classifier 是分类阶段的最小抽象：输入 TF-IDF 特征向量，输出二分类标签。
// 实现必须是纯函数：同一冻结状态 + 同一向量，永远得到同一结果。
type Classifier interface {
	Name() string
	// DecisionFunction 返回线性决策值，> 0 判为 FAKE
	DecisionFunction(x feature.SparseVector) (float64, error)
	Predict(x feature.SparseVector) (core.Label, error)
}

// Trainer 在 (特征, 标签) 上拟合出一个 Classifier
type Trainer interface {
	Fit(features []feature.SparseVector, labels []core.Label) (Classifier, FitResult, error)
}

// FitResult 记录一次拟合的收敛信息
type FitResult struct {
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Loss       float64 `json:"loss"`
}
