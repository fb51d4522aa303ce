package model

import (
	"fmt"
	"math"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 二分类模型。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. z > 0 判为 FAKE (1)，否则 REAL (0)
//
// Probability 给出 Sigmoid(z)，仅供观测，不参与判定。
type LRModel struct {
	Bias    float64   // 偏置项 (Bias / Intercept)
	Weights []float64 // 特征权重，下标与词表列号一致
}

// NewLRModel 由权重与偏置构建模型，权重会被复制
func NewLRModel(weights []float64, bias float64) *LRModel {
	w := make([]float64, len(weights))
	copy(w, weights)
	return &LRModel{Bias: bias, Weights: w}
}

func (m *LRModel) Name() string { return "lr" }

// Dim 返回模型期望的输入维度
func (m *LRModel) Dim() int { return len(m.Weights) }

func (m *LRModel) DecisionFunction(x feature.SparseVector) (float64, error) {
	dot, err := x.Dot(m.Weights)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInternalError, "lr: decision function", err)
	}
	return m.Bias + dot, nil
}

func (m *LRModel) Predict(x feature.SparseVector) (core.Label, error) {
	z, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return core.LabelFake, nil
	}
	return core.LabelReal, nil
}

// Probability 返回判为 FAKE 的 Sigmoid 概率
func (m *LRModel) Probability(x feature.SparseVector) (float64, error) {
	z, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

// ModelState 是 LR 模型的可序列化状态
type ModelState struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	C       float64   `json:"c"`
	MaxIter int       `json:"max_iter"`
	Seed    int64     `json:"seed"`
	Fit     FitResult `json:"fit"`
}

// LRFromState 由序列化状态重建模型
func LRFromState(s ModelState) (*LRModel, error) {
	if len(s.Weights) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "lr state: empty weights")
	}
	if bad(s.Bias) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "lr state: invalid bias")
	}
	for i, w := range s.Weights {
		if bad(w) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, fmt.Sprintf("lr state: invalid weight at %d", i))
		}
	}
	return NewLRModel(s.Weights, s.Bias), nil
}

func bad(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// log(1 + exp(-m))，数值稳定
func logLoss(margin float64) float64 {
	if margin > 0 {
		return math.Log1p(math.Exp(-margin))
	}
	return -margin + math.Log1p(math.Exp(margin))
}
