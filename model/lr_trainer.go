package model

import (
	"fmt"
	"math"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
)

// 训练默认值
const (
	DefaultC       = 1.0
	DefaultMaxIter = 3000
	DefaultTol     = 1e-4
	DefaultSeed    = 42
)

// LRTrainer 拟合 L2 正则的逻辑回归。
//
// 目标函数（对样本取均值，截距不参与正则）：
//
//	f(w, b) = mean(log(1 + exp(-y * (w·x + b)))) + ||w||² / (2·C·n)
//
// 求解器为带自适应重启的 Nesterov 加速全量梯度下降，步长 1/L，
// L 取 Hessian 的迹上界。整个过程不含随机性，同一输入必然得到同一参数；
// Seed 只作为训练配置的一部分写入产物。
//
// 达到 MaxIter 仍未满足 max|grad| <= Tol 时不报错，返回目标函数最小的迭代点，
// FitResult.Converged 为 false。
type LRTrainer struct {
	C       float64 // 正则强度的倒数，越大正则越弱
	MaxIter int
	Tol     float64
	Seed    int64
}

// NewLRTrainer 创建使用默认参数的训练器
func NewLRTrainer() *LRTrainer {
	return &LRTrainer{C: DefaultC, MaxIter: DefaultMaxIter, Tol: DefaultTol, Seed: DefaultSeed}
}

func (t *LRTrainer) withDefaults() LRTrainer {
	cfg := *t
	if cfg.C <= 0 {
		cfg.C = DefaultC
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.Tol <= 0 {
		cfg.Tol = DefaultTol
	}
	return cfg
}

// Fit 实现 Trainer
func (t *LRTrainer) Fit(features []feature.SparseVector, labels []core.Label) (Classifier, FitResult, error) {
	m, res, err := t.FitLR(features, labels)
	if err != nil {
		return nil, res, err
	}
	return m, res, nil
}

// State 导出模型与本训练器参数组成的可序列化状态
func (t *LRTrainer) State(m *LRModel, res FitResult) ModelState {
	cfg := t.withDefaults()
	return ModelState{
		Bias:    m.Bias,
		Weights: append([]float64(nil), m.Weights...),
		C:       cfg.C,
		MaxIter: cfg.MaxIter,
		Seed:    cfg.Seed,
		Fit:     res,
	}
}

// FitLR 拟合并返回具体的 *LRModel
func (t *LRTrainer) FitLR(features []feature.SparseVector, labels []core.Label) (*LRModel, FitResult, error) {
	cfg := t.withDefaults()
	if err := validateTrainingSet(features, labels); err != nil {
		return nil, FitResult{}, err
	}

	n := len(features)
	d := features[0].Dim
	y := make([]float64, n)
	var trace float64
	for i, x := range features {
		if labels[i] == core.LabelFake {
			y[i] = 1
		} else {
			y[i] = -1
		}
		trace += x.SquaredNorm() + 1
	}
	alpha := 1 / (cfg.C * float64(n))
	step := 1 / (0.25*trace/float64(n) + alpha)
	obj := &lrObjective{x: features, y: y, dim: d, alpha: alpha}

	theta := make([]float64, d+1) // 最后一维是截距
	gradTheta := make([]float64, d+1)
	fCur := obj.eval(theta, gradTheta)

	look := make([]float64, d+1)
	gradLook := make([]float64, d+1)
	next := make([]float64, d+1)
	gradNext := make([]float64, d+1)
	momentum := 1.0

	var res FitResult
	for res.Iterations < cfg.MaxIter {
		if maxAbs(gradTheta) <= cfg.Tol {
			res.Converged = true
			break
		}
		res.Iterations++

		obj.eval(look, gradLook)
		for j := range next {
			next[j] = look[j] - step*gradLook[j]
		}
		fNext := obj.eval(next, gradNext)
		if fNext > fCur {
			// 目标函数上升：丢弃动量，从当前最优点重新开始
			copy(look, theta)
			momentum = 1
			continue
		}

		momentumNext := (1 + math.Sqrt(1+4*momentum*momentum)) / 2
		beta := (momentum - 1) / momentumNext
		for j := range look {
			look[j] = next[j] + beta*(next[j]-theta[j])
		}
		theta, next = next, theta
		gradTheta, gradNext = gradNext, gradTheta
		fCur = fNext
		momentum = momentumNext
	}
	if !res.Converged && maxAbs(gradTheta) <= cfg.Tol {
		res.Converged = true
	}
	res.Loss = fCur
	return NewLRModel(theta[:d], theta[d]), res, nil
}

func validateTrainingSet(features []feature.SparseVector, labels []core.Label) error {
	if len(features) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "lr: empty training set")
	}
	if len(features) != len(labels) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("lr: %d feature vectors but %d labels", len(features), len(labels)))
	}
	d := features[0].Dim
	if d <= 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "lr: zero-dimensional features")
	}
	seen := make(map[core.Label]bool, 2)
	for i, x := range features {
		if x.Dim != d {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("lr: sample %d has dimension %d, want %d", i, x.Dim, d))
		}
		if !labels[i].Valid() {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("lr: sample %d has invalid label %d", i, int(labels[i])))
		}
		seen[labels[i]] = true
	}
	if len(seen) < 2 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "lr: training labels contain a single class")
	}
	return nil
}

type lrObjective struct {
	x     []feature.SparseVector
	y     []float64
	dim   int
	alpha float64
}

// eval 计算 theta 处的目标函数值，并把梯度写入 grad
func (o *lrObjective) eval(theta, grad []float64) float64 {
	for j := range grad {
		grad[j] = 0
	}
	var loss float64
	for i, x := range o.x {
		z := theta[o.dim]
		for k, idx := range x.Indices {
			z += x.Values[k] * theta[idx]
		}
		margin := o.y[i] * z
		loss += logLoss(margin)
		coef := -o.y[i] * sigmoid(-margin)
		for k, idx := range x.Indices {
			grad[idx] += coef * x.Values[k]
		}
		grad[o.dim] += coef
	}

	n := float64(len(o.x))
	loss /= n
	var reg float64
	for j := 0; j < o.dim; j++ {
		grad[j] = grad[j]/n + o.alpha*theta[j]
		reg += theta[j] * theta[j]
	}
	grad[o.dim] /= n
	return loss + 0.5*o.alpha*reg
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
