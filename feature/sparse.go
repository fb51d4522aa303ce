package feature

import (
	"fmt"
	"math"
)

// SparseVector 是固定维度的稀疏特征向量。
// Indices 严格递增，Values 与之一一对应；未出现的维度视为 0。
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Len 返回向量维度（与词表大小一致）
func (v SparseVector) Len() int { return v.Dim }

// NNZ 返回非零元素个数
func (v SparseVector) NNZ() int { return len(v.Indices) }

// At 返回第 i 维的值
func (v SparseVector) At(i int) float64 {
	lo, hi := 0, len(v.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case v.Indices[mid] == i:
			return v.Values[mid]
		case v.Indices[mid] < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Dense 展开为稠密切片
func (v SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// Dot 计算与稠密权重的内积，维度不一致时返回错误
func (v SparseVector) Dot(weights []float64) (float64, error) {
	if len(weights) != v.Dim {
		return 0, fmt.Errorf("dimension mismatch: vector %d, weights %d", v.Dim, len(weights))
	}
	var sum float64
	for k, idx := range v.Indices {
		if idx < 0 || idx >= v.Dim {
			return 0, fmt.Errorf("index %d out of range [0, %d)", idx, v.Dim)
		}
		sum += v.Values[k] * weights[idx]
	}
	return sum, nil
}

// SquaredNorm 返回 L2 范数的平方
func (v SparseVector) SquaredNorm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

func (v *SparseVector) normalizeL2() {
	norm := math.Sqrt(v.SquaredNorm())
	if norm == 0 {
		return
	}
	for k := range v.Values {
		v.Values[k] /= norm
	}
}
