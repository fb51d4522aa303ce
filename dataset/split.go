package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rushteam/fakereview/core"
)

// 切分默认值
const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// Split 是一次训练/测试切分的结果，保存的是原始样本下标（升序）
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit 按标签分层切分，两侧都保持整体的类别比例。
//
// 测试集总量为 ceil(n * testRatio)，按类别占比分配，余数给小数部分最大的类别
// （相同时给编码较小的类别）；每个类别在训练集和测试集中都至少保留一条。
// 同一 seed + 同一输入总是得到同一切分。
func StratifiedSplit(labels []core.Label, testRatio float64, seed uint64) (Split, error) {
	if !(testRatio > 0 && testRatio < 1) {
		return Split{}, loadError("dataset: test ratio must be in (0, 1), got %v", testRatio)
	}
	n := len(labels)
	if n < 2 {
		return Split{}, loadError("dataset: need at least 2 examples to split, got %d", n)
	}

	byClass := make(map[core.Label][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]core.Label, 0, len(byClass))
	for l, idx := range byClass {
		if len(idx) < 2 {
			return Split{}, loadError("dataset: class %s has only %d example, need at least 2 for a stratified split", l, len(idx))
		}
		classes = append(classes, l)
	}
	if len(classes) < len(core.Labels) {
		return Split{}, loadError("dataset: labels contain a single class, need both %s and %s", core.LabelReal, core.LabelFake)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	alloc := allocate(classes, byClass, int(math.Ceil(float64(n)*testRatio)), n)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var split Split
	for _, l := range classes {
		idx := append([]int(nil), byClass[l]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		k := alloc[l]
		split.Test = append(split.Test, idx[:k]...)
		split.Train = append(split.Train, idx[k:]...)
	}
	sort.Ints(split.Train)
	sort.Ints(split.Test)
	return split, nil
}

func allocate(classes []core.Label, byClass map[core.Label][]int, nTest, n int) map[core.Label]int {
	type frac struct {
		label core.Label
		rem   float64
	}
	alloc := make(map[core.Label]int, len(classes))
	fracs := make([]frac, 0, len(classes))
	assigned := 0
	for _, l := range classes {
		exact := float64(nTest) * float64(len(byClass[l])) / float64(n)
		alloc[l] = int(math.Floor(exact))
		assigned += alloc[l]
		fracs = append(fracs, frac{label: l, rem: exact - math.Floor(exact)})
	}
	sort.SliceStable(fracs, func(i, j int) bool { return fracs[i].rem > fracs[j].rem })
	for i := 0; assigned < nTest && i < len(fracs); i++ {
		alloc[fracs[i].label]++
		assigned++
	}
	for _, l := range classes {
		size := len(byClass[l])
		alloc[l] = min(max(alloc[l], 1), size-1)
	}
	return alloc
}

// Partition 按切分结果从样本中取出两部分
func Partition[T any](items []T, split Split) (train, test []T, err error) {
	pick := func(idx []int) ([]T, error) {
		out := make([]T, len(idx))
		for k, i := range idx {
			if i < 0 || i >= len(items) {
				return nil, fmt.Errorf("dataset: split index %d out of range [0, %d)", i, len(items))
			}
			out[k] = items[i]
		}
		return out, nil
	}
	if train, err = pick(split.Train); err != nil {
		return nil, nil, err
	}
	if test, err = pick(split.Test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
