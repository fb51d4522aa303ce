package pipeline

import "context"

// Kind 用于标记 Stage 类型，方便观测（例如按阶段打点）。
type Kind string

const (
	KindIO        Kind = "io"        // 读写外部数据：加载数据集、写出产物
	KindTransform Kind = "transform" // 纯映射：归一化、切分
	KindFit       Kind = "fit"       // 拟合：向量化器、分类器
	KindEvaluate  Kind = "evaluate"  // 评估：只观测，不修改产物
)

// 训练阶段名，按执行顺序排列
const (
	StageLoad          = "LOAD"
	StageNormalize     = "NORMALIZE"
	StageSplit         = "SPLIT"
	StageFitVectorizer = "FIT_VECTORIZER"
	StageFitClassifier = "FIT_CLASSIFIER"
	StageEvaluate      = "EVALUATE"
	StageSerialize     = "SERIALIZE"
)

// Stage 是训练 Pipeline 的最小单元。
// 统一采用“读写同一个 State”的形态，每个阶段只依赖前序阶段写入的字段。
type Stage interface {
	Name() string
	Kind() Kind
	Process(ctx context.Context, st *State) error
}
