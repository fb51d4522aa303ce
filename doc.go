// Package fakereview 是一个虚假评论检测工具包。
//
// 设计要点：
// - 训练离线完成：LOAD → NORMALIZE → SPLIT → FIT_VECTORIZER → FIT_CLASSIFIER → EVALUATE → SERIALIZE
// - 产物成对出现：TF-IDF 向量化器与 LR 模型通过指纹绑定，不配套时拒绝启动
// - 推理只读：服务启动时加载一次，之后可被并发请求共享
package fakereview

import (
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/pipeline"
	"github.com/rushteam/fakereview/service"
)

// 轻量 facade：便于用户直接 import "fakereview" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Stage = pipeline.Stage
type Service = service.Service
type Label = core.Label
type LabeledExample = core.LabeledExample

const (
	LabelReal = core.LabelReal
	LabelFake = core.LabelFake
)

var (
	Train        = pipeline.Train
	Load         = service.Load
	NewService   = service.NewService
	BatchPredict = pipeline.BatchPredict
)
