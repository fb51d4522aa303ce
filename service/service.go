// Package service 提供加载一次、只读共享的推理服务。
//
// 启动时通过 Load 从存储读取一对配套产物（TF-IDF 向量化器 + LR 模型），失败即为
// STARTUP_FAILURE，调用方应在对外提供服务前退出。加载成功后 Service 不再修改，
// 可被任意多个请求并发调用，请求路径上没有锁。
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
	"github.com/rushteam/fakereview/text"
)

// Service 持有冻结的向量化器与分类器
type Service struct {
	vectorizer *feature.TFIDFVectorizer
	classifier *model.LRModel
	normalizer text.Normalizer
	meta       artifact.Meta
}

// Info 描述当前加载的产物
type Info struct {
	Fingerprint    string `json:"fingerprint"`
	VocabularySize int    `json:"vocabulary_size"`
	RunID          string `json:"run_id,omitempty"`
	Classifier     string `json:"classifier"`
}

func startupError(message string, err error) error {
	if err == nil {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeStartupFailure, message)
	}
	return core.WrapDomainError(core.ModuleService, core.ErrorCodeStartupFailure, message, err)
}

// NewService 直接由内存中的产物构建服务，用于依赖注入与测试。
// 两者必须已拟合且维度一致。
func NewService(vec *feature.TFIDFVectorizer, clf *model.LRModel) (*Service, error) {
	return newService(vec, clf, artifact.Meta{})
}

func newService(vec *feature.TFIDFVectorizer, clf *model.LRModel, meta artifact.Meta) (*Service, error) {
	if vec == nil || !vec.Fitted() {
		return nil, startupError("service: vectorizer is not fitted", nil)
	}
	if clf == nil || clf.Dim() == 0 {
		return nil, startupError("service: classifier is not trained", nil)
	}
	if vec.VocabularySize() != clf.Dim() {
		return nil, startupError(fmt.Sprintf("service: vectorizer dimension %d does not match classifier dimension %d",
			vec.VocabularySize(), clf.Dim()), nil)
	}
	if meta.Fingerprint == "" {
		meta.Fingerprint = vec.Fingerprint()
	}
	return &Service{
		vectorizer: vec,
		classifier: clf,
		normalizer: text.Default,
		meta:       meta,
	}, nil
}

// Load 从存储读取并校验一对产物，是服务启动时唯一的阻塞初始化
func Load(ctx context.Context, st core.ArtifactStore, keys artifact.Keys) (*Service, error) {
	if st == nil {
		return nil, startupError("service: no artifact store", nil)
	}
	b, err := artifact.Load(ctx, st, keys)
	if err != nil {
		return nil, startupError(fmt.Sprintf("service: load artifacts from %s", st.Name()), err)
	}
	return newService(b.Vectorizer, b.Model, b.Meta)
}

// Classify 对一条评论给出 REAL / FAKE。
//
// 空白输入返回 INVALID_INPUT；向量化或预测过程中的任何失败（包括 panic）
// 返回 INTERNAL_ERROR，服务本身不受影响。空串本身在核心路径上仍有合法标签：
// Transform("") 得到零向量，Predict 只看截距；归一化后为空的非空白输入走的就是这条路径。
func (s *Service) Classify(ctx context.Context, review string) (label core.Label, err error) {
	if strings.TrimSpace(review) == "" {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: empty review")
	}
	if err := ctx.Err(); err != nil {
		return 0, core.WrapDomainError(core.ModuleService, core.ErrorCodeInternalError, "service: classify", err)
	}
	defer func() {
		if r := recover(); r != nil {
			label = 0
			err = core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, fmt.Sprintf("service: prediction panicked: %v", r))
		}
	}()

	x := s.vectorizer.Transform(s.normalizer.Normalize(review))
	label, err = s.classifier.Predict(x)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleService, core.ErrorCodeInternalError, "service: predict", err)
	}
	return label, nil
}

// Info 返回当前加载的产物信息
func (s *Service) Info() Info {
	return Info{
		Fingerprint:    s.meta.Fingerprint,
		VocabularySize: s.vectorizer.VocabularySize(),
		RunID:          s.meta.RunID,
		Classifier:     s.classifier.Name(),
	}
}
