// Package artifact 负责向量化器与模型两个产物的编码、配对校验与存取。
//
// 编码格式：JSON 信封（kind / 版本 / 指纹 / run id / 时间 / payload）整体经 zstd 压缩。
// 模型信封记录训练时所用向量化器的指纹，加载时两者必须一致。
package artifact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
)

// FormatVersion 是当前信封格式版本
const FormatVersion = 1

const (
	KindVectorizer = "tfidf_vectorizer"
	KindModel      = "lr_model"
)

// Meta 是产物的元信息
type Meta struct {
	// Fingerprint 对向量化器是其自身指纹，对模型是训练时所配向量化器的指纹
	Fingerprint string    `json:"fingerprint"`
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type envelope struct {
	Kind          string          `json:"kind"`
	FormatVersion int             `json:"format_version"`
	Meta          Meta            `json:"meta"`
	Payload       json.RawMessage `json:"payload"`
}

func encode(kind string, meta Meta, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	data, err := json.Marshal(envelope{Kind: kind, FormatVersion: FormatVersion, Meta: meta, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decode(kind string, blob []byte) (*envelope, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, corrupt(kind, "decompress", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, corrupt(kind, "parse envelope", err)
	}
	if env.Kind != kind {
		return nil, corrupt(kind, fmt.Sprintf("unexpected kind %q", env.Kind), nil)
	}
	if env.FormatVersion != FormatVersion {
		return nil, corrupt(kind, fmt.Sprintf("unsupported format version %d", env.FormatVersion), nil)
	}
	return &env, nil
}

func corrupt(kind, what string, err error) error {
	return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, fmt.Sprintf("artifact %s: %s", kind, what), err)
}

// EncodeVectorizer 编码向量化器，meta.Fingerprint 会被覆盖为向量化器自身指纹
func EncodeVectorizer(v *feature.TFIDFVectorizer, meta Meta) ([]byte, error) {
	if v == nil || !v.Fitted() {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: vectorizer is not fitted")
	}
	meta.Fingerprint = v.Fingerprint()
	return encode(KindVectorizer, meta, v.State())
}

// DecodeVectorizer 解码向量化器，并校验内容与记录的指纹一致
func DecodeVectorizer(blob []byte) (*feature.TFIDFVectorizer, Meta, error) {
	env, err := decode(KindVectorizer, blob)
	if err != nil {
		return nil, Meta{}, err
	}
	var state feature.VectorizerState
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		return nil, Meta{}, corrupt(KindVectorizer, "parse payload", err)
	}
	v, err := feature.FromState(state)
	if err != nil {
		return nil, Meta{}, corrupt(KindVectorizer, "restore state", err)
	}
	if fp := v.Fingerprint(); fp != env.Meta.Fingerprint {
		return nil, Meta{}, corrupt(KindVectorizer, fmt.Sprintf("fingerprint %s does not match content %s", env.Meta.Fingerprint, fp), nil)
	}
	return v, env.Meta, nil
}

// EncodeModel 编码模型，meta.Fingerprint 必须是训练所用向量化器的指纹
func EncodeModel(state model.ModelState, meta Meta) ([]byte, error) {
	if meta.Fingerprint == "" {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: model requires the vectorizer fingerprint")
	}
	if len(state.Weights) == 0 {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: model has no weights")
	}
	return encode(KindModel, meta, state)
}

// DecodeModel 解码模型
func DecodeModel(blob []byte) (*model.LRModel, model.ModelState, Meta, error) {
	env, err := decode(KindModel, blob)
	if err != nil {
		return nil, model.ModelState{}, Meta{}, err
	}
	var state model.ModelState
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		return nil, model.ModelState{}, Meta{}, corrupt(KindModel, "parse payload", err)
	}
	m, err := model.LRFromState(state)
	if err != nil {
		return nil, model.ModelState{}, Meta{}, corrupt(KindModel, "restore state", err)
	}
	return m, state, env.Meta, nil
}

// CheckPair 校验模型与向量化器是否配套：指纹相同且维度一致
func CheckPair(v *feature.TFIDFVectorizer, m *model.LRModel, modelMeta Meta) error {
	if fp := v.Fingerprint(); modelMeta.Fingerprint != fp {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeArtifactMismatch,
			fmt.Sprintf("artifact: model was trained against vectorizer %q, loaded vectorizer is %q", modelMeta.Fingerprint, fp))
	}
	if m.Dim() != v.VocabularySize() {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeArtifactMismatch,
			fmt.Sprintf("artifact: model dimension %d != vocabulary size %d", m.Dim(), v.VocabularySize()))
	}
	return nil
}
