package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
)

// 默认产物 key（FileStore 下即文件名）
const (
	DefaultVectorizerKey = "vectorizer.state"
	DefaultModelKey      = "model.state"
)

// Keys 指定两个产物在存储中的 key
type Keys struct {
	Vectorizer string `yaml:"vectorizer"`
	Model      string `yaml:"model"`
}

// DefaultKeys 返回默认 key
func DefaultKeys() Keys {
	return Keys{Vectorizer: DefaultVectorizerKey, Model: DefaultModelKey}
}

func (k Keys) withDefaults() Keys {
	if k.Vectorizer == "" {
		k.Vectorizer = DefaultVectorizerKey
	}
	if k.Model == "" {
		k.Model = DefaultModelKey
	}
	return k
}

// Bundle 是一对配套的冻结产物
type Bundle struct {
	Vectorizer *feature.TFIDFVectorizer
	Model      *model.LRModel
	ModelState model.ModelState
	Meta       Meta
}

// Save 把 Bundle 写入存储。
// 两个产物都先在内存中编码完成，再依次写入向量化器和模型；编码失败时什么都不写。
// 模型写入失败时向量化器会回滚到写入前的内容，存储中原有的一对产物保持可用。
func Save(ctx context.Context, st core.ArtifactStore, keys Keys, b *Bundle) error {
	keys = keys.withDefaults()
	if b == nil || b.Vectorizer == nil || b.Model == nil {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: incomplete bundle")
	}
	meta := b.Meta
	meta.Fingerprint = b.Vectorizer.Fingerprint()
	if err := CheckPair(b.Vectorizer, b.Model, meta); err != nil {
		return err
	}

	state := b.ModelState
	state.Bias = b.Model.Bias
	state.Weights = b.Model.Weights

	vecBlob, err := EncodeVectorizer(b.Vectorizer, meta)
	if err != nil {
		return err
	}
	modelBlob, err := EncodeModel(state, meta)
	if err != nil {
		return err
	}
	prev, err := st.Get(ctx, keys.Vectorizer)
	switch {
	case core.IsStoreNotFound(err):
		prev = nil
	case err != nil:
		return fmt.Errorf("read %s from %s: %w", keys.Vectorizer, st.Name(), err)
	}

	if err := st.Set(ctx, keys.Vectorizer, vecBlob); err != nil {
		return fmt.Errorf("write %s to %s: %w", keys.Vectorizer, st.Name(), err)
	}
	if err := st.Set(ctx, keys.Model, modelBlob); err != nil {
		err = fmt.Errorf("write %s to %s: %w", keys.Model, st.Name(), err)
		if rbErr := rollback(context.WithoutCancel(ctx), st, keys.Vectorizer, prev); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// rollback 把 key 恢复到写入前的状态：原来有值则写回，原来没有则删除
func rollback(ctx context.Context, st core.ArtifactStore, key string, prev []byte) error {
	if prev == nil {
		if err := st.Delete(ctx, key); err != nil && !core.IsStoreNotFound(err) {
			return fmt.Errorf("rollback %s in %s: %w", key, st.Name(), err)
		}
		return nil
	}
	if err := st.Set(ctx, key, prev); err != nil {
		return fmt.Errorf("rollback %s in %s: %w", key, st.Name(), err)
	}
	return nil
}

// Load 从存储读取两个产物并校验配对
func Load(ctx context.Context, st core.ArtifactStore, keys Keys) (*Bundle, error) {
	keys = keys.withDefaults()
	vecBlob, err := st.Get(ctx, keys.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", keys.Vectorizer, st.Name(), err)
	}
	modelBlob, err := st.Get(ctx, keys.Model)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", keys.Model, st.Name(), err)
	}

	vec, _, err := DecodeVectorizer(vecBlob)
	if err != nil {
		return nil, err
	}
	m, state, modelMeta, err := DecodeModel(modelBlob)
	if err != nil {
		return nil, err
	}
	if err := CheckPair(vec, m, modelMeta); err != nil {
		return nil, err
	}
	return &Bundle{Vectorizer: vec, Model: m, ModelState: state, Meta: modelMeta}, nil
}
