package feature

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/text"
)

// DefaultMaxFeatures 是词表大小上限的默认值
const DefaultMaxFeatures = 1000

// Norm 是 Transform 输出的归一化方式
type Norm string

const (
	NormL2   Norm = "l2"
	NormNone Norm = "none"
)

// TFIDFVectorizer 把归一化文本映射为 TF-IDF 稀疏向量。
//
// 拟合：
//   - 词按空格切分（归一化后的文本只含字母数字）
//   - 按全语料词频总和排序保留前 MaxFeatures 个词，词频相同时按字典序
//   - 保留的词按字典序分配列号，相同输入重复拟合得到完全相同的词表
//   - 平滑 IDF: idf = ln((1+n)/(1+df)) + 1
//
// 转换：
//   - 权重 = 词频 × idf，默认再做 L2 归一化
//   - 词表外的词直接丢弃，不报错
//
// 拟合完成后只读，可并发调用 Transform。
type TFIDFVectorizer struct {
	maxFeatures    int
	minTokenLength int
	sublinearTF    bool
	norm           Norm

	vocabulary []string       // 列号 -> 词
	index      map[string]int // 词 -> 列号
	idf        []float64
	docCount   int
}

// Option 向量化器配置选项
type Option func(*TFIDFVectorizer)

// WithMaxFeatures 设置词表大小上限，<=0 表示不限制
func WithMaxFeatures(n int) Option {
	return func(v *TFIDFVectorizer) {
		v.maxFeatures = n
	}
}

// WithMinTokenLength 丢弃短于 n 个字符的词
func WithMinTokenLength(n int) Option {
	return func(v *TFIDFVectorizer) {
		v.minTokenLength = n
	}
}

// WithSublinearTF 使用 1 + ln(tf) 代替原始词频
func WithSublinearTF(enabled bool) Option {
	return func(v *TFIDFVectorizer) {
		v.sublinearTF = enabled
	}
}

// WithNorm 设置输出归一化方式
func WithNorm(norm Norm) Option {
	return func(v *TFIDFVectorizer) {
		v.norm = norm
	}
}

// NewTFIDFVectorizer 创建未拟合的向量化器
func NewTFIDFVectorizer(opts ...Option) *TFIDFVectorizer {
	v := &TFIDFVectorizer{
		maxFeatures:    DefaultMaxFeatures,
		minTokenLength: 1,
		norm:           NormL2,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *TFIDFVectorizer) tokens(doc string) []string {
	fields := text.Tokens(doc)
	if v.minTokenLength <= 1 {
		return fields
	}
	kept := fields[:0]
	for _, tok := range fields {
		if len(tok) >= v.minTokenLength {
			kept = append(kept, tok)
		}
	}
	return kept
}

// Fit 在训练语料上学习词表与 IDF。
// 语料为空，或所有文档都不含任何词时返回 INVALID_INPUT 错误。
func (v *TFIDFVectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "tfidf: empty corpus")
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokens(doc) {
			termFreq[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}
	if len(termFreq) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "tfidf: empty vocabulary, corpus contains only stop characters")
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		// 稳定排序：词频相同的词保持字典序
		sort.SliceStable(terms, func(i, j int) bool {
			return termFreq[terms[i]] > termFreq[terms[j]]
		})
		terms = terms[:v.maxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(corpus))
	v.vocabulary = terms
	v.index = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.index[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	v.docCount = len(corpus)
	return nil
}

// Fitted 报告是否已拟合
func (v *TFIDFVectorizer) Fitted() bool { return v.index != nil }

// VocabularySize 返回词表大小，即输出向量维度
func (v *TFIDFVectorizer) VocabularySize() int { return len(v.vocabulary) }

// Vocabulary 返回按列号排列的词表副本
func (v *TFIDFVectorizer) Vocabulary() []string {
	out := make([]string, len(v.vocabulary))
	copy(out, v.vocabulary)
	return out
}

// IDF 返回按列号排列的 idf 副本
func (v *TFIDFVectorizer) IDF() []float64 {
	out := make([]float64, len(v.idf))
	copy(out, v.idf)
	return out
}

// Transform 将一条已归一化文本转换为稀疏向量，维度恒为 VocabularySize()。
// 空文本或全部为词表外词时返回全零向量。
func (v *TFIDFVectorizer) Transform(doc string) SparseVector {
	vec := SparseVector{Dim: len(v.vocabulary)}
	counts := make(map[int]int)
	for _, tok := range v.tokens(doc) {
		if idx, ok := v.index[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return vec
	}

	vec.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	vec.Values = make([]float64, len(vec.Indices))
	for k, idx := range vec.Indices {
		tf := float64(counts[idx])
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		vec.Values[k] = tf * v.idf[idx]
	}
	if v.norm == NormL2 {
		vec.normalizeL2()
	}
	return vec
}

// TransformBatch 并发转换一批文本，输出顺序与输入一致
func (v *TFIDFVectorizer) TransformBatch(ctx context.Context, docs []string) ([]SparseVector, error) {
	out := make([]SparseVector, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = v.Transform(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fingerprint 返回词表 + idf + 配置的 xxhash64 指纹（16 位十六进制）。
// 模型产物保存该指纹，加载时据此判断两个产物是否配套。
func (v *TFIDFVectorizer) Fingerprint() string {
	h := xxhash.New()
	var buf [8]byte
	for i, term := range v.vocabulary {
		_, _ = h.WriteString(term)
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.idf[i]))
		_, _ = h.Write(buf[:])
	}
	_, _ = fmt.Fprintf(h, "|min=%d|sublinear=%t|norm=%s", v.minTokenLength, v.sublinearTF, v.norm)
	return fmt.Sprintf("%016x", h.Sum64())
}

// VectorizerState 是向量化器的可序列化状态
type VectorizerState struct {
	Vocabulary     []string  `json:"vocabulary"`
	IDF            []float64 `json:"idf"`
	MaxFeatures    int       `json:"max_features"`
	MinTokenLength int       `json:"min_token_length"`
	SublinearTF    bool      `json:"sublinear_tf"`
	Norm           Norm      `json:"norm"`
	DocCount       int       `json:"doc_count"`
}

// State 导出拟合后的状态
func (v *TFIDFVectorizer) State() VectorizerState {
	return VectorizerState{
		Vocabulary:     v.Vocabulary(),
		IDF:            v.IDF(),
		MaxFeatures:    v.maxFeatures,
		MinTokenLength: v.minTokenLength,
		SublinearTF:    v.sublinearTF,
		Norm:           v.norm,
		DocCount:       v.docCount,
	}
}

// FromState 由序列化状态重建向量化器，并校验状态一致性
func FromState(s VectorizerState) (*TFIDFVectorizer, error) {
	if len(s.Vocabulary) == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "tfidf state: empty vocabulary")
	}
	if len(s.Vocabulary) != len(s.IDF) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			fmt.Sprintf("tfidf state: vocabulary size %d != idf size %d", len(s.Vocabulary), len(s.IDF)))
	}
	switch s.Norm {
	case NormL2, NormNone:
	case "":
		s.Norm = NormL2
	default:
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, fmt.Sprintf("tfidf state: unknown norm %q", s.Norm))
	}

	v := &TFIDFVectorizer{
		maxFeatures:    s.MaxFeatures,
		minTokenLength: s.MinTokenLength,
		sublinearTF:    s.SublinearTF,
		norm:           s.Norm,
		docCount:       s.DocCount,
		vocabulary:     make([]string, len(s.Vocabulary)),
		idf:            make([]float64, len(s.IDF)),
		index:          make(map[string]int, len(s.Vocabulary)),
	}
	copy(v.vocabulary, s.Vocabulary)
	copy(v.idf, s.IDF)
	for i, term := range v.vocabulary {
		if _, dup := v.index[term]; dup {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, fmt.Sprintf("tfidf state: duplicate term %q", term))
		}
		if math.IsNaN(v.idf[i]) || math.IsInf(v.idf[i], 0) {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, fmt.Sprintf("tfidf state: invalid idf for term %q", term))
		}
		v.index[term] = i
	}
	return v, nil
}
