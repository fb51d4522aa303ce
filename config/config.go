// Package config 加载训练与推理两个入口的 YAML 配置。
//
// 优先级：环境变量 > YAML 文件 > 默认值。进程启动时会先尝试加载当前目录的 .env。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/dataset"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
	"github.com/rushteam/fakereview/store"
)

// ArtifactConfig 描述产物存放位置
type ArtifactConfig struct {
	Store store.Config  `yaml:"store"`
	Keys  artifact.Keys `yaml:"keys"`
}

// DatasetConfig 描述训练数据
type DatasetConfig struct {
	Path   string         `yaml:"path"`
	Schema dataset.Schema `yaml:"schema"`
	Filter string         `yaml:"filter"` // CEL 表达式，如 row.tokens > 0
}

// SplitConfig 描述训练/测试切分
type SplitConfig struct {
	TestRatio float64 `yaml:"test_ratio"`
	Seed      int64   `yaml:"seed"`
}

// VectorizerConfig 描述 TF-IDF 参数
type VectorizerConfig struct {
	MaxFeatures    int          `yaml:"max_features"`
	MinTokenLength int          `yaml:"min_token_length"`
	SublinearTF    bool         `yaml:"sublinear_tf"`
	Norm           feature.Norm `yaml:"norm"`
}

// Options 转换为向量化器选项
func (c VectorizerConfig) Options() []feature.Option {
	return []feature.Option{
		feature.WithMaxFeatures(c.MaxFeatures),
		feature.WithMinTokenLength(c.MinTokenLength),
		feature.WithSublinearTF(c.SublinearTF),
		feature.WithNorm(c.Norm),
	}
}

// ClassifierConfig 描述逻辑回归参数
type ClassifierConfig struct {
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
	Seed    int64   `yaml:"seed"`
}

// Trainer 构建训练器
func (c ClassifierConfig) Trainer() *model.LRTrainer {
	return &model.LRTrainer{C: c.C, MaxIter: c.MaxIter, Tol: c.Tol, Seed: c.Seed}
}

// TrainConfig 是 cmd/train 的配置
type TrainConfig struct {
	LogLevel   string           `yaml:"log_level"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Split      SplitConfig      `yaml:"split"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Artifacts  ArtifactConfig   `yaml:"artifacts"`
}

// ServeConfig 是 cmd/serve 与 cmd/classify 的配置
type ServeConfig struct {
	LogLevel  string         `yaml:"log_level"`
	Addr      string         `yaml:"addr"`
	Artifacts ArtifactConfig `yaml:"artifacts"`
}

// DefaultTrainConfig 返回训练默认配置
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{
		LogLevel: "info",
		Dataset: DatasetConfig{
			Path:   "DataBase/custom_reviews_200.csv",
			Schema: dataset.DefaultSchema(),
		},
		Split: SplitConfig{TestRatio: dataset.DefaultTestRatio, Seed: dataset.DefaultSeed},
		Vectorizer: VectorizerConfig{
			MaxFeatures:    feature.DefaultMaxFeatures,
			MinTokenLength: 1,
			Norm:           feature.NormL2,
		},
		Classifier: ClassifierConfig{
			C:       model.DefaultC,
			MaxIter: model.DefaultMaxIter,
			Tol:     model.DefaultTol,
			Seed:    model.DefaultSeed,
		},
		Artifacts: defaultArtifacts(),
	}
}

// DefaultServeConfig 返回推理默认配置
func DefaultServeConfig() *ServeConfig {
	return &ServeConfig{
		LogLevel:  "info",
		Addr:      ":5000",
		Artifacts: defaultArtifacts(),
	}
}

func defaultArtifacts() ArtifactConfig {
	return ArtifactConfig{
		Store: store.Config{Backend: "file", Dir: "."},
		Keys:  artifact.DefaultKeys(),
	}
}

// LoadTrain 读取训练配置，path 为空时只使用默认值与环境变量
func LoadTrain(path string) (*TrainConfig, error) {
	cfg := DefaultTrainConfig()
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	setString(&cfg.LogLevel, "FAKEREVIEW_LOG_LEVEL")
	setString(&cfg.Dataset.Path, "FAKEREVIEW_DATASET")
	setString(&cfg.Dataset.Filter, "FAKEREVIEW_DATASET_FILTER")
	if err := setInt64(&cfg.Split.Seed, "FAKEREVIEW_SEED"); err != nil {
		return nil, err
	}
	applyArtifactEnv(&cfg.Artifacts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServe 读取推理配置
func LoadServe(path string) (*ServeConfig, error) {
	cfg := DefaultServeConfig()
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	setString(&cfg.LogLevel, "FAKEREVIEW_LOG_LEVEL")
	setString(&cfg.Addr, "FAKEREVIEW_ADDR")
	applyArtifactEnv(&cfg.Artifacts)
	if cfg.Addr == "" {
		return nil, fmt.Errorf("config: addr is required")
	}
	return cfg, nil
}

// Validate 校验训练配置
func (c *TrainConfig) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("config: dataset.path is required")
	}
	if !(c.Split.TestRatio > 0 && c.Split.TestRatio < 1) {
		return fmt.Errorf("config: split.test_ratio must be in (0, 1), got %v", c.Split.TestRatio)
	}
	if c.Vectorizer.MaxFeatures < 0 {
		return fmt.Errorf("config: vectorizer.max_features must be >= 0, got %d", c.Vectorizer.MaxFeatures)
	}
	switch c.Vectorizer.Norm {
	case feature.NormL2, feature.NormNone:
	default:
		return fmt.Errorf("config: vectorizer.norm must be %q or %q, got %q", feature.NormL2, feature.NormNone, c.Vectorizer.Norm)
	}
	if c.Classifier.C <= 0 {
		return fmt.Errorf("config: classifier.c must be > 0, got %v", c.Classifier.C)
	}
	if c.Classifier.MaxIter <= 0 {
		return fmt.Errorf("config: classifier.max_iter must be > 0, got %d", c.Classifier.MaxIter)
	}
	return nil
}

func loadYAML(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func applyArtifactEnv(a *ArtifactConfig) {
	setString(&a.Store.Backend, "FAKEREVIEW_STORE")
	setString(&a.Store.Dir, "FAKEREVIEW_ARTIFACT_DIR")
	setString(&a.Store.Addr, "FAKEREVIEW_REDIS_ADDR")
	setString(&a.Keys.Vectorizer, "FAKEREVIEW_VECTORIZER_KEY")
	setString(&a.Keys.Model, "FAKEREVIEW_MODEL_KEY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}
