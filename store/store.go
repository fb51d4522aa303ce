package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.ArtifactStore 接口。
//
// 示例：
//   var st core.ArtifactStore = NewFileStore("./artifacts")
//   var st core.ArtifactStore = NewMemoryStore()

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/fakereview/core"
)

// Config 描述产物存储后端
type Config struct {
	Backend string `yaml:"backend"` // file / memory / redis
	Dir     string `yaml:"dir"`     // file
	Addr    string `yaml:"addr"`    // redis
	DB      int    `yaml:"db"`      // redis
	Prefix  string `yaml:"prefix"`  // redis key 前缀
}

// Open 按配置创建存储后端，默认为当前目录下的 FileStore
func Open(ctx context.Context, cfg Config) (core.ArtifactStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		return NewFileStore(dir), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.Addr, cfg.DB, cfg.Prefix)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported, fmt.Sprintf("store: unknown backend %q", cfg.Backend))
	}
}
