package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Row 是一条数据集记录在表达式中的视图
type Row struct {
	Text   string // 原始文本
	Clean  string // 归一化后的文本
	Label  int    // 0 = REAL, 1 = FAKE
	Tokens int    // 归一化后的词数
}

func (r Row) input() map[string]any {
	return map[string]any{
		"row": map[string]any{
			"text":   r.Text,
			"clean":  r.Clean,
			"label":  int64(r.Label),
			"length": int64(len(r.Text)),
			"tokens": int64(r.Tokens),
		},
	}
}

// Eval 是数据集行过滤 DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 长度：row.tokens >= 3 / row.length < 5000
//   - 标签：row.label == 1
//   - 文本：!row.text.contains("lorem ipsum") / row.clean.matches("^[a-z ]+$")
//   - 逻辑：row.tokens > 0 && row.label in [0, 1]
//
// 表达式在 NewEval 时编译一次，Evaluate 可并发调用。
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式。空表达式表示全部保留。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	// 编译表达式
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return boolean, got %v", out)
	}

	// 创建程序
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.prg = prg
	return e, nil
}

// Expr 返回原始表达式
func (e *Eval) Expr() string { return e.expr }

// Evaluate 对一行求值，返回是否保留
func (e *Eval) Evaluate(row Row) (bool, error) {
	if e.prg == nil {
		return true, nil
	}

	// 执行表达式
	out, _, err := e.prg.Eval(row.input())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
