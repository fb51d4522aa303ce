// Package text 提供训练与推理共用的文本归一化。
//
// 训练期与推理期必须调用同一个 Normalize：两端任何差异都会在没有报错的情况下拉低准确率。
package text

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// URL 在任意 Unicode 空白处截断，而不只是 ASCII 空白
	urlPattern     = regexp.MustCompile(`https?://[^\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+|www\.[^\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+`)
	htmlTagPattern = regexp.MustCompile(`<.*?>`)
	nonAlnumSpace  = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Normalize 把任意原始文本映射为规范形式，步骤依次为：
//  1. 转小写
//  2. http/https URL 与 www. 开头的片段替换为空格
//  3. HTML 标签（<...>，非贪婪）替换为空格
//  4. 非 [a-z0-9] 且非空白的字符替换为空格
//  5. 合并连续空白并去掉首尾空白
//
// 输出只含小写 ASCII 字母、数字和单个空格。Normalize 是幂等的。
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = urlPattern.ReplaceAllString(s, " ")
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = nonAlnumSpace.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeAny 接受任意值，nil 视为空串，其它非字符串值按 %v 格式化后归一化。
func NormalizeAny(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Normalize(val)
	case *string:
		if val == nil {
			return ""
		}
		return Normalize(*val)
	default:
		return Normalize(fmt.Sprint(val))
	}
}

// Tokens 按空格切分已归一化的文本
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// Normalizer 是归一化的接口形态，便于在流水线中注入
type Normalizer interface {
	Normalize(s string) string
}

// NormalizerFunc 把普通函数适配为 Normalizer
type NormalizerFunc func(string) string

func (f NormalizerFunc) Normalize(s string) string { return f(s) }

// Default 是全局唯一的默认归一化器，训练与推理都使用它。
var Default Normalizer = NormalizerFunc(Normalize)
