// Package dataset 负责训练数据的加载、校验、过滤与分层切分。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rushteam/fakereview/core"
)

// 默认列名
const (
	DefaultTextColumn  = "text"
	DefaultLabelColumn = "label"
)

// Schema 描述表格数据集的列约定
type Schema struct {
	TextColumn  string `yaml:"text_column"`
	LabelColumn string `yaml:"label_column"`
	Delimiter   string `yaml:"delimiter"` // 单个字符，默认 ","
}

// DefaultSchema 返回 text/label 两列、逗号分隔的默认约定
func DefaultSchema() Schema {
	return Schema{TextColumn: DefaultTextColumn, LabelColumn: DefaultLabelColumn, Delimiter: ","}
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	if s.TextColumn == "" {
		s.TextColumn = d.TextColumn
	}
	if s.LabelColumn == "" {
		s.LabelColumn = d.LabelColumn
	}
	if s.Delimiter == "" {
		s.Delimiter = d.Delimiter
	}
	return s
}

func (s Schema) delimiter() (rune, error) {
	d := s.Delimiter
	if d == `\t` || d == "tab" {
		return '\t', nil
	}
	r := []rune(d)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", d)
	}
	return r[0], nil
}

func loadError(format string, args ...any) error {
	return core.NewDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, fmt.Sprintf(format, args...))
}

// LoadCSV 读取带表头的 CSV，要求包含 Schema 指定的文本列和标签列。
// 列缺失、标签无法解析都会立即失败，不会把畸形数据带进后续阶段。
func LoadCSV(r io.Reader, schema Schema) ([]core.LabeledExample, error) {
	schema = schema.withDefaults()
	reader, err := newReader(r, schema)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch name {
		case schema.TextColumn:
			textIdx = i
		case schema.LabelColumn:
			labelIdx = i
		}
	}
	var missing []string
	if textIdx < 0 {
		missing = append(missing, schema.TextColumn)
	}
	if labelIdx < 0 {
		missing = append(missing, schema.LabelColumn)
	}
	if len(missing) > 0 {
		return nil, loadError("dataset: missing required column(s) %s, header is %v", strings.Join(missing, ", "), header)
	}

	var examples []core.LabeledExample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, fmt.Sprintf("dataset: read row %d", line), err)
		}
		if len(record) <= textIdx || len(record) <= labelIdx {
			return nil, loadError("dataset: row %d has %d fields, expected at least %d", line, len(record), max(textIdx, labelIdx)+1)
		}
		label, err := core.ParseLabel(record[labelIdx])
		if err != nil {
			return nil, loadError("dataset: row %d: %v", line, err)
		}
		examples = append(examples, core.LabeledExample{Text: record[textIdx], Label: label})
	}
	return examples, nil
}

func newReader(r io.Reader, schema Schema) (*csv.Reader, error) {
	delim, err := schema.delimiter()
	if err != nil {
		return nil, loadError("dataset: %v", err)
	}
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader, nil
}

// readHeader 读取表头，去掉 UTF-8 BOM 与列名两侧空白
func readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, loadError("dataset: missing header row")
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, "dataset: read header", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}
	return header, nil
}

// LoadCSVFile 从文件读取数据集
func LoadCSVFile(path string, schema Schema) ([]core.LabeledExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, "dataset: open "+path, err)
	}
	defer f.Close()
	return LoadCSV(f, schema)
}
