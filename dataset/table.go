package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rushteam/fakereview/core"
)

// Table 是只要求文本列的 CSV，用于给未标注的数据打分。
// 保留全部原始列，预测结果作为新列追加在末尾。
type Table struct {
	Header    []string
	Rows      [][]string
	TextIndex int
	comma     rune
}

// ReadTable 读取带表头的 CSV，只校验 schema.TextColumn，标签列即使存在也不解析
func ReadTable(r io.Reader, schema Schema) (*Table, error) {
	schema = schema.withDefaults()
	reader, err := newReader(r, schema)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	textIdx := slices.Index(header, schema.TextColumn)
	if textIdx < 0 {
		return nil, loadError("dataset: missing required column(s) %s, header is %v", schema.TextColumn, header)
	}

	t := &Table{Header: header, TextIndex: textIdx, comma: reader.Comma}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, fmt.Sprintf("dataset: read row %d", line), err)
		}
		if len(record) <= textIdx {
			return nil, loadError("dataset: row %d has %d fields, expected at least %d", line, len(record), textIdx+1)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// ReadTableFile 从文件读取 Table
func ReadTableFile(path string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeTrainingFailure, "dataset: open "+path, err)
	}
	defer f.Close()
	return ReadTable(f, schema)
}

// Texts 按行顺序返回文本列
func (t *Table) Texts() []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[t.TextIndex]
	}
	return out
}

// DropBlank 去掉文本为空白的行，返回去掉的行数
func (t *Table) DropBlank() int {
	before := len(t.Rows)
	t.Rows = slices.DeleteFunc(t.Rows, func(row []string) bool {
		return strings.TrimSpace(row[t.TextIndex]) == ""
	})
	return before - len(t.Rows)
}

// WriteCSV 写出原始列加上名为 column 的新列，values 与 Rows 一一对应
func (t *Table) WriteCSV(w io.Writer, column string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("dataset: %d rows but %d values", len(t.Rows), len(values))
	}
	cw := csv.NewWriter(w)
	if t.comma != 0 {
		cw.Comma = t.comma
	}
	if err := cw.Write(append(slices.Clone(t.Header), column)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := cw.Write(append(slices.Clone(row), values[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
