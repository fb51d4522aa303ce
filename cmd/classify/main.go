// classify 读取已训练的产物，对标准输入的每一行评论输出 REAL / FAKE。
//
//	-eval file.csv                  对带标签的 CSV 打分并输出分类报告
//	-predict in.csv -out out.csv    对未标注的 CSV 打分，写出原始列加 predicted 列
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rushteam/fakereview/config"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/dataset"
	"github.com/rushteam/fakereview/pipeline"
	"github.com/rushteam/fakereview/pkg/logging"
	"github.com/rushteam/fakereview/service"
	"github.com/rushteam/fakereview/store"
)

// PredictedColumn 是 -predict 模式追加的列名
const PredictedColumn = "predicted"

var (
	configFlag  = flag.String("config", "", "Path to the serving YAML config")
	evalFlag    = flag.String("eval", "", "Labelled CSV to score instead of reading stdin")
	predictFlag = flag.String("predict", "", "Unlabelled CSV to classify instead of reading stdin")
	outFlag     = flag.String("out", "predictions.csv", "Output CSV for -predict")
	textCol     = flag.String("text-column", dataset.DefaultTextColumn, "Text column for -eval and -predict")
	labelCol    = flag.String("label-column", dataset.DefaultLabelColumn, "Label column for -eval")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadServe(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Artifacts.Store)
	if err != nil {
		logger.Error("open artifact store", "error", err)
		os.Exit(1)
	}
	svc, err := service.Load(ctx, st, cfg.Artifacts.Keys)
	st.Close()
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	switch {
	case *evalFlag != "":
		err = evaluate(ctx, svc, *evalFlag, os.Stdout)
	case *predictFlag != "":
		err = predictFile(ctx, svc, *predictFlag, *outFlag, logger)
	default:
		err = classifyLines(ctx, svc, os.Stdin, os.Stdout, logger)
	}
	if err != nil {
		logger.Error("classify failed", "error", err)
		os.Exit(1)
	}
}

func evaluate(ctx context.Context, clf pipeline.Classifier, path string, w io.Writer) error {
	examples, err := dataset.LoadCSVFile(path, dataset.Schema{TextColumn: *textCol, LabelColumn: *labelCol})
	if err != nil {
		return err
	}
	// 空评论无法分类，与训练时一样跳过
	kept := examples[:0]
	for _, ex := range examples {
		if strings.TrimSpace(ex.Text) != "" {
			kept = append(kept, ex)
		}
	}
	_, report, err := pipeline.BatchPredict(ctx, clf, kept)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, report.String())
	return nil
}

func predictFile(ctx context.Context, clf pipeline.Classifier, in, out string, logger *slog.Logger) error {
	table, err := dataset.ReadTableFile(in, dataset.Schema{TextColumn: *textCol})
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := predictTable(ctx, clf, table, f, logger); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("predictions written", "rows", len(table.Rows), "out", out)
	return nil
}

// predictTable 丢弃空白文本行，对其余行分类并写出带 predicted 列的 CSV
func predictTable(ctx context.Context, clf pipeline.Classifier, table *dataset.Table, w io.Writer, logger *slog.Logger) error {
	if dropped := table.DropBlank(); dropped > 0 {
		logger.Warn("skipped rows with empty text", "rows", dropped)
	}
	labels, err := pipeline.Predict(ctx, clf, table.Texts())
	if err != nil {
		return err
	}
	values := make([]string, len(labels))
	for i, l := range labels {
		values[i] = l.String()
	}
	return table.WriteCSV(w, PredictedColumn, values)
}

// classifyLines 每行输出一个标签，空行跳过；单行长度不设上限
func classifyLines(ctx context.Context, clf pipeline.Classifier, r io.Reader, w io.Writer, logger *slog.Logger) error {
	reader := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			label, err := clf.Classify(ctx, line)
			switch {
			case err == nil:
				fmt.Fprintln(w, label)
			case core.IsValidation(err):
				// 空行跳过
			default:
				logger.Error("classify line", "line", lineNo, "error", err)
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}
