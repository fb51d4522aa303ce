package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rushteam/fakereview/core"
)

type keywordClassifier struct{ fail string }

func (k keywordClassifier) Classify(_ context.Context, text string) (core.Label, error) {
	if k.fail != "" && text == k.fail {
		return 0, errors.New("classify failed")
	}
	if strings.Contains(text, "amazing") {
		return core.LabelFake, nil
	}
	return core.LabelReal, nil
}

func TestBatchPredict(t *testing.T) {
	examples := []core.LabeledExample{
		{Text: "amazing amazing", Label: core.LabelFake},
		{Text: "arrived late", Label: core.LabelReal},
		{Text: "amazing size", Label: core.LabelReal},
		{Text: "decent", Label: core.LabelReal},
	}
	preds, report, err := BatchPredict(context.Background(), keywordClassifier{}, examples)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.Label{core.LabelFake, core.LabelReal, core.LabelFake, core.LabelReal}
	for i := range want {
		if preds[i] != want[i] {
			t.Errorf("preds[%d] = %v, want %v", i, preds[i], want[i])
		}
	}
	if report.Accuracy != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", report.Accuracy)
	}

	if _, _, err := BatchPredict(context.Background(), keywordClassifier{fail: "decent"}, examples); err == nil {
		t.Error("expected error when one classification fails")
	}
}

func TestPredict(t *testing.T) {
	texts := []string{"amazing", "late", "amazing size", "decent"}
	got, err := Predict(context.Background(), keywordClassifier{}, texts)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.Label{core.LabelFake, core.LabelReal, core.LabelFake, core.LabelReal}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Predict[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got, err := Predict(context.Background(), keywordClassifier{}, nil); err != nil || len(got) != 0 {
		t.Errorf("Predict(nil) = %v, %v", got, err)
	}
	if _, err := Predict(context.Background(), keywordClassifier{fail: "late"}, texts); err == nil {
		t.Error("expected error when one text fails")
	}
}
