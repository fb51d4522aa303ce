package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/feature"
	"github.com/rushteam/fakereview/model"
	"github.com/rushteam/fakereview/store"
	"github.com/rushteam/fakereview/text"
)

var corpus = []struct {
	text  string
	label core.Label
}{
	{"amazing best product ever buy now", core.LabelFake},
	{"best ever amazing must buy", core.LabelFake},
	{"incredible amazing perfect best", core.LabelFake},
	{"perfect must buy incredible", core.LabelFake},
	{"delivery arrived late box damaged", core.LabelReal},
	{"size runs small returned it", core.LabelReal},
	{"decent quality arrived on time", core.LabelReal},
	{"average product delivery slow", core.LabelReal},
}

func trained(t *testing.T) (*feature.TFIDFVectorizer, *model.LRModel, model.ModelState) {
	t.Helper()
	docs := make([]string, len(corpus))
	labels := make([]core.Label, len(corpus))
	for i, c := range corpus {
		docs[i] = text.Normalize(c.text)
		labels[i] = c.label
	}
	vec := feature.NewTFIDFVectorizer()
	if err := vec.Fit(docs); err != nil {
		t.Fatal(err)
	}
	xs, err := vec.TransformBatch(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	trainer := &model.LRTrainer{C: 10}
	m, res, err := trainer.FitLR(xs, labels)
	if err != nil {
		t.Fatal(err)
	}
	return vec, m, trainer.State(m, res)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	vec, m, _ := trained(t)
	svc, err := NewService(vec, m)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestService_Classify(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name   string
		review string
		want   core.Label
	}{
		{name: "fake words", review: "AMAZING!!! Best product EVER, must buy", want: core.LabelFake},
		{name: "real words", review: "Delivery arrived late and the box was damaged", want: core.LabelReal},
		{name: "markup and urls ignored", review: "<p>amazing best</p> https://spam.example/x", want: core.LabelFake},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Classify(context.Background(), tt.review)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.review, got, tt.want)
			}
		})
	}
}

func TestService_ClassifyValidation(t *testing.T) {
	svc := newTestService(t)
	for _, review := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Classify(context.Background(), review); !core.IsValidation(err) {
			t.Errorf("Classify(%q): expected INVALID_INPUT, got %v", review, err)
		}
	}
}

// 归一化后为空的文本得到零向量，仍然给出合法标签
func TestService_ClassifyOnlyPunctuation(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Classify(context.Background(), "?!?! ... <br/>")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Valid() {
		t.Errorf("invalid label %v", got)
	}
}

func TestService_ClassifyRecoversPanic(t *testing.T) {
	svc := newTestService(t)
	svc.normalizer = text.NormalizerFunc(func(string) string { panic("boom") })
	_, err := svc.Classify(context.Background(), "anything")
	if !core.IsInferenceFailure(err) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestService_Concurrent(t *testing.T) {
	svc := newTestService(t)
	want, err := svc.Classify(context.Background(), "amazing best ever")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Classify(context.Background(), "amazing best ever")
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, "label changed under concurrency")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNewService_Invalid(t *testing.T) {
	vec, m, _ := trained(t)
	tests := []struct {
		name string
		vec  *feature.TFIDFVectorizer
		clf  *model.LRModel
	}{
		{name: "nil vectorizer", vec: nil, clf: m},
		{name: "unfitted vectorizer", vec: feature.NewTFIDFVectorizer(), clf: m},
		{name: "nil classifier", vec: vec, clf: nil},
		{name: "dimension mismatch", vec: vec, clf: model.NewLRModel([]float64{1, 2}, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(tt.vec, tt.clf); !core.IsStartupFailure(err) {
				t.Errorf("expected STARTUP_FAILURE, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	vec, m, state := trained(t)
	st := store.NewMemoryStore()
	keys := artifact.DefaultKeys()
	err := artifact.Save(ctx, st, keys, &artifact.Bundle{
		Vectorizer: vec,
		Model:      m,
		ModelState: state,
		Meta:       artifact.Meta{RunID: "run-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	svc, err := Load(ctx, st, keys)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	info := svc.Info()
	if info.Fingerprint != vec.Fingerprint() || info.VocabularySize != vec.VocabularySize() || info.RunID != "run-1" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Classifier != "lr" {
		t.Errorf("Classifier = %q, want lr", info.Classifier)
	}
}

func TestLoad_StartupFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing artifacts", func(t *testing.T) {
		_, err := Load(ctx, store.NewMemoryStore(), artifact.DefaultKeys())
		if !core.IsStartupFailure(err) {
			t.Errorf("expected STARTUP_FAILURE, got %v", err)
		}
	})

	t.Run("corrupt artifact", func(t *testing.T) {
		st := store.NewMemoryStore()
		_ = st.Set(ctx, artifact.DefaultVectorizerKey, []byte("not an artifact"))
		_ = st.Set(ctx, artifact.DefaultModelKey, []byte("not an artifact"))
		if _, err := Load(ctx, st, artifact.DefaultKeys()); !core.IsStartupFailure(err) {
			t.Errorf("expected STARTUP_FAILURE, got %v", err)
		}
	})

	t.Run("mismatched pair", func(t *testing.T) {
		vec, m, state := trained(t)
		st := store.NewMemoryStore()
		keys := artifact.DefaultKeys()
		if err := artifact.Save(ctx, st, keys, &artifact.Bundle{Vectorizer: vec, Model: m, ModelState: state}); err != nil {
			t.Fatal(err)
		}
		other := feature.NewTFIDFVectorizer()
		if err := other.Fit([]string{"completely different words here"}); err != nil {
			t.Fatal(err)
		}
		blob, err := artifact.EncodeVectorizer(other, artifact.Meta{})
		if err != nil {
			t.Fatal(err)
		}
		_ = st.Set(ctx, keys.Vectorizer, blob)

		_, err = Load(ctx, st, keys)
		if !core.IsStartupFailure(err) || !core.IsArtifactMismatch(err) {
			t.Errorf("expected STARTUP_FAILURE caused by ARTIFACT_MISMATCH, got %v", err)
		}
	})

	t.Run("nil store", func(t *testing.T) {
		if _, err := Load(ctx, nil, artifact.DefaultKeys()); !core.IsStartupFailure(err) {
			t.Errorf("expected STARTUP_FAILURE, got %v", err)
		}
	})
}

// 空串在入口被拒绝，但核心路径（零向量 → 截距）对它同样给出合法标签
func TestService_EmptyStringCorePath(t *testing.T) {
	svc := newTestService(t)
	x := svc.vectorizer.Transform(svc.normalizer.Normalize(""))
	if x.Len() != svc.vectorizer.VocabularySize() || x.NNZ() != 0 {
		t.Fatalf("Transform(\"\") = dim %d nnz %d, want zero vector of dim %d", x.Len(), x.NNZ(), svc.vectorizer.VocabularySize())
	}
	label, err := svc.classifier.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	if !label.Valid() {
		t.Errorf("label %v out of range", label)
	}
	want := core.LabelReal
	if svc.classifier.Bias > 0 {
		want = core.LabelFake
	}
	if label != want {
		t.Errorf("label = %v, want %v from intercept %v", label, want, svc.classifier.Bias)
	}
}
