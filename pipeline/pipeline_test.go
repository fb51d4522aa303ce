package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rushteam/fakereview/artifact"
	"github.com/rushteam/fakereview/config"
	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/store"
)

var (
	fakeWords = []string{"amazing", "best", "ever", "perfect", "incredible", "unbelievable", "must", "buy"}
	realWords = []string{"delivery", "arrived", "slightly", "decent", "average", "returned", "size", "okay"}
	fillers   = []string{"the", "product", "it", "was", "and", "this"}
)

// 100 条 REAL + 100 条 FAKE，两类各自使用不同的词
func syntheticExamples() []core.LabeledExample {
	out := make([]core.LabeledExample, 0, 200)
	for i := 0; i < 100; i++ {
		out = append(out, core.LabeledExample{
			Text: fmt.Sprintf("%s %s %s!!! %s <b>%s</b>",
				fakeWords[i%8], fillers[i%6], fakeWords[(i+3)%8], fakeWords[(i*5)%8], fillers[(i+1)%6]),
			Label: core.LabelFake,
		})
		out = append(out, core.LabeledExample{
			Text: fmt.Sprintf("%s %s %s, %s. see https://shop.example/%d",
				realWords[i%8], fillers[i%6], realWords[(i+2)%8], realWords[(i*3)%8], i),
			Label: core.LabelReal,
		})
	}
	return out
}

func runTraining(t *testing.T, examples []core.LabeledExample) (*State, *store.MemoryStore, error) {
	t.Helper()
	st := store.NewMemoryStore()
	state, err := Train(context.Background(), config.DefaultTrainConfig(), st, WithLoader(StaticLoader(examples)))
	return state, st, err
}

func TestTrain_EndToEnd(t *testing.T) {
	state, st, err := runTraining(t, syntheticExamples())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := len(state.TestText); got != 40 {
		t.Errorf("test set size = %d, want 40", got)
	}
	if got := len(state.TrainText); got != 160 {
		t.Errorf("train set size = %d, want 160", got)
	}
	var testFake int
	for _, l := range state.TestLabels {
		if l == core.LabelFake {
			testFake++
		}
	}
	if testFake != 20 {
		t.Errorf("FAKE in test set = %d, want 20", testFake)
	}
	if state.Report.Accuracy < 0.9 {
		t.Errorf("accuracy = %.2f, want >= 0.90\n%s", state.Report.Accuracy, state.Report)
	}
	if state.RunID == "" {
		t.Error("run id not set")
	}

	b, err := artifact.Load(context.Background(), st, artifact.DefaultKeys())
	if err != nil {
		t.Fatalf("artifact.Load: %v", err)
	}
	if b.Vectorizer.Fingerprint() != state.Vectorizer.Fingerprint() {
		t.Error("stored vectorizer differs from trained one")
	}
	if !reflect.DeepEqual(b.Model.Weights, state.Model.Weights) {
		t.Error("stored model differs from trained one")
	}
	if b.Meta.RunID != state.RunID {
		t.Errorf("stored run id = %q, want %q", b.Meta.RunID, state.RunID)
	}
}

func TestTrain_Reproducible(t *testing.T) {
	a, _, err := runTraining(t, syntheticExamples())
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := runTraining(t, syntheticExamples())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Split, b.Split) {
		t.Error("splits differ")
	}
	if !reflect.DeepEqual(a.Vectorizer.State(), b.Vectorizer.State()) {
		t.Error("vocabularies differ")
	}
	if !reflect.DeepEqual(a.ModelState, b.ModelState) {
		t.Error("model parameters differ")
	}
	if a.Report.Accuracy != b.Report.Accuracy {
		t.Errorf("accuracy differs: %v vs %v", a.Report.Accuracy, b.Report.Accuracy)
	}
}

func TestTrain_VectorizerFitOnTrainOnly(t *testing.T) {
	state, _, err := runTraining(t, syntheticExamples())
	if err != nil {
		t.Fatal(err)
	}
	if got := state.Vectorizer.State().DocCount; got != len(state.TrainText) {
		t.Errorf("vectorizer saw %d documents, want %d", got, len(state.TrainText))
	}
}

func TestTrain_Failures(t *testing.T) {
	onlyFake := make([]core.LabeledExample, 0, 10)
	for i := 0; i < 10; i++ {
		onlyFake = append(onlyFake, core.LabeledExample{Text: fakeWords[i%8], Label: core.LabelFake})
	}
	punctuation := []core.LabeledExample{
		{Text: "!!!", Label: core.LabelFake}, {Text: "???", Label: core.LabelFake},
		{Text: "...", Label: core.LabelReal}, {Text: "<br>", Label: core.LabelReal},
	}
	tests := []struct {
		name     string
		examples []core.LabeledExample
		stage    string
	}{
		{name: "empty dataset", examples: nil, stage: StageLoad},
		{name: "single class", examples: onlyFake, stage: StageSplit},
		{name: "vocabulary empty after normalization", examples: punctuation, stage: StageFitVectorizer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, st, err := runTraining(t, tt.examples)
			if err == nil {
				t.Fatal("expected error")
			}
			if !core.IsTrainingFailure(err) {
				t.Errorf("expected TRAINING_FAILURE, got %v", err)
			}
			if de := core.GetDomainError(err); de == nil || de.Message != "pipeline: stage "+tt.stage {
				t.Errorf("error = %v, want failure in stage %s", err, tt.stage)
			}
			for _, key := range []string{artifact.DefaultVectorizerKey, artifact.DefaultModelKey} {
				if _, err := st.Get(context.Background(), key); !core.IsStoreNotFound(err) {
					t.Errorf("artifact %s written despite failure (err=%v)", key, err)
				}
			}
		})
	}
}

func TestTrain_FilterDropsEverything(t *testing.T) {
	cfg := config.DefaultTrainConfig()
	cfg.Dataset.Filter = "row.tokens > 1000"
	_, err := Train(context.Background(), cfg, store.NewMemoryStore(), WithLoader(StaticLoader(syntheticExamples())))
	if !core.IsTrainingFailure(err) {
		t.Fatalf("expected TRAINING_FAILURE, got %v", err)
	}
}

func TestTrain_BadFilter(t *testing.T) {
	cfg := config.DefaultTrainConfig()
	cfg.Dataset.Filter = "row.tokens >"
	_, err := Train(context.Background(), cfg, store.NewMemoryStore(), WithLoader(StaticLoader(syntheticExamples())))
	if !core.IsTrainingFailure(err) {
		t.Fatalf("expected TRAINING_FAILURE, got %v", err)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := NewTrainingPipeline(config.DefaultTrainConfig(), store.NewMemoryStore(), WithLoader(StaticLoader(syntheticExamples())))
	if err != nil {
		t.Fatal(err)
	}
	err = p.Run(ctx, NewState())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type stageFunc struct {
	name string
	fn   func(*State) error
}

func (s stageFunc) Name() string                               { return s.name }
func (s stageFunc) Kind() Kind                                 { return KindTransform }
func (s stageFunc) Process(_ context.Context, st *State) error { return s.fn(st) }

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	p := &Pipeline{Stages: []Stage{
		stageFunc{name: "a", fn: func(*State) error { ran = append(ran, "a"); return nil }},
		stageFunc{name: "b", fn: func(*State) error { ran = append(ran, "b"); return boom }},
		stageFunc{name: "c", fn: func(*State) error { ran = append(ran, "c"); return nil }},
	}}
	err := p.Run(context.Background(), NewState())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !reflect.DeepEqual(ran, []string{"a", "b"}) {
		t.Errorf("ran = %v, want [a b]", ran)
	}
}

type failingModelWrite struct {
	*store.MemoryStore
}

func (f failingModelWrite) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	if key == artifact.DefaultModelKey {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value, ttl...)
}

func TestTrain_FailedRetrainKeepsDeployedPair(t *testing.T) {
	ctx := context.Background()
	first, st, err := runTraining(t, syntheticExamples())
	if err != nil {
		t.Fatal(err)
	}

	other := syntheticExamples()
	for i := range other {
		other[i].Text += " retrained"
	}
	_, err = Train(ctx, config.DefaultTrainConfig(), failingModelWrite{st}, WithLoader(StaticLoader(other)))
	if !core.IsTrainingFailure(err) {
		t.Fatalf("expected TRAINING_FAILURE, got %v", err)
	}

	b, err := artifact.Load(ctx, st, artifact.DefaultKeys())
	if err != nil {
		t.Fatalf("deployed pair broken by failed retrain: %v", err)
	}
	if b.Vectorizer.Fingerprint() != first.Vectorizer.Fingerprint() {
		t.Error("vectorizer changed after failed retrain")
	}
}
