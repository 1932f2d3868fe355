package classifier

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/bayes"
	"github.com/mikey/spam-scanner/internal/core"
)

// fakeModels counts EnsureLoaded calls
type fakeModels struct {
	calls int32
	model *core.Model
	err   error
}

func (f *fakeModels) EnsureLoaded(ctx context.Context) (*core.Model, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.model, f.err
}

func exampleModel() *core.Model {
	return core.NewModel(
		map[string]int{"free": 0, "winner": 1, "meeting": 2},
		[2][]float64{{-5, -5, -1}, {-1, -1, -5}},
		[2]float64{-0.1, -2.3},
	)
}

// pad extends text with separators so it clears the short-message threshold
// without adding vocabulary tokens.
func pad(text string) string {
	return text + strings.Repeat(" .", DefaultShortMessageThreshold)
}

func TestEngine_ShortMessage(t *testing.T) {
	models := &fakeModels{err: errors.New("must not be called")}
	engine := NewEngine(models, zap.NewNop(), DefaultOptions())

	for _, text := range []string{"", "free winner free", strings.Repeat("x", DefaultShortMessageThreshold-1)} {
		result, err := engine.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if result.IsSpam || result.Confidence != 1.0 || len(result.InfluentialTerms) != 0 {
			t.Errorf("unexpected short-message result for %q: %+v", text, result)
		}
		if result.Reason != ReasonShortMessage {
			t.Errorf("expected reason %q, got %q", ReasonShortMessage, result.Reason)
		}
	}
	if models.calls != 0 {
		t.Errorf("short messages must not touch the model store, got %d calls", models.calls)
	}
}

func TestEngine_ThresholdCountsCharacters(t *testing.T) {
	engine := NewEngine(&fakeModels{}, zap.NewNop(), Options{ShortMessageThreshold: 5})
	if !engine.IsShort("éééé") {
		t.Error("4 characters should be short")
	}
	if engine.IsShort("ééééé") {
		t.Error("5 characters should not be short")
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	models := &fakeModels{model: exampleModel()}
	engine := NewEngine(models, zap.NewNop(), DefaultOptions())

	result, err := engine.Classify(context.Background(), pad("free winner free"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsSpam {
		t.Error("expected spam")
	}
	if result.Confidence <= 0.5 || result.Confidence > 1 {
		t.Errorf("unexpected confidence %v", result.Confidence)
	}
	if len(result.InfluentialTerms) != 2 || result.InfluentialTerms[0] != "free" || result.InfluentialTerms[1] != "winner" {
		t.Errorf("unexpected influential terms %v", result.InfluentialTerms)
	}
	if result.Reason == bayes.ReasonSpamFallback {
		t.Errorf("expected a specific reason, got the fallback")
	}
}

func TestEngine_Ham(t *testing.T) {
	engine := NewEngine(&fakeModels{model: exampleModel()}, zap.NewNop(), DefaultOptions())

	result, err := engine.Classify(context.Background(), pad("meeting meeting agenda"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsSpam {
		t.Error("expected ham")
	}
	if len(result.InfluentialTerms) != 1 || result.InfluentialTerms[0] != "meeting" {
		t.Errorf("unexpected influential terms %v", result.InfluentialTerms)
	}
}

func TestEngine_ModelLoadError(t *testing.T) {
	loadErr := &core.ModelLoadError{Source: "test", Err: errors.New("boom")}
	engine := NewEngine(&fakeModels{err: loadErr}, zap.NewNop(), DefaultOptions())

	_, err := engine.Classify(context.Background(), pad("free"))
	var got *core.ModelLoadError
	if !errors.As(err, &got) {
		t.Fatalf("expected ModelLoadError, got %v", err)
	}
}

func TestEngine_TopTermsOption(t *testing.T) {
	engine := NewEngine(&fakeModels{model: exampleModel()}, zap.NewNop(), Options{ShortMessageThreshold: 0, TopTerms: 1})

	result, err := engine.Classify(context.Background(), "free winner meeting")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.InfluentialTerms) != 1 {
		t.Errorf("expected 1 term, got %v", result.InfluentialTerms)
	}
}
