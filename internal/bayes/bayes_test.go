package bayes

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/mikey/spam-scanner/internal/core"
)

func exampleModel() *core.Model {
	return core.NewModel(
		map[string]int{"free": 0, "winner": 1, "meeting": 2},
		[2][]float64{{-5, -5, -1}, {-1, -1, -5}},
		[2]float64{-0.1, -2.3},
	)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "punctuation runs", text: "FREE!!! winner,,meeting", want: []string{"free", "winner", "meeting"}},
		{name: "leading and trailing separators", text: "  ...hello_world 42...  ", want: []string{"hello_world", "42"}},
		{name: "non ascii splits", text: "café-ok", want: []string{"caf", "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestVectorize(t *testing.T) {
	model := exampleModel()

	tests := []struct {
		name string
		text string
		want core.FeatureVector
	}{
		{name: "example", text: "free winner free", want: core.FeatureVector{2, 1, 0}},
		{name: "empty text", text: "", want: core.FeatureVector{0, 0, 0}},
		{name: "unknown tokens dropped", text: "lottery prize Meeting", want: core.FeatureVector{0, 0, 1}},
		{name: "case folded", text: "FREE Free free", want: core.FeatureVector{3, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Vectorize(tt.text, model)
			if len(got) != model.Size() {
				t.Fatalf("expected length %d, got %d", model.Size(), len(got))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Vectorize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			again := Vectorize(tt.text, model)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("Vectorize is not deterministic: %v vs %v", got, again)
			}
		})
	}
}

func TestScoreVector(t *testing.T) {
	model := exampleModel()

	tests := []struct {
		name     string
		vec      core.FeatureVector
		wantSpam bool
	}{
		{name: "spam words dominate", vec: core.FeatureVector{2, 1, 0}, wantSpam: true},
		{name: "ham word dominates", vec: core.FeatureVector{0, 0, 3}, wantSpam: false},
		{name: "prior only", vec: core.FeatureVector{0, 0, 0}, wantSpam: false},
		{name: "large counts stay finite", vec: core.FeatureVector{5000, 4000, 10}, wantSpam: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ScoreVector(tt.vec, model)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.IsSpam != tt.wantSpam {
				t.Errorf("expected IsSpam=%t, got %t (log scores %v)", tt.wantSpam, s.IsSpam, s.LogScores)
			}
			sum := s.Probabilities[0] + s.Probabilities[1]
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v", sum)
			}
			for c, p := range s.Probabilities {
				if p < 0 || p > 1 {
					t.Errorf("p[%d]=%v out of range", c, p)
				}
			}
			if s.Confidence < 0.5 || s.Confidence > 1 {
				t.Errorf("confidence %v should be the winning probability", s.Confidence)
			}
		})
	}
}

func TestScoreVector_ExampleLogScores(t *testing.T) {
	s, err := ScoreVector(core.FeatureVector{2, 1, 0}, exampleModel())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.LogScores[0]-(-15.1)) > 1e-9 {
		t.Errorf("ham log score = %v, want -15.1", s.LogScores[0])
	}
	if math.Abs(s.LogScores[1]-(-5.3)) > 1e-9 {
		t.Errorf("spam log score = %v, want -5.3", s.LogScores[1])
	}
	want := 1 / (1 + math.Exp(-15.1+5.3))
	if math.Abs(s.Confidence-want) > 1e-12 {
		t.Errorf("confidence = %v, want %v", s.Confidence, want)
	}
}

func TestScoreVector_TieFavorsHam(t *testing.T) {
	model := core.NewModel(
		map[string]int{"a": 0},
		[2][]float64{{-1}, {-1}},
		[2]float64{-0.5, -0.5},
	)
	s, err := ScoreVector(core.FeatureVector{1}, model)
	if err != nil {
		t.Fatal(err)
	}
	if s.IsSpam {
		t.Error("a tie must not be classified as spam")
	}
	if s.Confidence != 0.5 {
		t.Errorf("expected confidence 0.5, got %v", s.Confidence)
	}
}

func TestScoreVector_Errors(t *testing.T) {
	model := exampleModel()

	tests := []struct {
		name  string
		vec   core.FeatureVector
		model *core.Model
	}{
		{name: "short vector", vec: core.FeatureVector{1, 2}, model: model},
		{name: "negative count", vec: core.FeatureVector{-1, 0, 0}, model: model},
		{
			name: "degenerate scores",
			vec:  core.FeatureVector{1},
			model: core.NewModel(
				map[string]int{"a": 0},
				[2][]float64{{math.Inf(-1)}, {math.Inf(-1)}},
				[2]float64{0, 0},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreVector(tt.vec, tt.model)
			var scoringErr *core.ScoringError
			if !errors.As(err, &scoringErr) {
				t.Fatalf("expected ScoringError, got %v", err)
			}
		})
	}
}

func TestRank(t *testing.T) {
	model := exampleModel()

	got := Rank(core.FeatureVector{2, 1, 0}, model, 10)
	want := []string{"free", "winner"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}

	for _, c := range Contributions(core.FeatureVector{2, 1, 0}, model) {
		if c.Weight <= 0 {
			t.Errorf("expected positive contribution for %q, got %v", c.Token, c.Weight)
		}
		if c.Token == "meeting" {
			t.Error("zero-count token must not be ranked")
		}
	}
}

func TestRank_LimitAndOrder(t *testing.T) {
	vocab := make(map[string]int)
	var ham, spam []float64
	for i := 0; i < 15; i++ {
		vocab[strings.Repeat("w", i+1)] = i
		ham = append(ham, -3)
		spam = append(spam, -3+float64(i)/10)
	}
	model := core.NewModel(vocab, [2][]float64{ham, spam}, [2]float64{-0.7, -0.7})

	vec := make(core.FeatureVector, 15)
	for i := range vec {
		vec[i] = 1
	}
	vec[3] = 0

	got := Rank(vec, model, DefaultTopTerms)
	if len(got) != DefaultTopTerms {
		t.Fatalf("expected %d terms, got %d", DefaultTopTerms, len(got))
	}
	if got[0] != strings.Repeat("w", 15) {
		t.Errorf("expected most spam-leaning token first, got %q", got[0])
	}
	for _, term := range got {
		if term == "wwww" {
			t.Error("zero-count token must not be ranked")
		}
	}

	if n := len(Rank(vec, model, 3)); n != 3 {
		t.Errorf("expected 3 terms, got %d", n)
	}
}

func TestRank_StableTies(t *testing.T) {
	model := core.NewModel(
		map[string]int{"b": 0, "a": 1, "c": 2},
		[2][]float64{{-2, -2, -2}, {-1, -1, -1}},
		[2]float64{-0.7, -0.7},
	)
	got := Rank(core.FeatureVector{1, 1, 1}, model, 10)
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ties should keep vocabulary order: got %v, want %v", got, want)
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		terms      []string
		isSpam     bool
		want       string
	}{
		{name: "spam fallback without terms", confidence: 0.99, isSpam: true, want: ReasonSpamFallback},
		{name: "spam low confidence", confidence: 0.6, terms: []string{"free"}, isSpam: true, want: ReasonSpamFallback},
		{name: "spam likely", confidence: 0.8, terms: []string{"free", "winner"}, isSpam: true, want: "Likely spam, suspicious words: free, winner"},
		{name: "spam very likely", confidence: 0.99, terms: []string{"free", "winner", "cash", "now"}, isSpam: true, want: "Very likely spam, driven by: free, winner, cash"},
		{name: "ham fallback", confidence: 0.55, terms: []string{"meeting"}, isSpam: false, want: ReasonHamFallback},
		{name: "ham uses tail of ranking", confidence: 0.97, terms: []string{"free", "agenda", "meeting"}, isSpam: false, want: "Very likely legitimate, words checked: meeting, agenda, free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason(tt.confidence, tt.terms, tt.isSpam); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}
