// Package classifier composes the model store and the Naive-Bayes routines
// into a single Classify call.
package classifier

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/bayes"
	"github.com/mikey/spam-scanner/internal/core"
)

const (
	// DefaultShortMessageThreshold is the length below which text is not scored
	DefaultShortMessageThreshold = 50

	// ReasonShortMessage explains the short-message verdict
	ReasonShortMessage = "short message"
)

// ModelProvider returns the shared model, loading it if needed
type ModelProvider interface {
	EnsureLoaded(ctx context.Context) (*core.Model, error)
}

// Options holds the engine's policy values
type Options struct {
	ShortMessageThreshold int
	TopTerms              int
}

// DefaultOptions returns the stock policy values
func DefaultOptions() Options {
	return Options{
		ShortMessageThreshold: DefaultShortMessageThreshold,
		TopTerms:              bayes.DefaultTopTerms,
	}
}

// Engine is the classification engine
type Engine struct {
	models ModelProvider
	logger *zap.Logger
	opts   Options
}

// NewEngine creates a new classification engine
func NewEngine(models ModelProvider, logger *zap.Logger, opts Options) *Engine {
	if opts.ShortMessageThreshold < 0 {
		opts.ShortMessageThreshold = 0
	}
	if opts.TopTerms <= 0 {
		opts.TopTerms = bayes.DefaultTopTerms
	}
	return &Engine{
		models: models,
		logger: logger,
		opts:   opts,
	}
}

// ShortMessageResult is returned for text below the length threshold
func ShortMessageResult() core.ClassificationResult {
	return core.ClassificationResult{
		IsSpam:           false,
		Confidence:       1.0,
		InfluentialTerms: []string{},
		Reason:           ReasonShortMessage,
	}
}

// IsShort reports whether text falls under the short-message rule
func (e *Engine) IsShort(text string) bool {
	return utf8.RuneCountInString(text) < e.opts.ShortMessageThreshold
}

// Classify scores text and explains the verdict
func (e *Engine) Classify(ctx context.Context, text string) (core.ClassificationResult, error) {
	if e.IsShort(text) {
		e.logger.Debug("Skipping model for short message",
			zap.Int("length", utf8.RuneCountInString(text)),
			zap.Int("threshold", e.opts.ShortMessageThreshold))
		return ShortMessageResult(), nil
	}

	model, err := e.models.EnsureLoaded(ctx)
	if err != nil {
		return core.ClassificationResult{}, err
	}

	vec := bayes.Vectorize(text, model)
	score, err := bayes.ScoreVector(vec, model)
	if err != nil {
		return core.ClassificationResult{}, err
	}
	terms := bayes.Rank(vec, model, e.opts.TopTerms)

	result := core.ClassificationResult{
		IsSpam:           score.IsSpam,
		Confidence:       score.Confidence,
		InfluentialTerms: terms,
		Reason:           bayes.Reason(score.Confidence, terms, score.IsSpam),
	}

	e.logger.Debug("Classified message",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("influential_terms", result.InfluentialTerms))

	return result, nil
}
