package modelstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mikey/spam-scanner/internal/core"
)

// artifact is the on-disk JSON layout produced by the trainer. Pointers let
// Decode tell a missing key from an empty one.
type artifact struct {
	Vocabulary     *map[string]int `json:"vocabulary"`
	FeatureLogProb *[][]float64    `json:"feature_log_prob"`
	ClassLogPrior  *[]float64      `json:"class_log_prior"`
}

// Decode parses and validates a model artifact
func Decode(data []byte) (*core.Model, error) {
	var a artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}

	switch {
	case a.Vocabulary == nil:
		return nil, errors.New("missing key \"vocabulary\"")
	case a.FeatureLogProb == nil:
		return nil, errors.New("missing key \"feature_log_prob\"")
	case a.ClassLogPrior == nil:
		return nil, errors.New("missing key \"class_log_prior\"")
	}

	vocab := *a.Vocabulary
	rows := *a.FeatureLogProb
	priors := *a.ClassLogPrior
	v := len(vocab)

	if len(rows) != 2 {
		return nil, fmt.Errorf("feature_log_prob has %d rows, want 2", len(rows))
	}
	if len(priors) != 2 {
		return nil, fmt.Errorf("class_log_prior has %d entries, want 2", len(priors))
	}
	for c, row := range rows {
		if len(row) != v {
			return nil, fmt.Errorf("feature_log_prob[%d] has %d columns, vocabulary has %d tokens", c, len(row), v)
		}
	}

	seen := make([]bool, v)
	for token, idx := range vocab {
		if idx < 0 || idx >= v {
			return nil, fmt.Errorf("vocabulary index %d for %q outside [0,%d)", idx, token, v)
		}
		if seen[idx] {
			return nil, fmt.Errorf("vocabulary index %d is used twice", idx)
		}
		seen[idx] = true
	}

	return core.NewModel(vocab, [2][]float64{rows[0], rows[1]}, [2]float64{priors[0], priors[1]}), nil
}
