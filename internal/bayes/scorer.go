package bayes

import (
	"fmt"
	"math"

	"github.com/mikey/spam-scanner/internal/core"
)

// Score is the normalized outcome of scoring one vector
type Score struct {
	LogScores     [2]float64
	Probabilities [2]float64
	IsSpam        bool
	Confidence    float64
}

// ScoreVector computes per-class log likelihoods, normalizes them with the
// log-sum-exp trick and picks the label. Ties go to ham.
func ScoreVector(vec core.FeatureVector, model *core.Model) (Score, error) {
	v := model.Size()
	if len(vec) != v {
		return Score{}, &core.ScoringError{
			Reason: fmt.Sprintf("vector length %d does not match vocabulary size %d", len(vec), v),
		}
	}

	var s Score
	for c := range s.LogScores {
		row := model.FeatureLogProb[c]
		if len(row) != v {
			return Score{}, &core.ScoringError{
				Reason: fmt.Sprintf("feature_log_prob[%d] has %d columns, want %d", c, len(row), v),
			}
		}
		total := model.ClassLogPrior[c]
		for j, count := range vec {
			if count == 0 {
				continue
			}
			if count < 0 {
				return Score{}, &core.ScoringError{Reason: fmt.Sprintf("negative count at index %d", j)}
			}
			total += float64(count) * row[j]
		}
		s.LogScores[c] = total
	}

	maxScore := math.Max(s.LogScores[0], s.LogScores[1])
	if math.IsInf(maxScore, 0) || math.IsNaN(maxScore) {
		return Score{}, &core.ScoringError{
			Reason: fmt.Sprintf("degenerate log scores %v", s.LogScores),
		}
	}

	var sum float64
	for c, ls := range s.LogScores {
		s.Probabilities[c] = math.Exp(ls - maxScore)
		sum += s.Probabilities[c]
	}
	for c := range s.Probabilities {
		s.Probabilities[c] /= sum
	}

	s.IsSpam = s.Probabilities[core.ClassSpam] > s.Probabilities[core.ClassHam]
	if s.IsSpam {
		s.Confidence = s.Probabilities[core.ClassSpam]
	} else {
		s.Confidence = s.Probabilities[core.ClassHam]
	}
	return s, nil
}
