package bayes

import (
	"fmt"
	"strings"
)

const (
	// ReasonSpamFallback is used when nothing more specific applies to a spam verdict
	ReasonSpamFallback = "High presence of suspicious words"
	// ReasonHamFallback is used when nothing more specific applies to a ham verdict
	ReasonHamFallback = "No significant suspicious words"

	reasonTermLimit = 3
)

type reasonRule struct {
	spam          bool
	minConfidence float64
	needsTerms    bool
	format        string
}

// Rules are checked top to bottom; the first match wins. Within a verdict the
// rows are ordered by decreasing specificity.
var reasonRules = []reasonRule{
	{spam: true, minConfidence: 0.95, needsTerms: true, format: "Very likely spam, driven by: %s"},
	{spam: true, minConfidence: 0.75, needsTerms: true, format: "Likely spam, suspicious words: %s"},
	{spam: true, minConfidence: 0, needsTerms: false, format: ReasonSpamFallback},
	{spam: false, minConfidence: 0.95, needsTerms: true, format: "Very likely legitimate, words checked: %s"},
	{spam: false, minConfidence: 0.75, needsTerms: true, format: "Probably legitimate, words checked: %s"},
	{spam: false, minConfidence: 0, needsTerms: false, format: ReasonHamFallback},
}

// Reason renders a short explanation for a verdict
func Reason(confidence float64, terms []string, isSpam bool) string {
	for _, rule := range reasonRules {
		if rule.spam != isSpam || confidence < rule.minConfidence {
			continue
		}
		if rule.needsTerms {
			if len(terms) == 0 {
				continue
			}
			return fmt.Sprintf(rule.format, joinTerms(terms, isSpam))
		}
		return rule.format
	}
	if isSpam {
		return ReasonSpamFallback
	}
	return ReasonHamFallback
}

// joinTerms picks the terms that best support the verdict: the head of the
// ranking for spam, the tail for ham.
func joinTerms(terms []string, isSpam bool) string {
	n := len(terms)
	if n > reasonTermLimit {
		n = reasonTermLimit
	}
	picked := make([]string, 0, n)
	if isSpam {
		picked = append(picked, terms[:n]...)
	} else {
		for i := len(terms) - 1; i >= len(terms)-n; i-- {
			picked = append(picked, terms[i])
		}
	}
	return strings.Join(picked, ", ")
}
