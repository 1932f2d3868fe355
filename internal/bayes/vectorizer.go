// Package bayes holds the pure numeric parts of the classifier: turning text
// into count vectors, scoring them against a multinomial Naive-Bayes model and
// explaining the outcome.
package bayes

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey/spam-scanner/internal/core"
)

// Tokenize lower-cases text and splits it on runs of non-word characters.
// Word characters are ASCII letters, digits and underscore, as in a \W split.
func Tokenize(text string) []string {
	// A Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und).String(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Vectorize counts the in-vocabulary tokens of text. Unknown tokens are
// dropped. The result always has length model.Size().
func Vectorize(text string, model *core.Model) core.FeatureVector {
	vec := make(core.FeatureVector, model.Size())
	for _, token := range Tokenize(text) {
		if idx, ok := model.Vocabulary[token]; ok {
			vec[idx]++
		}
	}
	return vec
}
