package bayes

import (
	"sort"

	"github.com/mikey/spam-scanner/internal/core"
)

// DefaultTopTerms is how many influential terms are reported by default
const DefaultTopTerms = 10

// Contribution is the signed log-odds weight one token added toward spam
type Contribution struct {
	Token  string
	Count  int
	Weight float64
}

// Contributions lists every present token with its weight, most spam-leaning
// first. Equal weights keep vocabulary order.
func Contributions(vec core.FeatureVector, model *core.Model) []Contribution {
	spam, ham := model.FeatureLogProb[core.ClassSpam], model.FeatureLogProb[core.ClassHam]

	out := make([]Contribution, 0)
	for j, count := range vec {
		if count <= 0 {
			continue
		}
		out = append(out, Contribution{
			Token:  model.Token(j),
			Count:  count,
			Weight: (spam[j] - ham[j]) * float64(count),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Weight > out[b].Weight
	})
	return out
}

// Rank returns up to k tokens ordered by contribution toward spam. The same
// ranking explains either verdict; callers read the sign.
func Rank(vec core.FeatureVector, model *core.Model, k int) []string {
	if k <= 0 {
		k = DefaultTopTerms
	}
	contribs := Contributions(vec, model)
	if len(contribs) > k {
		contribs = contribs[:k]
	}
	terms := make([]string, len(contribs))
	for i, c := range contribs {
		terms[i] = c.Token
	}
	return terms
}
