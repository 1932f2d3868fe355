package core

import (
	"time"
)

// Class indices into the model's per-class arrays
const (
	ClassHam  = 0
	ClassSpam = 1
)

// Model is a trained multinomial Naive-Bayes model. It is immutable once
// loaded and shared read-only by every classification call.
type Model struct {
	Vocabulary     map[string]int
	FeatureLogProb [2][]float64
	ClassLogPrior  [2]float64

	// tokens maps a vocabulary index back to its token
	tokens []string
}

// NewModel builds a model and its reverse index. The caller is expected to
// have validated the dimensions; see modelstore.Decode.
func NewModel(vocabulary map[string]int, featureLogProb [2][]float64, classLogPrior [2]float64) *Model {
	tokens := make([]string, len(vocabulary))
	for token, idx := range vocabulary {
		if idx >= 0 && idx < len(tokens) {
			tokens[idx] = token
		}
	}
	return &Model{
		Vocabulary:     vocabulary,
		FeatureLogProb: featureLogProb,
		ClassLogPrior:  classLogPrior,
		tokens:         tokens,
	}
}

// Size returns the vocabulary size V
func (m *Model) Size() int {
	return len(m.tokens)
}

// Token returns the vocabulary token stored at idx
func (m *Model) Token(idx int) string {
	return m.tokens[idx]
}

// FeatureVector holds one occurrence count per vocabulary index
type FeatureVector []int

// ClassificationResult is what the engine hands to presenters
type ClassificationResult struct {
	IsSpam           bool     `json:"is_spam"`
	Confidence       float64  `json:"confidence"`
	InfluentialTerms []string `json:"influential_terms"`
	Reason           string   `json:"reason"`
}

// Clone returns a copy that shares no slices with r
func (r ClassificationResult) Clone() ClassificationResult {
	terms := make([]string, len(r.InfluentialTerms))
	copy(terms, r.InfluentialTerms)
	r.InfluentialTerms = terms
	return r
}

// Label returns the predicted label for the result
func (r ClassificationResult) Label() Label {
	if r.IsSpam {
		return LabelSpam
	}
	return LabelHam
}

// Message is the text-bearing part of an observed email
type Message struct {
	From    string
	Subject string
	Body    string
}

// ObservationKind tells whether an element appeared or went away
type ObservationKind int

const (
	ObservationAdded ObservationKind = iota
	ObservationRemoved
)

func (k ObservationKind) String() string {
	if k == ObservationRemoved {
		return "removed"
	}
	return "added"
}

// Observation is a single change reported by a message source. ElementID is
// the stable identity of the element while it exists; an id that is removed
// and added again names a new element.
type Observation struct {
	Kind      ObservationKind
	ElementID string
	Message   Message
}

// ScanState is the lifecycle state of a scan task
type ScanState string

const (
	StateNew     ScanState = "NEW"
	StateLoading ScanState = "LOADING"
	StateSpam    ScanState = "SPAM"
	StateSafe    ScanState = "SAFE"
	StateError   ScanState = "ERROR"
)

// Terminal reports whether no further transition is allowed
func (s ScanState) Terminal() bool {
	return s == StateSpam || s == StateSafe || s == StateError
}

// ScanTask tracks the classification of one observed message element
type ScanTask struct {
	ID        string    `json:"id"`
	State     ScanState `json:"state"`
	SourceRef string    `json:"source_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanUpdate is delivered to presenters on every state change. Result is a
// copy and is only set for SPAM and SAFE; Err is only set for ERROR.
type ScanUpdate struct {
	Task   ScanTask
	Result *ClassificationResult
	Err    error
}

// Label is a predicted or effective class label
type Label string

const (
	LabelSpam    Label = "spam"
	LabelHam     Label = "ham"
	LabelUnknown Label = "unknown"
)

// Complement flips spam and ham; unknown stays unknown
func (l Label) Complement() Label {
	switch l {
	case LabelSpam:
		return LabelHam
	case LabelHam:
		return LabelSpam
	default:
		return LabelUnknown
	}
}

// Judgment is the user's verdict on a prediction
type Judgment string

const (
	JudgmentCorrect   Judgment = "correct"
	JudgmentIncorrect Judgment = "incorrect"
)

// ParseJudgment validates a judgment string
func ParseJudgment(s string) (Judgment, error) {
	switch Judgment(s) {
	case JudgmentCorrect, JudgmentIncorrect:
		return Judgment(s), nil
	default:
		return "", ErrInvalidJudgment
	}
}

// FeedbackRecord is an append-only user correction
type FeedbackRecord struct {
	Text             string
	PredictedLabel   Label
	Judgment         Judgment
	InfluentialTerms []string
	Reason           string
	Timestamp        time.Time
}

// EffectiveLabel is the label to use downstream: the prediction if the user
// confirmed it, its complement otherwise.
func (r FeedbackRecord) EffectiveLabel() Label {
	if r.Judgment == JudgmentCorrect {
		return r.PredictedLabel
	}
	if r.Judgment == JudgmentIncorrect {
		return r.PredictedLabel.Complement()
	}
	return LabelUnknown
}
