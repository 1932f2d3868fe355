package scanner

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mikey/spam-scanner/internal/core"
)

// Correction is what the ledger keeps for a finished task so a later
// judgment can be turned into a feedback record.
type Correction struct {
	Task   core.ScanTask
	Text   string
	Result core.ClassificationResult
}

// Record builds the feedback record for a judgment on c
func (c Correction) Record(judgment core.Judgment, now time.Time) *core.FeedbackRecord {
	result := c.Result.Clone()
	return &core.FeedbackRecord{
		Text:             c.Text,
		PredictedLabel:   result.Label(),
		Judgment:         judgment,
		InfluentialTerms: result.InfluentialTerms,
		Reason:           result.Reason,
		Timestamp:        now,
	}
}

// CorrectionLedger holds open correction channels keyed by task id. Entries
// expire after the configured TTL.
type CorrectionLedger struct {
	mu      sync.Mutex
	entries *gocache.Cache
}

// NewCorrectionLedger creates a ledger; ttl <= 0 keeps entries until taken
func NewCorrectionLedger(ttl time.Duration) *CorrectionLedger {
	expiration, cleanup := gocache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
		if cleanup < time.Minute {
			cleanup = time.Minute
		}
	}
	return &CorrectionLedger{
		entries: gocache.New(expiration, cleanup),
	}
}

// Open records a correction channel for a finished task
func (l *CorrectionLedger) Open(c Correction) {
	l.entries.SetDefault(c.Task.ID, c)
}

// Take removes and returns the correction for taskID
func (l *CorrectionLedger) Take(taskID string) (Correction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.entries.Get(taskID)
	if !ok {
		return Correction{}, false
	}
	l.entries.Delete(taskID)
	return v.(Correction), true
}

// Peek returns the correction for taskID without closing it
func (l *CorrectionLedger) Peek(taskID string) (Correction, bool) {
	v, ok := l.entries.Get(taskID)
	if !ok {
		return Correction{}, false
	}
	return v.(Correction), true
}

// Len returns the number of open channels, expired ones included until the
// next cleanup.
func (l *CorrectionLedger) Len() int {
	return l.entries.ItemCount()
}
