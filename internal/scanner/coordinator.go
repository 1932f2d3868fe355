// Package scanner drives classification against a live stream of observed
// messages. Each element is claimed once, scanned once, and its result is
// delivered only to that element.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/ports"
	"github.com/mikey/spam-scanner/internal/whitelist"
)

// ReasonWhitelisted explains the allow-list verdict
const ReasonWhitelisted = "sender domain is whitelisted"

// Classifier is the classification engine as seen by the coordinator
type Classifier interface {
	Classify(ctx context.Context, text string) (core.ClassificationResult, error)
}

// Options tunes the coordinator
type Options struct {
	// MaxInFlight bounds concurrent classifications; <= 0 means 1
	MaxInFlight int
	// IncludeSubject prepends the subject line to the scored text
	IncludeSubject bool
	// CorrectionTTL is how long a finished task accepts a judgment
	CorrectionTTL time.Duration
}

// Coordinator is the per-message scan state machine
type Coordinator struct {
	classifier Classifier
	presenter  ports.Presenter
	feedback   core.FeedbackRepository
	allowList  *whitelist.Checker
	logger     *zap.Logger
	opts       Options

	registry *Registry
	ledger   *CorrectionLedger
	sem      *semaphore.Weighted

	deliverMu sync.Mutex
	wg        sync.WaitGroup

	newID func() string
	now   func() time.Time
}

// NewCoordinator creates a coordinator. allowList may be nil.
func NewCoordinator(
	classifier Classifier,
	presenter ports.Presenter,
	feedback core.FeedbackRepository,
	allowList *whitelist.Checker,
	logger *zap.Logger,
	opts Options,
) *Coordinator {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1
	}
	return &Coordinator{
		classifier: classifier,
		presenter:  presenter,
		feedback:   feedback,
		allowList:  allowList,
		logger:     logger,
		opts:       opts,
		registry:   NewRegistry(),
		ledger:     NewCorrectionLedger(opts.CorrectionTTL),
		sem:        semaphore.NewWeighted(int64(opts.MaxInFlight)),
		newID:      func() string { return ulid.Make().String() },
		now:        time.Now,
	}
}

// Run consumes observations until the channel closes or ctx is done, then
// waits for in-flight scans.
func (c *Coordinator) Run(ctx context.Context, observations <-chan core.Observation) error {
	defer c.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case obs, ok := <-observations:
			if !ok {
				return nil
			}
			c.Handle(ctx, obs)
		}
	}
}

// Handle applies a single observation
func (c *Coordinator) Handle(ctx context.Context, obs core.Observation) {
	switch obs.Kind {
	case core.ObservationRemoved:
		c.Forget(obs.ElementID)
	default:
		c.Observe(ctx, obs.ElementID, obs.Message)
	}
}

// Observe claims elementID and starts scanning msg. It returns the new task
// and true, or false if the element was already claimed. The claim and the
// LOADING notification complete before Observe returns.
func (c *Coordinator) Observe(ctx context.Context, elementID string, msg core.Message) (core.ScanTask, bool) {
	task, ok := c.registry.Claim(elementID, c.newID(), c.now())
	if !ok {
		c.logger.Debug("Element already claimed", zap.String("element_id", elementID))
		return core.ScanTask{}, false
	}

	loading, err := c.registry.Advance(task.ID, core.StateLoading)
	if err != nil {
		// Only reachable if the registry is corrupted; keep the claim so the
		// element is not enqueued again.
		c.logger.Error("Failed to start scan", zap.String("task_id", task.ID), zap.Error(err))
		return core.ScanTask{}, false
	}

	c.logger.Debug("Scan started",
		zap.String("task_id", loading.ID),
		zap.String("element_id", elementID))
	c.deliver(core.ScanUpdate{Task: loading})

	c.wg.Add(1)
	go c.scan(ctx, loading, msg)

	return loading, true
}

// Forget drops the claim on a removed element
func (c *Coordinator) Forget(elementID string) {
	if taskID, ok := c.registry.Release(elementID); ok {
		c.logger.Debug("Element removed",
			zap.String("element_id", elementID),
			zap.String("task_id", taskID))
	}
}

// Correct records the user's judgment on a finished task
func (c *Coordinator) Correct(ctx context.Context, taskID string, judgment core.Judgment) (*core.FeedbackRecord, error) {
	if _, err := core.ParseJudgment(string(judgment)); err != nil {
		return nil, err
	}

	correction, ok := c.ledger.Take(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTask, taskID)
	}

	record := correction.Record(judgment, c.now())
	if err := c.feedback.Append(ctx, record); err != nil {
		c.ledger.Open(correction)
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	c.logger.Info("Feedback recorded",
		zap.String("task_id", taskID),
		zap.String("prediction", string(record.PredictedLabel)),
		zap.String("judgment", string(judgment)),
		zap.String("effective_label", string(record.EffectiveLabel())))
	return record, nil
}

// Pending returns the correction still open for taskID
func (c *Coordinator) Pending(taskID string) (Correction, bool) {
	return c.ledger.Peek(taskID)
}

// Snapshot lists the tasks that are still scanning
func (c *Coordinator) Snapshot() []core.ScanTask {
	return c.registry.Snapshot()
}

// Created returns the number of tasks created so far
func (c *Coordinator) Created() int {
	return c.registry.Created()
}

// Wait blocks until every started scan has finished
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) scan(ctx context.Context, task core.ScanTask, msg core.Message) {
	defer c.wg.Done()

	text := c.textOf(msg)
	result, err := c.evaluate(ctx, msg, text)
	if err != nil {
		scanErr := &core.ScanError{TaskID: task.ID, Err: err}
		c.logger.Warn("Scan failed",
			zap.String("task_id", task.ID),
			zap.String("element_id", task.SourceRef),
			zap.Error(err))
		c.finish(task, core.StateError, text, nil, scanErr)
		return
	}

	state := core.StateSafe
	if result.IsSpam {
		state = core.StateSpam
	}
	c.finish(task, state, text, &result, nil)
}

func (c *Coordinator) evaluate(ctx context.Context, msg core.Message, text string) (result core.ClassificationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	if c.allowList.IsWhitelisted(msg.From) {
		return core.ClassificationResult{
			IsSpam:           false,
			Confidence:       1.0,
			InfluentialTerms: []string{},
			Reason:           ReasonWhitelisted,
		}, nil
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return core.ClassificationResult{}, fmt.Errorf("failed to schedule scan: %w", err)
	}
	defer c.sem.Release(1)

	return c.classifier.Classify(ctx, text)
}

func (c *Coordinator) finish(task core.ScanTask, state core.ScanState, text string, result *core.ClassificationResult, scanErr error) {
	done, live, err := c.registry.Complete(task.ID, state)
	if err != nil {
		c.logger.Error("Failed to complete scan", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	if !live {
		c.logger.Debug("Element gone before scan finished, dropping result",
			zap.String("task_id", done.ID),
			zap.String("element_id", done.SourceRef),
			zap.String("state", string(state)))
		return
	}

	update := core.ScanUpdate{Task: done}
	if scanErr != nil {
		update.Err = scanErr
	}
	if result != nil {
		c.ledger.Open(Correction{Task: done, Text: text, Result: result.Clone()})
		copied := result.Clone()
		update.Result = &copied
	}

	c.logger.Info("Scan finished",
		zap.String("task_id", done.ID),
		zap.String("element_id", done.SourceRef),
		zap.String("state", string(state)))
	c.deliver(update)
}

func (c *Coordinator) deliver(update core.ScanUpdate) {
	if c.presenter == nil {
		return
	}
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.presenter.Present(update)
}

func (c *Coordinator) textOf(msg core.Message) string {
	return ScoredText(msg, c.opts.IncludeSubject)
}

// ScoredText is the text of msg that gets classified
func ScoredText(msg core.Message, includeSubject bool) string {
	if includeSubject && msg.Subject != "" {
		return msg.Subject + "\n" + msg.Body
	}
	return msg.Body
}
