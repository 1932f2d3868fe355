package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/feedback"
	"github.com/mikey/spam-scanner/internal/core"
)

// DefaultRecentResults is how many finished tasks the board remembers
const DefaultRecentResults = 200

// Scans is the part of the coordinator the board talks to
type Scans interface {
	Snapshot() []core.ScanTask
	Correct(ctx context.Context, taskID string, judgment core.Judgment) (*core.FeedbackRecord, error)
}

// TaskView is the JSON shape of a task on the board
type TaskView struct {
	ID         string                     `json:"id"`
	ElementID  string                     `json:"element_id"`
	State      core.ScanState             `json:"state"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at,omitempty"`
	Result     *core.ClassificationResult `json:"result,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Correction string                     `json:"correction,omitempty"`
}

// Board is an HTTP status board. It presents recent results and accepts
// corrections for them.
type Board struct {
	feedback core.FeedbackRepository
	ready    func() bool
	logger   *zap.Logger
	limit    int

	mu     sync.Mutex
	scans  Scans
	recent []TaskView // oldest first
	index  map[string]int

	router chi.Router
	server *http.Server
}

// NewBoard creates a board. ready reports whether the model is loaded and may
// be nil. Task routes answer 503 until Attach is called.
func NewBoard(repo core.FeedbackRepository, ready func() bool, logger *zap.Logger, limit int) *Board {
	if limit <= 0 {
		limit = DefaultRecentResults
	}
	b := &Board{
		feedback: repo,
		ready:    ready,
		logger:   logger.Named("board"),
		limit:    limit,
		index:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(b.logRequests)

	r.Get("/healthz", b.handleHealth)
	r.Get("/tasks", b.handleTasks)
	r.Post("/tasks/{id}/feedback", b.handleFeedback)
	r.Get("/feedback/export.csv", b.handleExport)

	b.router = r
	return b
}

// Attach connects the board to the coordinator whose tasks it shows
func (b *Board) Attach(scans Scans) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scans = scans
}

func (b *Board) attached() Scans {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scans
}

// Handler returns the board's HTTP handler
func (b *Board) Handler() http.Handler {
	return b.router
}

// Present remembers terminal updates
func (b *Board) Present(update core.ScanUpdate) {
	if !update.Task.State.Terminal() {
		return
	}

	view := TaskView{
		ID:        update.Task.ID,
		ElementID: update.Task.SourceRef,
		State:     update.Task.State,
		CreatedAt: update.Task.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if update.Result != nil {
		result := update.Result.Clone()
		view.Result = &result
	}
	if update.Err != nil {
		view.Error = update.Err.Error()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.recent = append(b.recent, view)
	if len(b.recent) > b.limit {
		b.recent = b.recent[len(b.recent)-b.limit:]
	}
	b.reindex()
}

func (b *Board) reindex() {
	clear(b.index)
	for i, v := range b.recent {
		b.index[v.ID] = i
	}
}

// Serve listens on addr until ctx is done
func (b *Board) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	b.server = &http.Server{
		Handler:           b.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("Failed to shut down status board", zap.Error(err))
		}
	}()

	b.logger.Info("Status board listening", zap.String("address", ln.Addr().String()))
	if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status board error: %w", err)
	}
	return nil
}

func (b *Board) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := b.ready == nil || b.ready()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": loaded,
	})
}

func (b *Board) handleTasks(w http.ResponseWriter, r *http.Request) {
	scans := b.attached()
	if scans == nil {
		http.Error(w, "Scanner not running", http.StatusServiceUnavailable)
		return
	}

	inFlight := []TaskView{}
	for _, t := range scans.Snapshot() {
		inFlight = append(inFlight, TaskView{ID: t.ID, ElementID: t.SourceRef, State: t.State, CreatedAt: t.CreatedAt})
	}

	b.mu.Lock()
	recent := make([]TaskView, 0, len(b.recent))
	for i := len(b.recent) - 1; i >= 0; i-- {
		recent = append(recent, b.recent[i])
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"in_flight": inFlight,
		"recent":    recent,
	})
}

type feedbackRequest struct {
	Judgment string `json:"judgment"`
}

func (b *Board) handleFeedback(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	scans := b.attached()
	if scans == nil {
		http.Error(w, "Scanner not running", http.StatusServiceUnavailable)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	judgment, err := core.ParseJudgment(req.Judgment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := scans.Correct(r.Context(), taskID, judgment)
	switch {
	case errors.Is(err, core.ErrUnknownTask):
		http.Error(w, "Task not found or already judged", http.StatusNotFound)
		return
	case errors.Is(err, core.ErrInvalidJudgment):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		b.logger.Error("Failed to record feedback", zap.String("task_id", taskID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	b.mu.Lock()
	if i, ok := b.index[taskID]; ok {
		b.recent[i].Correction = string(judgment)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"task_id":         taskID,
		"prediction":      record.PredictedLabel,
		"judgment":        record.Judgment,
		"effective_label": record.EffectiveLabel(),
	})
}

func (b *Board) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := b.feedback.List(r.Context())
	if err != nil {
		b.logger.Error("Failed to list feedback", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="feedback.csv"`)
	if err := feedback.WriteCSV(w, records); err != nil {
		b.logger.Warn("Failed to write CSV export", zap.Error(err))
	}
}

func (b *Board) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		b.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
