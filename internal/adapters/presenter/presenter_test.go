package presenter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	feedbackstore "github.com/mikey/spam-scanner/internal/adapters/feedback"
	"github.com/mikey/spam-scanner/internal/core"
)

type fakeScans struct {
	mu       sync.Mutex
	inFlight []core.ScanTask
	judged   map[string]core.Judgment
	repo     core.FeedbackRepository
	failWith error
}

func (f *fakeScans) Snapshot() []core.ScanTask {
	return f.inFlight
}

func (f *fakeScans) Correct(ctx context.Context, taskID string, judgment core.Judgment) (*core.FeedbackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if taskID != "done-1" {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTask, taskID)
	}
	if _, ok := f.judged[taskID]; ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTask, taskID)
	}
	f.judged[taskID] = judgment
	record := &core.FeedbackRecord{
		Text:           "cheap pills",
		PredictedLabel: core.LabelSpam,
		Judgment:       judgment,
		Reason:         "Likely spam",
		Timestamp:      time.UnixMilli(5),
	}
	return record, f.repo.Append(ctx, record)
}

func newTestBoard(t *testing.T) (*Board, *fakeScans) {
	t.Helper()
	repo := feedbackstore.NewMemoryStore(zap.NewNop())
	scans := &fakeScans{
		inFlight: []core.ScanTask{{ID: "live-1", State: core.StateLoading, SourceRef: "el-live"}},
		judged:   make(map[string]core.Judgment),
		repo:     repo,
	}
	b := NewBoard(repo, func() bool { return true }, zap.NewNop(), 2)
	b.Attach(scans)
	b.Present(core.ScanUpdate{
		Task:   core.ScanTask{ID: "done-1", State: core.StateSpam, SourceRef: "el-done"},
		Result: &core.ClassificationResult{IsSpam: true, Confidence: 0.9, InfluentialTerms: []string{"pills"}, Reason: "Likely spam"},
	})
	return b, scans
}

func TestBoard_Health(t *testing.T) {
	b, _ := newTestBoard(t)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["model_loaded"] != true {
		t.Errorf("unexpected body %v", body)
	}
}

func TestBoard_Tasks(t *testing.T) {
	b, _ := newTestBoard(t)
	b.Present(core.ScanUpdate{Task: core.ScanTask{ID: "loading", State: core.StateLoading}})
	b.Present(core.ScanUpdate{Task: core.ScanTask{ID: "err-1", State: core.StateError, SourceRef: "el-err"}, Err: errors.New("boom")})

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	var body struct {
		InFlight []TaskView `json:"in_flight"`
		Recent   []TaskView `json:"recent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.InFlight) != 1 || body.InFlight[0].ID != "live-1" {
		t.Errorf("unexpected in-flight %+v", body.InFlight)
	}
	if len(body.Recent) != 2 {
		t.Fatalf("expected 2 recent tasks, got %d", len(body.Recent))
	}
	if body.Recent[0].ID != "err-1" || body.Recent[0].Error != "boom" {
		t.Errorf("newest first expected, got %+v", body.Recent[0])
	}
	if body.Recent[1].Result == nil || body.Recent[1].Result.Reason != "Likely spam" {
		t.Errorf("unexpected result %+v", body.Recent[1])
	}
}

func TestBoard_Detached(t *testing.T) {
	b := NewBoard(feedbackstore.NewMemoryStore(zap.NewNop()), nil, zap.NewNop(), 0)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health must not depend on the scanner, got %d", rec.Code)
	}
}

func TestBoard_RecentIsBounded(t *testing.T) {
	b, _ := newTestBoard(t)
	for i := 0; i < 5; i++ {
		b.Present(core.ScanUpdate{Task: core.ScanTask{ID: fmt.Sprintf("t%d", i), State: core.StateSafe}, Result: &core.ClassificationResult{}})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.recent) != 2 || b.recent[1].ID != "t4" {
		t.Errorf("unexpected recent %+v", b.recent)
	}
	if _, ok := b.index["done-1"]; ok {
		t.Error("evicted tasks must leave the index")
	}
}

func TestBoard_Feedback(t *testing.T) {
	tests := []struct {
		name       string
		taskID     string
		body       string
		wantStatus int
	}{
		{"accepted", "done-1", `{"judgment":"incorrect"}`, http.StatusCreated},
		{"judged twice", "done-1", `{"judgment":"correct"}`, http.StatusNotFound},
		{"unknown task", "missing", `{"judgment":"correct"}`, http.StatusNotFound},
		{"bad judgment", "done-1", `{"judgment":"maybe"}`, http.StatusBadRequest},
		{"bad body", "done-1", `{`, http.StatusBadRequest},
	}

	b, _ := newTestBoard(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tasks/"+tt.taskID+"/feedback", strings.NewReader(tt.body))
			b.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.recent[b.index["done-1"]].Correction != "incorrect" {
		t.Error("accepted correction should show on the board")
	}
}

func TestBoard_FeedbackStoreFailure(t *testing.T) {
	b, scans := newTestBoard(t)
	scans.failWith = errors.New("disk full")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks/done-1/feedback", strings.NewReader(`{"judgment":"correct"}`))
	b.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestBoard_Export(t *testing.T) {
	b, _ := newTestBoard(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks/done-1/feedback", strings.NewReader(`{"judgment":"incorrect"}`))
	b.Handler().ServeHTTP(rec, req)

	rec = httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feedback/export.csv", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	want := "Message,Category,Prediction,Feedback,Terms,Reason,Timestamp\n" +
		`"cheap pills",ham,spam,incorrect,"unknown","Likely spam",5` + "\n"
	if rec.Body.String() != want {
		t.Errorf("unexpected export:\n%s", rec.Body.String())
	}
}

func TestConsolePresenter(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsolePresenter(&buf, false)

	p.Present(core.ScanUpdate{Task: core.ScanTask{ID: "t1", State: core.StateLoading, SourceRef: "el"}})
	if buf.Len() != 0 {
		t.Errorf("LOADING should be quiet unless verbose, got %q", buf.String())
	}

	p.Present(core.ScanUpdate{
		Task:   core.ScanTask{ID: "t1", State: core.StateSpam, SourceRef: "el"},
		Result: &core.ClassificationResult{IsSpam: true, Confidence: 0.875, InfluentialTerms: []string{"free", "winner"}, Reason: "Likely spam"},
	})
	if got := buf.String(); got != "[SPAM] t1 el: 87.5% Likely spam (free, winner)\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	PrintResult(&buf, core.ClassificationResult{IsSpam: false, Confidence: 1, Reason: "short message", InfluentialTerms: []string{}})
	out := buf.String()
	if !strings.Contains(out, "Verdict: SAFE") || strings.Contains(out, "Influential terms") {
		t.Errorf("unexpected output %q", out)
	}
}
