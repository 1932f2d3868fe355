package scanner

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mikey/spam-scanner/internal/core"
)

// ErrInvalidTransition is returned for a state change the lifecycle forbids
var ErrInvalidTransition = errors.New("invalid scan state transition")

// Registry owns scan tasks and the element claims that deduplicate them.
// Claiming an element and creating its task happen under one lock.
type Registry struct {
	mu      sync.Mutex
	claims  map[string]string         // element id -> claiming task id
	tasks   map[string]*core.ScanTask // task id -> task, until terminal
	created int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		claims: make(map[string]string),
		tasks:  make(map[string]*core.ScanTask),
	}
}

// Claim marks elementID as taken and creates its task in state NEW. It
// returns false if the element is already claimed.
func (r *Registry) Claim(elementID, taskID string, now time.Time) (core.ScanTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, claimed := r.claims[elementID]; claimed {
		return core.ScanTask{}, false
	}

	task := &core.ScanTask{
		ID:        taskID,
		State:     core.StateNew,
		SourceRef: elementID,
		CreatedAt: now,
	}
	r.claims[elementID] = taskID
	r.tasks[taskID] = task
	r.created++
	return *task, true
}

// Advance moves a live task to its next state
func (r *Registry) Advance(taskID string, to core.ScanState) (core.ScanTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.advanceLocked(taskID, to)
	if err != nil {
		return core.ScanTask{}, err
	}
	return *task, nil
}

// Complete moves a task to a terminal state and discards it. live reports
// whether its element is still claimed by this task, i.e. whether the
// result should be delivered.
func (r *Registry) Complete(taskID string, to core.ScanState) (task core.ScanTask, live bool, err error) {
	if !to.Terminal() {
		return core.ScanTask{}, false, fmt.Errorf("%w: %s is not terminal", ErrInvalidTransition, to)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.advanceLocked(taskID, to)
	if err != nil {
		return core.ScanTask{}, false, err
	}
	delete(r.tasks, taskID)
	return *t, r.claims[t.SourceRef] == taskID, nil
}

// Release forgets the claim on elementID. A later observation of the same
// element starts a new task; an in-flight task for it will not be delivered.
func (r *Registry) Release(elementID string) (taskID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taskID, ok = r.claims[elementID]
	delete(r.claims, elementID)
	return taskID, ok
}

// Snapshot returns copies of the tasks that have not reached a terminal state
func (r *Registry) Snapshot() []core.ScanTask {
	r.mu.Lock()
	out := make([]core.ScanTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Created returns how many tasks were ever created
func (r *Registry) Created() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

func (r *Registry) advanceLocked(taskID string, to core.ScanState) (*core.ScanTask, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s is not active", ErrInvalidTransition, taskID)
	}
	if !allowed(task.State, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.State, to)
	}
	task.State = to
	return task, nil
}

func allowed(from, to core.ScanState) bool {
	switch from {
	case core.StateNew:
		return to == core.StateLoading
	case core.StateLoading:
		return to.Terminal()
	default:
		return false
	}
}
