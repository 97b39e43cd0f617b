// Package taskstore keeps A2A tasks between requests.
package taskstore

import (
	"context"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TaskStore persists tasks by ID.
type TaskStore interface {
	// Save inserts or replaces the task.
	Save(ctx context.Context, task *a2a.Task) error
	// Load returns the task, or a *a2a.TaskNotFoundError.
	Load(ctx context.Context, taskID string) (*a2a.Task, error)
}

// InMemory is a TaskStore held in process memory. Tasks are copied on the
// way in and out so callers never share state with the store.
type InMemory struct {
	tasks map[string]*a2a.Task
	mu    sync.RWMutex
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		tasks: make(map[string]*a2a.Task),
	}
}

// Save implements TaskStore.
func (s *InMemory) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task with an id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cp, err := clone(task)
	if err != nil {
		return fmt.Errorf("failed to copy task %s: %w", task.ID, err)
	}

	s.mu.Lock()
	s.tasks[task.ID] = cp
	s.mu.Unlock()
	return nil
}

// Load implements TaskStore.
func (s *InMemory) Load(ctx context.Context, taskID string) (*a2a.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	task, exists := s.tasks[taskID]
	s.mu.RUnlock()

	if !exists {
		return nil, &a2a.TaskNotFoundError{TaskID: taskID}
	}
	return clone(task)
}

// Len returns the number of stored tasks.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func clone(task *a2a.Task) (*a2a.Task, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	var cp a2a.Task
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
