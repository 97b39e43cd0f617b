package server

import (
	"context"
	"fmt"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
	"github.com/agent-protocol/prime-agent/pkg/a2a/executor"
	"github.com/agent-protocol/prime-agent/pkg/a2a/taskstore"
)

// aggregator folds executor events into the request result and keeps the
// task store current.
type aggregator struct {
	store   taskstore.TaskStore
	reqCtx  *executor.RequestContext
	message *a2a.Message
	task    *a2a.Task
}

func newAggregator(store taskstore.TaskStore, reqCtx *executor.RequestContext) *aggregator {
	agg := &aggregator{store: store, reqCtx: reqCtx}
	if reqCtx.CurrentTask != nil {
		cp := *reqCtx.CurrentTask
		agg.task = &cp
	}
	return agg
}

// apply consumes one event and reports whether the exchange is over.
func (a *aggregator) apply(ctx context.Context, event eventbus.Event) (bool, error) {
	switch ev := event.(type) {
	case *a2a.Message:
		a.message = ev
		if a.task != nil {
			a.task.History = append(a.task.History, *ev)
			return true, a.save(ctx)
		}
		return true, nil

	case *a2a.Task:
		if ev.ID != a.reqCtx.TaskID {
			return false, fmt.Errorf("task event for %s does not match request task %s", ev.ID, a.reqCtx.TaskID)
		}
		cp := *ev
		if cp.Kind == "" {
			cp.Kind = a2a.KindTask
		}
		if len(cp.History) == 0 && a.reqCtx.UserMessage != nil {
			cp.History = []a2a.Message{*a.reqCtx.UserMessage}
		}
		a.task = &cp
		return cp.Status.State.Terminal(), a.save(ctx)

	case *a2a.TaskStatusUpdateEvent:
		a.ensureTask()
		if prev := a.task.Status.Message; prev != nil {
			a.task.History = append(a.task.History, *prev)
		}
		a.task.Status = ev.Status
		return ev.Final, a.save(ctx)

	case *a2a.TaskArtifactUpdateEvent:
		a.ensureTask()
		a.mergeArtifact(ev)
		return false, a.save(ctx)

	default:
		return false, fmt.Errorf("unsupported event type %T", event)
	}
}

func (a *aggregator) ensureTask() {
	if a.task != nil {
		return
	}
	task := &a2a.Task{
		Kind:      a2a.KindTask,
		ID:        a.reqCtx.TaskID,
		ContextID: a.reqCtx.ContextID,
		Status:    a2a.NewTaskStatus(a2a.TaskStateSubmitted, nil),
	}
	if a.reqCtx.UserMessage != nil {
		task.History = []a2a.Message{*a.reqCtx.UserMessage}
	}
	a.task = task
}

func (a *aggregator) mergeArtifact(ev *a2a.TaskArtifactUpdateEvent) {
	for i := range a.task.Artifacts {
		existing := &a.task.Artifacts[i]
		if existing.ArtifactID != ev.Artifact.ArtifactID {
			continue
		}
		if ev.Append {
			existing.Parts = append(existing.Parts, ev.Artifact.Parts...)
		} else {
			*existing = ev.Artifact
		}
		return
	}
	a.task.Artifacts = append(a.task.Artifacts, ev.Artifact)
}

func (a *aggregator) save(ctx context.Context) error {
	if a.task == nil {
		return nil
	}
	// A canceled task stays canceled even if the interrupted run reports late.
	if stored, err := a.store.Load(ctx, a.task.ID); err == nil &&
		stored.Status.State == a2a.TaskStateCanceled && a.task.Status.State != a2a.TaskStateCanceled {
		a.task.Status = stored.Status
		return nil
	}
	if err := a.store.Save(ctx, a.task); err != nil {
		return fmt.Errorf("failed to save task %s: %w", a.task.ID, err)
	}
	return nil
}

// result is the Message or Task the exchange produced, or nil.
func (a *aggregator) result() any {
	if a.message != nil {
		return a.message
	}
	if a.task != nil {
		return a.task
	}
	return nil
}
