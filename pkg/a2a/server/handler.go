// Package server implements the A2A request handling on top of an
// executor.AgentExecutor and a taskstore.TaskStore.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
	"github.com/agent-protocol/prime-agent/pkg/a2a/executor"
	"github.com/agent-protocol/prime-agent/pkg/a2a/taskstore"
	"github.com/agent-protocol/prime-agent/pkg/ptr"
)

const eventBufferSize = 16

// EmitFunc receives each event of a streamed exchange.
type EmitFunc = func(event eventbus.Event) error

// Config contains configuration for the request handler.
type Config struct {
	AgentCard *a2a.AgentCard
	Executor  executor.AgentExecutor
	// TaskStore defaults to an in-memory store.
	TaskStore taskstore.TaskStore
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultRequestHandler serves the A2A methods for a single agent.
type DefaultRequestHandler struct {
	card     *a2a.AgentCard
	executor executor.AgentExecutor
	store    taskstore.TaskStore
	logger   *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewDefaultRequestHandler creates a request handler.
func NewDefaultRequestHandler(config Config) (*DefaultRequestHandler, error) {
	if config.AgentCard == nil {
		return nil, errors.New("agent card is required")
	}
	if config.Executor == nil {
		return nil, errors.New("agent executor is required")
	}
	store := config.TaskStore
	if store == nil {
		store = taskstore.NewInMemory()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultRequestHandler{
		card:     config.AgentCard,
		executor: config.Executor,
		store:    store,
		logger:   logger,
		running:  make(map[string]context.CancelFunc),
	}, nil
}

// GetAgentCard returns the served agent card.
func (h *DefaultRequestHandler) GetAgentCard() *a2a.AgentCard {
	return h.card
}

// SendMessage handles message/send. The result is an *a2a.Message or an *a2a.Task.
func (h *DefaultRequestHandler) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (any, error) {
	reqCtx, err := h.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	blocking := true
	if params.Configuration != nil {
		blocking = ptr.Deref(params.Configuration.Blocking, true)
	}
	execParent := ctx
	if !blocking {
		// The agent outlives the request that started it.
		execParent = context.WithoutCancel(ctx)
	}

	bus := h.execute(execParent, reqCtx, func(execCtx context.Context, bus eventbus.ExecutionEventBus) error {
		return h.executor.Execute(execCtx, reqCtx, bus)
	})

	agg := newAggregator(h.store, reqCtx)

	for event := range bus.Events() {
		done, err := agg.apply(ctx, event)
		if err != nil {
			bus.Stop()
			return nil, &a2a.InternalError{Data: err.Error()}
		}
		if done {
			break
		}
		if !blocking && agg.task != nil {
			snapshot := *agg.task
			go h.drain(agg, bus)
			return withHistoryLength(&snapshot, historyLength(params)), nil
		}
	}
	bus.Stop()

	switch result := agg.result().(type) {
	case *a2a.Message:
		return result, nil
	case *a2a.Task:
		return withHistoryLength(result, historyLength(params)), nil
	default:
		return nil, &a2a.InternalError{Data: "agent finished without producing a result"}
	}
}

// StreamMessage handles message/stream, passing every event to emit as it
// arrives. Errors returned before the first emit are protocol errors.
func (h *DefaultRequestHandler) StreamMessage(ctx context.Context, params *a2a.MessageSendParams, emit EmitFunc) error {
	reqCtx, err := h.prepare(ctx, params)
	if err != nil {
		return err
	}

	bus := h.execute(ctx, reqCtx, func(execCtx context.Context, bus eventbus.ExecutionEventBus) error {
		return h.executor.Execute(execCtx, reqCtx, bus)
	})
	defer bus.Stop()

	agg := newAggregator(h.store, reqCtx)
	for event := range bus.Events() {
		done, err := agg.apply(ctx, event)
		if err != nil {
			return &a2a.InternalError{Data: err.Error()}
		}
		if err := emit(event); err != nil {
			return fmt.Errorf("failed to emit event: %w", err)
		}
		if done {
			return nil
		}
	}
	return nil
}

// GetTask handles tasks/get.
func (h *DefaultRequestHandler) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	task, err := h.store.Load(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return withHistoryLength(task, params.HistoryLength), nil
}

// CancelTask handles tasks/cancel.
func (h *DefaultRequestHandler) CancelTask(ctx context.Context, params *a2a.TaskIdParams) (*a2a.Task, error) {
	task, err := h.store.Load(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if task.Status.State.Terminal() {
		return nil, &a2a.TaskNotCancelableError{TaskID: task.ID, State: task.Status.State}
	}

	h.mu.Lock()
	if cancel, ok := h.running[task.ID]; ok {
		cancel()
	}
	h.mu.Unlock()

	reqCtx := &executor.RequestContext{
		TaskID:      task.ID,
		ContextID:   task.ContextID,
		CurrentTask: task,
		Metadata:    params.Metadata,
	}
	bus := h.execute(ctx, reqCtx, func(execCtx context.Context, bus eventbus.ExecutionEventBus) error {
		return h.executor.Cancel(execCtx, task.ID, bus)
	})
	defer bus.Stop()

	agg := newAggregator(h.store, reqCtx)
	for event := range bus.Events() {
		if _, ok := event.(*a2a.Message); ok {
			continue
		}
		if _, err := agg.apply(ctx, event); err != nil {
			return nil, &a2a.InternalError{Data: err.Error()}
		}
	}

	if agg.task.Status.State != a2a.TaskStateCanceled {
		agg.task.Status = a2a.NewTaskStatus(a2a.TaskStateCanceled, nil)
		if err := agg.save(ctx); err != nil {
			return nil, &a2a.InternalError{Data: err.Error()}
		}
	}
	h.logger.Info("Task canceled", "task_id", task.ID)
	return agg.task, nil
}

// SetTaskPushNotificationConfig handles tasks/pushNotificationConfig/set.
func (h *DefaultRequestHandler) SetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	return nil, &a2a.PushNotificationNotSupportedError{}
}

// GetTaskPushNotificationConfig handles tasks/pushNotificationConfig/get.
func (h *DefaultRequestHandler) GetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskIdParams) (*a2a.TaskPushNotificationConfig, error) {
	return nil, &a2a.PushNotificationNotSupportedError{}
}

// GetAuthenticatedExtendedCard handles agent/getAuthenticatedExtendedCard.
func (h *DefaultRequestHandler) GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error) {
	return nil, &a2a.UnsupportedOperationError{Operation: a2a.MethodAuthenticatedCard}
}

// Resubscribe handles tasks/resubscribe.
func (h *DefaultRequestHandler) Resubscribe(ctx context.Context, params *a2a.TaskIdParams, emit EmitFunc) error {
	return &a2a.UnsupportedOperationError{Operation: a2a.MethodResubscribe}
}

// prepare validates the inbound message and resolves task and context IDs.
func (h *DefaultRequestHandler) prepare(ctx context.Context, params *a2a.MessageSendParams) (*executor.RequestContext, error) {
	msg := params.Message
	if err := msg.Validate(); err != nil {
		return nil, &a2a.InvalidParamsError{Data: err.Error()}
	}
	if msg.Kind == "" {
		msg.Kind = a2a.KindMessage
	}

	var current *a2a.Task
	if msg.TaskID != "" {
		task, err := h.store.Load(ctx, msg.TaskID)
		if err != nil {
			return nil, err
		}
		if task.Status.State.Terminal() {
			return nil, &a2a.InvalidRequestError{
				Data: fmt.Sprintf("task %s is in terminal state %s", task.ID, task.Status.State),
			}
		}
		if msg.ContextID != "" && msg.ContextID != task.ContextID {
			return nil, &a2a.InvalidParamsError{
				Data: fmt.Sprintf("contextId %s does not match task context %s", msg.ContextID, task.ContextID),
			}
		}
		current = task
	}

	taskID := msg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	contextID := msg.ContextID
	if contextID == "" {
		if current != nil {
			contextID = current.ContextID
		} else {
			contextID = uuid.NewString()
		}
	}
	msg.ContextID = contextID

	if current != nil {
		current.History = append(current.History, msg)
		if err := h.store.Save(ctx, current); err != nil {
			return nil, &a2a.InternalError{Data: err.Error()}
		}
	}

	return &executor.RequestContext{
		TaskID:      taskID,
		ContextID:   contextID,
		UserMessage: &msg,
		CurrentTask: current,
		Metadata:    params.Metadata,
	}, nil
}

// execute runs fn in its own goroutine and returns the bus it publishes on.
// The bus is always finished once fn returns, and a failed status event is
// published if fn errors or panics.
func (h *DefaultRequestHandler) execute(ctx context.Context, reqCtx *executor.RequestContext, fn func(context.Context, eventbus.ExecutionEventBus) error) *eventbus.InMemory {
	bus := eventbus.NewInMemory(eventBufferSize)
	execCtx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.running[reqCtx.TaskID] = cancel
	h.mu.Unlock()

	go func() {
		defer bus.Finished()
		defer func() {
			h.mu.Lock()
			delete(h.running, reqCtx.TaskID)
			h.mu.Unlock()
			cancel()
		}()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("agent executor panicked: %v", r)
				}
			}()
			return fn(execCtx, bus)
		}()
		if err == nil {
			return
		}

		h.logger.Error("Agent execution failed", "task_id", reqCtx.TaskID, "error", err)
		failed := reqCtx.NewStatusUpdate(a2a.TaskStateFailed, reqCtx.NewAgentMessage(fmt.Sprintf("Agent execution failed: %v", err)), true)
		if pubErr := bus.Publish(execCtx, failed); pubErr != nil && !errors.Is(pubErr, eventbus.ErrFinished) {
			h.logger.Warn("Failed to publish failure event", "task_id", reqCtx.TaskID, "error", pubErr)
		}
	}()

	return bus
}

// drain keeps folding events into the store after a non-blocking send returned.
func (h *DefaultRequestHandler) drain(agg *aggregator, bus *eventbus.InMemory) {
	defer bus.Stop()
	ctx := context.Background()
	for event := range bus.Events() {
		done, err := agg.apply(ctx, event)
		if err != nil {
			h.logger.Warn("Failed to record event", "task_id", agg.reqCtx.TaskID, "error", err)
			return
		}
		if done {
			return
		}
	}
}

func historyLength(params *a2a.MessageSendParams) *int {
	if params.Configuration == nil {
		return nil
	}
	return params.Configuration.HistoryLength
}

// withHistoryLength trims history to the most recent n messages.
func withHistoryLength(task *a2a.Task, n *int) *a2a.Task {
	if n == nil || *n < 0 || len(task.History) <= *n {
		return task
	}
	cp := *task
	cp.History = append([]a2a.Message(nil), task.History[len(task.History)-*n:]...)
	return &cp
}
