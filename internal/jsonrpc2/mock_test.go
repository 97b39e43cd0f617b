package jsonrpc2

import (
	"context"
	"sync"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
)

// MockRequestHandler is a RequestHandler that replies from canned data.
type MockRequestHandler struct {
	mu    sync.Mutex
	tasks map[string]*a2a.Task
	calls []string

	// streamEvents are emitted in order by StreamMessage.
	streamEvents []eventbus.Event
	// streamErr is returned by StreamMessage after streamEvents are emitted.
	streamErr error
	// sendErr is returned by SendMessage when set.
	sendErr error
}

// NewMockRequestHandler creates a new instance of MockRequestHandler
func NewMockRequestHandler() *MockRequestHandler {
	return &MockRequestHandler{
		tasks: make(map[string]*a2a.Task),
	}
}

func (h *MockRequestHandler) record(method string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, method)
}

// Calls returns the handler methods invoked so far.
func (h *MockRequestHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *MockRequestHandler) GetAgentCard() *a2a.AgentCard {
	return &a2a.AgentCard{Name: "mock"}
}

func (h *MockRequestHandler) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (any, error) {
	h.record(a2a.MethodSendMessage)
	if h.sendErr != nil {
		return nil, h.sendErr
	}
	reply := a2a.NewTextMessage(a2a.RoleAgent, "echo: "+params.Message.Text())
	reply.ContextID = params.Message.ContextID
	return reply, nil
}

func (h *MockRequestHandler) StreamMessage(ctx context.Context, params *a2a.MessageSendParams, emit func(eventbus.Event) error) error {
	h.record(a2a.MethodStreamMessage)
	for _, event := range h.streamEvents {
		if err := emit(event); err != nil {
			return err
		}
	}
	return h.streamErr
}

func (h *MockRequestHandler) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	h.record(a2a.MethodGetTask)
	h.mu.Lock()
	defer h.mu.Unlock()
	task, ok := h.tasks[params.ID]
	if !ok {
		return nil, &a2a.TaskNotFoundError{TaskID: params.ID}
	}
	return task, nil
}

func (h *MockRequestHandler) CancelTask(ctx context.Context, params *a2a.TaskIdParams) (*a2a.Task, error) {
	h.record(a2a.MethodCancelTask)
	h.mu.Lock()
	defer h.mu.Unlock()
	task, ok := h.tasks[params.ID]
	if !ok {
		return nil, &a2a.TaskNotFoundError{TaskID: params.ID}
	}
	if task.Status.State.Terminal() {
		return nil, &a2a.TaskNotCancelableError{TaskID: task.ID, State: task.Status.State}
	}
	task.Status = a2a.NewTaskStatus(a2a.TaskStateCanceled, nil)
	return task, nil
}

func (h *MockRequestHandler) SetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	h.record(a2a.MethodSetPushConfig)
	return nil, &a2a.PushNotificationNotSupportedError{}
}

func (h *MockRequestHandler) GetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskIdParams) (*a2a.TaskPushNotificationConfig, error) {
	h.record(a2a.MethodGetPushConfig)
	return nil, &a2a.PushNotificationNotSupportedError{}
}

func (h *MockRequestHandler) GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error) {
	h.record(a2a.MethodAuthenticatedCard)
	return nil, &a2a.UnsupportedOperationError{Operation: a2a.MethodAuthenticatedCard}
}

func (h *MockRequestHandler) Resubscribe(ctx context.Context, params *a2a.TaskIdParams, emit func(eventbus.Event) error) error {
	h.record(a2a.MethodResubscribe)
	return &a2a.UnsupportedOperationError{Operation: a2a.MethodResubscribe}
}

func (h *MockRequestHandler) addTask(task *a2a.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks[task.ID] = task
}
