// Package executor defines the boundary between the A2A request handler and
// agent business logic.
package executor

import (
	"context"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
)

// RequestContext represents the context of an A2A request.
type RequestContext struct {
	TaskID      string
	ContextID   string
	UserMessage *a2a.Message
	// CurrentTask is the stored task the message continues, if any.
	CurrentTask *a2a.Task
	Metadata    map[string]any
}

// AgentExecutor runs the agent for one request and reports through bus.
//
// Execute must call bus.Finished before returning, or return an error; the
// handler calls Finished on its behalf otherwise.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, bus eventbus.ExecutionEventBus) error
	Cancel(ctx context.Context, taskID string, bus eventbus.ExecutionEventBus) error
}

// NewStatusUpdate builds a status-update event for the request's task.
func (rc *RequestContext) NewStatusUpdate(state a2a.TaskState, msg *a2a.Message, final bool) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{
		Kind:      a2a.KindStatusUpdate,
		TaskID:    rc.TaskID,
		ContextID: rc.ContextID,
		Status:    a2a.NewTaskStatus(state, msg),
		Final:     final,
	}
}

// NewAgentMessage builds an agent reply bound to the request's context.
func (rc *RequestContext) NewAgentMessage(text string) *a2a.Message {
	msg := a2a.NewTextMessage(a2a.RoleAgent, text)
	msg.ContextID = rc.ContextID
	return msg
}
