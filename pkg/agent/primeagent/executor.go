// Package primeagent is an A2A agent that answers every message with a
// random prime.
package primeagent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
	"github.com/agent-protocol/prime-agent/pkg/a2a/executor"
	"github.com/agent-protocol/prime-agent/pkg/prime"
)

// ReplyFormat is the text of every reply.
const ReplyFormat = "Here is a prime number: %d"

// Executor implements executor.AgentExecutor for the prime agent.
type Executor struct {
	src    prime.Source
	rng    prime.Range
	logger *slog.Logger
}

var _ executor.AgentExecutor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithSource replaces the global random source.
func WithSource(src prime.Source) Option {
	return func(e *Executor) { e.src = src }
}

// WithRange replaces prime.DefaultRange.
func WithRange(r prime.Range) Option {
	return func(e *Executor) { e.rng = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// NewExecutor creates the prime executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		src:    prime.GlobalSource(),
		rng:    prime.DefaultRange,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Range returns the range primes are drawn from.
func (e *Executor) Range() prime.Range {
	return e.rng
}

// Execute publishes a single agent message carrying a fresh prime and
// finishes the bus. The inbound message content is ignored.
func (e *Executor) Execute(ctx context.Context, reqCtx *executor.RequestContext, bus eventbus.ExecutionEventBus) error {
	n := prime.Generate(e.src, e.rng)
	e.logger.Debug("Generated prime", "prime", n, "context_id", reqCtx.ContextID)

	reply := reqCtx.NewAgentMessage(fmt.Sprintf(ReplyFormat, n))
	if err := bus.Publish(ctx, reply); err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}
	bus.Finished()
	return nil
}

// Cancel does nothing; a reply is produced synchronously and cannot be
// interrupted.
func (e *Executor) Cancel(ctx context.Context, taskID string, bus eventbus.ExecutionEventBus) error {
	return nil
}
