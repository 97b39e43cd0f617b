// Package jsonrpc2 decodes A2A JSON-RPC 2.0 payloads and dispatches them to a
// RequestHandler.
package jsonrpc2

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	jsoniter "github.com/json-iterator/go"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/a2a/eventbus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is the only accepted value of the jsonrpc member.
const Version = "2.0"

// RequestHandler defines the A2A operations reachable over JSON-RPC.
type RequestHandler interface {
	GetAgentCard() *a2a.AgentCard
	SendMessage(ctx context.Context, params *a2a.MessageSendParams) (any, error)
	StreamMessage(ctx context.Context, params *a2a.MessageSendParams, emit func(eventbus.Event) error) error
	GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error)
	CancelTask(ctx context.Context, params *a2a.TaskIdParams) (*a2a.Task, error)
	SetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	GetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskIdParams) (*a2a.TaskPushNotificationConfig, error)
	GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error)
	Resubscribe(ctx context.Context, params *a2a.TaskIdParams, emit func(eventbus.Event) error) error
}

// Stream receives the responses of a streaming method, one per event.
type Stream interface {
	// Open is called once, before the first Send.
	Open() error
	Send(resp *a2a.JSONRPCResponse) error
}

// Request is a decoded JSON-RPC request. An absent ID marks a notification.
type Request struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      jsoniter.RawMessage `json:"id,omitempty"`
	Method  string              `json:"method"`
	Params  jsoniter.RawMessage `json:"params,omitempty"`
}

// Server represents a JSON-RPC 2.0 server for A2A protocol
type Server struct {
	handler RequestHandler
	logger  *slog.Logger
}

// NewServer creates a new A2A JSON-RPC 2.0 server with the given handler.
func NewServer(handler RequestHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler: handler,
		logger:  logger,
	}
}

// Process handles a single or batch payload and returns the encoded
// response, or nil when nothing is to be written back (notifications only,
// or a response already delivered through stream). stream may be nil, in
// which case streaming methods are rejected.
func (s *Server) Process(ctx context.Context, body []byte, stream Stream) []byte {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return s.processBatch(ctx, trimmed)
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return encode(errorResponse(nil, &a2a.JSONParseError{Data: err.Error()}))
	}

	resp := s.dispatch(ctx, &req, stream)
	if resp == nil {
		return nil
	}
	return encode(resp)
}

func (s *Server) processBatch(ctx context.Context, body []byte) []byte {
	var raws []jsoniter.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return encode(errorResponse(nil, &a2a.JSONParseError{Data: err.Error()}))
	}
	if len(raws) == 0 {
		return encode(errorResponse(nil, &a2a.InvalidRequestError{Data: "batch request cannot be empty"}))
	}

	responses := make([]*a2a.JSONRPCResponse, 0, len(raws))
	for _, raw := range raws {
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			responses = append(responses, errorResponse(nil, &a2a.InvalidRequestError{Data: err.Error()}))
			continue
		}
		if resp := s.dispatch(ctx, &req, nil); resp != nil {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		return nil
	}
	return encode(responses)
}

// dispatch runs one request. It returns nil for notifications and for
// requests whose responses went through stream.
func (s *Server) dispatch(ctx context.Context, req *Request, stream Stream) *a2a.JSONRPCResponse {
	id, err := decodeID(req.ID)
	if err != nil {
		return errorResponse(nil, err)
	}
	if req.JSONRPC != Version {
		return errorResponse(id, &a2a.InvalidRequestError{Data: "jsonrpc must be '2.0'"})
	}
	if req.Method == "" {
		return errorResponse(id, &a2a.InvalidRequestError{Data: "method is required"})
	}

	notification := len(req.ID) == 0
	s.logger.Debug("Handling JSON-RPC request", "method", req.Method, "id", id, "notification", notification)

	var result any
	switch req.Method {
	case a2a.MethodSendMessage:
		var params a2a.MessageSendParams
		if err = decodeParams(req.Params, &params); err == nil {
			result, err = s.handler.SendMessage(ctx, &params)
		}

	case a2a.MethodStreamMessage:
		var params a2a.MessageSendParams
		if err = decodeParams(req.Params, &params); err == nil {
			return s.stream(id, notification, stream, func(emit func(eventbus.Event) error) error {
				return s.handler.StreamMessage(ctx, &params, emit)
			})
		}

	case a2a.MethodResubscribe:
		var params a2a.TaskIdParams
		if err = decodeParams(req.Params, &params); err == nil {
			return s.stream(id, notification, stream, func(emit func(eventbus.Event) error) error {
				return s.handler.Resubscribe(ctx, &params, emit)
			})
		}

	case a2a.MethodGetTask:
		var params a2a.TaskQueryParams
		if err = decodeParams(req.Params, &params); err == nil {
			result, err = s.handler.GetTask(ctx, &params)
		}

	case a2a.MethodCancelTask:
		var params a2a.TaskIdParams
		if err = decodeParams(req.Params, &params); err == nil {
			result, err = s.handler.CancelTask(ctx, &params)
		}

	case a2a.MethodSetPushConfig:
		var params a2a.TaskPushNotificationConfig
		if err = decodeParams(req.Params, &params); err == nil {
			result, err = s.handler.SetTaskPushNotificationConfig(ctx, &params)
		}

	case a2a.MethodGetPushConfig:
		var params a2a.TaskIdParams
		if err = decodeParams(req.Params, &params); err == nil {
			result, err = s.handler.GetTaskPushNotificationConfig(ctx, &params)
		}

	case a2a.MethodListPushConfig, a2a.MethodDeletePushConfig:
		err = &a2a.PushNotificationNotSupportedError{}

	case a2a.MethodAuthenticatedCard:
		result, err = s.handler.GetAuthenticatedExtendedCard(ctx)

	default:
		err = &a2a.MethodNotFoundError{Method: req.Method}
	}

	if notification {
		if err != nil {
			s.logger.Warn("Notification failed", "method", req.Method, "error", err)
		}
		return nil
	}
	if err != nil {
		s.logger.Debug("JSON-RPC request failed", "method", req.Method, "error", err)
		return errorResponse(id, err)
	}
	return &a2a.JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// stream runs a streaming method. Errors raised before the first event are
// returned as a plain response; later errors are sent as the last stream item.
func (s *Server) stream(id any, notification bool, stream Stream, run func(emit func(eventbus.Event) error) error) *a2a.JSONRPCResponse {
	if stream == nil {
		if notification {
			return nil
		}
		return errorResponse(id, &a2a.UnsupportedOperationError{Operation: "streaming is not available for this request"})
	}

	opened := false
	err := run(func(event eventbus.Event) error {
		if !opened {
			if err := stream.Open(); err != nil {
				return err
			}
			opened = true
		}
		return stream.Send(&a2a.JSONRPCResponse{
			JSONRPC: Version,
			ID:      id,
			Result:  event,
		})
	})

	switch {
	case err == nil:
		return nil
	case !opened:
		if notification {
			return nil
		}
		return errorResponse(id, err)
	default:
		s.logger.Warn("Stream ended with error", "id", id, "error", err)
		if sendErr := stream.Send(errorResponse(id, err)); sendErr != nil {
			s.logger.Debug("Failed to send stream error", "error", sendErr)
		}
		return nil
	}
}

// numberID is a numeric request id in its original textual form.
type numberID string

func (n numberID) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// decodeID returns the request id to echo. Numbers are kept as their raw
// bytes so that ids beyond float64 precision come back unchanged.
func decodeID(raw jsoniter.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch jsoniter.Get(raw).ValueType() {
	case jsoniter.NilValue:
		return nil, nil
	case jsoniter.NumberValue:
		return numberID(bytes.TrimSpace(raw)), nil
	case jsoniter.StringValue:
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, &a2a.InvalidRequestError{Data: fmt.Sprintf("invalid id: %v", err)}
		}
		return id, nil
	default:
		return nil, &a2a.InvalidRequestError{Data: "id must be a string, number or null"}
	}
}

func decodeParams(raw jsoniter.RawMessage, v any) error {
	if len(raw) == 0 {
		return &a2a.InvalidParamsError{Data: "params are required"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &a2a.InvalidParamsError{Data: err.Error()}
	}
	return nil
}

func errorResponse(id any, err error) *a2a.JSONRPCResponse {
	return &a2a.JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Error:   a2a.ToJSONRPCError(err),
	}
}

func encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(errorResponse(nil, &a2a.InternalError{Data: err.Error()}))
	}
	return data
}
