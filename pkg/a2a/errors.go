package a2a

import (
	"errors"
	"fmt"
)

// JSON-RPC and A2A error codes.
const (
	CodeParseError                   = -32700
	CodeInvalidRequest               = -32600
	CodeMethodNotFound               = -32601
	CodeInvalidParams                = -32602
	CodeInternalError                = -32603
	CodeTaskNotFound                 = -32001
	CodeTaskNotCancelable            = -32002
	CodePushNotificationNotSupported = -32003
	CodeUnsupportedOperation         = -32004
)

// JSONRPCError represents a standard JSON-RPC error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface for JSONRPCError
func (e *JSONRPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("JSON-RPC error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// JSONParseError represents a JSON-RPC parse error.
type JSONParseError struct {
	Data any
}

// InvalidRequestError represents a JSON-RPC invalid request error.
type InvalidRequestError struct {
	Data any
}

// MethodNotFoundError represents a JSON-RPC method not found error.
type MethodNotFoundError struct {
	Method string
}

// InvalidParamsError represents a JSON-RPC invalid parameters error.
type InvalidParamsError struct {
	Data any
}

// InternalError represents a generic internal JSON-RPC error.
type InternalError struct {
	Data any
}

// TaskNotFoundError indicates the requested task ID was not found.
type TaskNotFoundError struct {
	TaskID string
}

// TaskNotCancelableError indicates a task cannot be canceled (e.g., already completed).
type TaskNotCancelableError struct {
	TaskID string
	State  TaskState
}

// PushNotificationNotSupportedError indicates push notifications are not supported.
type PushNotificationNotSupportedError struct{}

// UnsupportedOperationError indicates the requested operation is not supported by the agent.
type UnsupportedOperationError struct {
	Operation string
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("invalid JSON payload: %v", e.Data)
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("request payload validation error: %v", e.Data)
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.Method)
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid parameters: %v", e.Data)
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Data)
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

func (e *TaskNotCancelableError) Error() string {
	return fmt.Sprintf("task %s cannot be canceled in state %s", e.TaskID, e.State)
}

func (e *PushNotificationNotSupportedError) Error() string {
	return "push notification is not supported"
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation not supported: %s", e.Operation)
}

// ToJSONRPCError converts err into the wire error object. Errors that are not
// protocol errors become -32603 with the error text as data.
func ToJSONRPCError(err error) *JSONRPCError {
	var (
		rpcErr         *JSONRPCError
		parseErr       *JSONParseError
		invalidReq     *InvalidRequestError
		notFound       *MethodNotFoundError
		invalidParams  *InvalidParamsError
		internal       *InternalError
		taskNotFound   *TaskNotFoundError
		notCancelable  *TaskNotCancelableError
		pushNotSupport *PushNotificationNotSupportedError
		unsupported    *UnsupportedOperationError
	)

	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &parseErr):
		return &JSONRPCError{Code: CodeParseError, Message: "Invalid JSON payload", Data: parseErr.Data}
	case errors.As(err, &invalidReq):
		return &JSONRPCError{Code: CodeInvalidRequest, Message: "Request payload validation error", Data: invalidReq.Data}
	case errors.As(err, &notFound):
		return &JSONRPCError{Code: CodeMethodNotFound, Message: "Method not found", Data: notFound.Method}
	case errors.As(err, &invalidParams):
		return &JSONRPCError{Code: CodeInvalidParams, Message: "Invalid parameters", Data: invalidParams.Data}
	case errors.As(err, &internal):
		return &JSONRPCError{Code: CodeInternalError, Message: "Internal error", Data: internal.Data}
	case errors.As(err, &taskNotFound):
		return &JSONRPCError{Code: CodeTaskNotFound, Message: "Task not found", Data: taskNotFound.TaskID}
	case errors.As(err, &notCancelable):
		return &JSONRPCError{Code: CodeTaskNotCancelable, Message: "Task cannot be canceled", Data: notCancelable.TaskID}
	case errors.As(err, &pushNotSupport):
		return &JSONRPCError{Code: CodePushNotificationNotSupported, Message: "Push Notification is not supported"}
	case errors.As(err, &unsupported):
		return &JSONRPCError{Code: CodeUnsupportedOperation, Message: "This operation is not supported", Data: unsupported.Operation}
	default:
		return &JSONRPCError{Code: CodeInternalError, Message: "Internal error", Data: err.Error()}
	}
}
