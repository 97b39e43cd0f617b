package a2a

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the A2A protocol revision these objects follow.
const ProtocolVersion = "0.3.0"

// Kind discriminators used on the wire.
const (
	KindMessage        = "message"
	KindTask           = "task"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
	KindText           = "text"
	KindFile           = "file"
	KindData           = "data"
)

// Roles of a message author.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// TransportJSONRPC is the only transport exposed by this server.
const TransportJSONRPC = "JSONRPC"

// AgentCapabilities defines the capabilities of an agent.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty" yaml:"streaming"`
	PushNotifications      bool `json:"pushNotifications,omitempty" yaml:"push_notifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty" yaml:"state_transition_history"`
}

// AgentCard provides metadata about an agent.
type AgentCard struct {
	Name               string            `json:"name" yaml:"name"`
	Description        string            `json:"description" yaml:"description"`
	ProtocolVersion    string            `json:"protocolVersion" yaml:"protocol_version"`
	Version            string            `json:"version" yaml:"version"`
	URL                string            `json:"url" yaml:"url"`
	PreferredTransport string            `json:"preferredTransport,omitempty" yaml:"preferred_transport"`
	Provider           *AgentProvider    `json:"provider,omitempty" yaml:"provider"`
	DocumentationURL   string            `json:"documentationUrl,omitempty" yaml:"documentation_url"`
	Capabilities       AgentCapabilities `json:"capabilities" yaml:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes" yaml:"default_input_modes"`
	DefaultOutputModes []string          `json:"defaultOutputModes" yaml:"default_output_modes"`
	Skills             []AgentSkill      `json:"skills" yaml:"skills"`
}

// AgentProvider provides information about the agent's provider.
type AgentProvider struct {
	Organization string `json:"organization" yaml:"organization"`
	URL          string `json:"url,omitempty" yaml:"url"`
}

// AgentSkill describes a specific skill or capability of the agent.
type AgentSkill struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	Examples    []string `json:"examples,omitempty" yaml:"examples"`
	InputModes  []string `json:"inputModes,omitempty" yaml:"input_modes"`
	OutputModes []string `json:"outputModes,omitempty" yaml:"output_modes"`
}

// FileContent represents the content of a file, either inline or via URI.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"` // base64
	URI      string `json:"uri,omitempty"`
}

// Validate ensures that FileContent has either Bytes or URI but not both
func (fc *FileContent) Validate() error {
	if (fc.Bytes == "") == (fc.URI == "") {
		return fmt.Errorf("file content must have either bytes or uri, but not both")
	}
	return nil
}

// Part is a component of a message or artifact, discriminated by Kind.
type Part struct {
	Kind     string         `json:"kind"`
	Text     string         `json:"text,omitempty"`
	File     *FileContent   `json:"file,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Kind: KindText, Text: text}
}

// Validate checks that the part carries the field its kind requires.
func (p *Part) Validate() error {
	switch p.Kind {
	case KindText:
		return nil
	case KindFile:
		if p.File == nil {
			return fmt.Errorf("file part missing 'file' field")
		}
		return p.File.Validate()
	case KindData:
		if p.Data == nil {
			return fmt.Errorf("data part missing 'data' field")
		}
		return nil
	default:
		return fmt.Errorf("unknown part kind: %q", p.Kind)
	}
}

// Message represents a single message exchanged between user and agent.
type Message struct {
	Kind             string         `json:"kind"`
	MessageID        string         `json:"messageId"`
	Role             string         `json:"role"`
	Parts            []Part         `json:"parts"`
	ContextID        string         `json:"contextId,omitempty"`
	TaskID           string         `json:"taskId,omitempty"`
	ReferenceTaskIDs []string       `json:"referenceTaskIds,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// NewTextMessage builds a message with a fresh ID and a single text part.
func NewTextMessage(role, text string) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.NewString(),
		Role:      role,
		Parts:     []Part{TextPart(text)},
	}
}

// Text concatenates the text parts of the message.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Kind == KindText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Validate checks the fields a server requires on an inbound message.
func (m *Message) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("messageId is required in message")
	}
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must contain at least one part")
	}
	for i := range m.Parts {
		if err := m.Parts[i].Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// Artifact represents a piece of data generated by a task.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TaskState represents the possible states of a task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateUnknown       TaskState = "unknown"
)

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	}
	return false
}

// TaskStatus represents the current status of a task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"` // RFC 3339
}

// NewTaskStatus returns a status stamped with the current time.
func NewTaskStatus(state TaskState, msg *Message) TaskStatus {
	return TaskStatus{
		State:     state,
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Task represents the state and data associated with an agent task.
type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskStatusUpdateEvent represents a change in task status.
type TaskStatusUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskArtifactUpdateEvent represents a new or updated artifact.
type TaskArtifactUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Artifact  Artifact       `json:"artifact"`
	Append    bool           `json:"append,omitempty"`
	LastChunk bool           `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// PushNotificationConfig defines where task updates are pushed.
type PushNotificationConfig struct {
	ID    string `json:"id,omitempty"`
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// TaskPushNotificationConfig associates a task ID with its push notification settings.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// MessageSendConfiguration tunes a message/send call.
type MessageSendConfiguration struct {
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	HistoryLength          *int                    `json:"historyLength,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	Blocking               *bool                   `json:"blocking,omitempty"`
}

// MessageSendParams are the params of message/send and message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// TaskIdParams provides parameters containing just a task ID.
type TaskIdParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams provides parameters for querying a task, including history length.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength *int           `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// JSONRPCRequest is a base structure for JSON-RPC requests.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"` // "2.0"
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// JSONRPCResponse is a base structure for JSON-RPC responses.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"` // "2.0"
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSON-RPC method names.
const (
	MethodSendMessage       = "message/send"
	MethodStreamMessage     = "message/stream"
	MethodGetTask           = "tasks/get"
	MethodCancelTask        = "tasks/cancel"
	MethodResubscribe       = "tasks/resubscribe"
	MethodSetPushConfig     = "tasks/pushNotificationConfig/set"
	MethodGetPushConfig     = "tasks/pushNotificationConfig/get"
	MethodListPushConfig    = "tasks/pushNotificationConfig/list"
	MethodDeletePushConfig  = "tasks/pushNotificationConfig/delete"
	MethodAuthenticatedCard = "agent/getAuthenticatedExtendedCard"
)

// Agent card discovery paths.
const (
	WellKnownAgentCardPath       = "/.well-known/agent-card.json"
	LegacyWellKnownAgentCardPath = "/.well-known/agent.json"
)
