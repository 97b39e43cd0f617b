package a2a

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer answers every POST with the result of reply for the decoded request.
func rpcServer(t *testing.T, reply func(req map[string]any) map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))

		resp := reply(req)
		resp["jsonrpc"] = "2.0"
		resp["id"] = req["id"]
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_SendMessage(t *testing.T) {
	var gotMethod string
	srv := rpcServer(t, func(req map[string]any) map[string]any {
		gotMethod, _ = req["method"].(string)
		reply := NewTextMessage(RoleAgent, "Here is a prime number: 13")
		reply.ContextID = "ctx-1"
		return map[string]any{"result": reply}
	})
	defer srv.Close()

	client, err := NewClient(&AgentCard{URL: srv.URL}, nil)
	require.NoError(t, err)

	msg := NewTextMessage(RoleUser, "hi")
	msg.ContextID = "ctx-1"
	result, err := client.SendMessage(context.Background(), &MessageSendParams{Message: *msg})
	require.NoError(t, err)

	assert.Equal(t, MethodSendMessage, gotMethod)
	reply, ok := result.(*Message)
	require.True(t, ok, "expected *Message, got %T", result)
	assert.Equal(t, "Here is a prime number: 13", reply.Text())
	assert.Equal(t, "ctx-1", reply.ContextID)
}

func TestClient_SurfacesJSONRPCError(t *testing.T) {
	srv := rpcServer(t, func(req map[string]any) map[string]any {
		return map[string]any{"error": map[string]any{"code": CodeTaskNotFound, "message": "Task not found", "data": "t1"}}
	})
	defer srv.Close()

	client, err := NewClient(&AgentCard{URL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.GetTask(context.Background(), &TaskQueryParams{ID: "t1"})
	var rpcErr *JSONRPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeTaskNotFound, rpcErr.Code)
}

func TestClient_GetAndCancelTask(t *testing.T) {
	srv := rpcServer(t, func(req map[string]any) map[string]any {
		state := TaskStateWorking
		if req["method"] == MethodCancelTask {
			state = TaskStateCanceled
		}
		params := req["params"].(map[string]any)
		return map[string]any{"result": Task{Kind: KindTask, ID: params["id"].(string), ContextID: "c", Status: NewTaskStatus(state, nil)}}
	})
	defer srv.Close()

	client, err := NewClient(&AgentCard{}, &ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	task, err := client.GetTask(context.Background(), &TaskQueryParams{ID: "t9"})
	require.NoError(t, err)
	assert.Equal(t, "t9", task.ID)
	assert.Equal(t, TaskStateWorking, task.Status.State)

	task, err = client.CancelTask(context.Background(), &TaskIdParams{ID: "t9"})
	require.NoError(t, err)
	assert.Equal(t, TaskStateCanceled, task.Status.State)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(&AgentCard{URL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = client.GetTask(context.Background(), &TaskQueryParams{ID: "t"})
	assert.ErrorContains(t, err, "HTTP error 429")
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)
	_, err = NewClient(&AgentCard{}, nil)
	assert.Error(t, err)
}

func TestClient_SendMessageStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		events := []any{
			TaskStatusUpdateEvent{Kind: KindStatusUpdate, TaskID: "t", ContextID: "c", Status: NewTaskStatus(TaskStateWorking, nil)},
			TaskArtifactUpdateEvent{Kind: KindArtifactUpdate, TaskID: "t", ContextID: "c", Artifact: Artifact{ArtifactID: "a", Parts: []Part{TextPart("5")}}},
			TaskStatusUpdateEvent{Kind: KindStatusUpdate, TaskID: "t", ContextID: "c", Status: NewTaskStatus(TaskStateCompleted, nil), Final: true},
		}
		for _, ev := range events {
			data, err := json.Marshal(JSONRPCResponse{JSONRPC: "2.0", ID: "1", Result: ev})
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
	}))
	defer srv.Close()

	client, err := NewClient(&AgentCard{URL: srv.URL}, nil)
	require.NoError(t, err)

	var got []any
	err = client.SendMessageStream(context.Background(), &MessageSendParams{Message: *NewTextMessage(RoleUser, "go")}, func(event any) error {
		got = append(got, event)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.IsType(t, &TaskStatusUpdateEvent{}, got[0])
	assert.IsType(t, &TaskArtifactUpdateEvent{}, got[1])
	assert.True(t, got[2].(*TaskStatusUpdateEvent).Final)
}

func TestClient_SendMessageStreamPlainError(t *testing.T) {
	srv := rpcServer(t, func(req map[string]any) map[string]any {
		return map[string]any{"error": map[string]any{"code": CodeInvalidParams, "message": "Invalid parameters"}}
	})
	defer srv.Close()

	client, err := NewClient(&AgentCard{URL: srv.URL}, nil)
	require.NoError(t, err)

	err = client.SendMessageStream(context.Background(), &MessageSendParams{Message: *NewTextMessage(RoleUser, "go")}, func(event any) error {
		t.Fatal("no events expected")
		return nil
	})
	var rpcErr *JSONRPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}

func TestProcessSSEStream_MultilineAndComments(t *testing.T) {
	stream := ": keepalive\n" +
		"data: {\"jsonrpc\":\"2.0\",\"id\":1,\n" +
		"data: \"result\":{\"kind\":\"message\",\"messageId\":\"m\",\"role\":\"agent\",\"parts\":[{\"kind\":\"text\",\"text\":\"7\"}]}}\n" +
		"\n"

	var got []any
	err := processSSEStream(strings.NewReader(stream), func(event any) error {
		got = append(got, event)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].(*Message).Text())
}

func TestProcessSSEStream_HandlerError(t *testing.T) {
	stream := "data: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"kind\":\"task\",\"id\":\"t\",\"contextId\":\"c\",\"status\":{\"state\":\"working\"}}}\n\n"
	err := processSSEStream(strings.NewReader(stream), func(event any) error {
		return errors.New("stop")
	})
	assert.ErrorContains(t, err, "stop")
}

func TestUnmarshalEvent_UnknownKind(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"kind":"weather"}`))
	assert.Error(t, err)
}

func TestAgentCardResolver(t *testing.T) {
	card := AgentCard{Name: "Prime Number Agent", ProtocolVersion: ProtocolVersion}

	tests := []struct {
		name  string
		paths []string
	}{
		{"current path", []string{WellKnownAgentCardPath}},
		{"legacy fallback", []string{LegacyWellKnownAgentCardPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			for _, p := range tt.paths {
				mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(card)
				})
			}
			srv := httptest.NewServer(mux)
			defer srv.Close()

			got, err := NewAgentCardResolver(srv.URL, nil).GetWellKnownAgentCard(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "Prime Number Agent", got.Name)
		})
	}
}

func TestAgentCardResolver_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewAgentCardResolver(srv.URL, nil).GetWellKnownAgentCard(context.Background())
	assert.ErrorIs(t, err, errCardNotFound)
}
