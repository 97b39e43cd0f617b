package jsonrpc2

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

// maxBodyBytes bounds a single HTTP request body.
const maxBodyBytes = 1 << 20

// ServeHTTP answers JSON-RPC over HTTP POST. Streaming methods switch the
// response to Server-Sent Events on their first event.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, encode(errorResponse(nil, &a2a.InvalidRequestError{Data: "request body too large"})))
			return
		}
		writeJSON(w, http.StatusBadRequest, encode(errorResponse(nil, &a2a.JSONParseError{Data: err.Error()})))
		return
	}

	stream := &sseStream{w: w}
	resp := s.Process(r.Context(), body, stream)
	if stream.opened {
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// sseStream writes each response as a "data:" event.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
}

func (s *sseStream) Open() error {
	flusher, ok := s.w.(http.Flusher)
	if !ok {
		return &a2a.UnsupportedOperationError{Operation: "response writer does not support streaming"}
	}
	s.flusher = flusher

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.opened = true
	s.flusher.Flush()
	return nil
}

func (s *sseStream) Send(resp *a2a.JSONRPCResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
