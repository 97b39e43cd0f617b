package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

// handleWebSocket answers JSON-RPC payloads sent as text frames. Each
// response, and each event of a streaming method, is one frame.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade WebSocket connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream := &wsStream{conn: conn}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "text frames only"))
			return
		}

		if resp := s.rpc.Process(ctx, data, stream); resp != nil {
			if err := stream.write(resp); err != nil {
				s.logger.Warn("Failed to write WebSocket message", "error", err)
				return
			}
		}
	}
}

// wsStream sends streamed responses as individual frames.
type wsStream struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsStream) Open() error {
	return nil
}

func (w *wsStream) Send(resp *a2a.JSONRPCResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return w.write(data)
}

func (w *wsStream) write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}
