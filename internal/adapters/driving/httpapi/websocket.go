package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Websocket frame types.
const (
	frameAnswer = "answer"
	frameError  = "error"
	framePing   = "ping"
	framePong   = "pong"
)

const (
	wsReadLimit    = 512 * 1024
	wsWriteTimeout = 10 * time.Second
)

type errorFrame struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleWebsocket answers questions sent as JSON frames. A frame without a
// sessionId continues the session of the previous answer on the connection.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	ctx := c.Request.Context()
	var session string

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Websocket read failed: %v", err)
			}
			return
		}

		var req answerRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !s.writeFrame(conn, errorFrame{Type: frameError, Message: "Invalid JSON frame"}) {
				return
			}
			continue
		}

		if req.Type == framePing {
			if !s.writeFrame(conn, gin.H{"type": framePong}) {
				return
			}
			continue
		}

		if req.SessionID == "" {
			req.SessionID = session
		}

		answer, err := s.ports.Answer.Ask(ctx, req.Question, domain.AskOptions{
			SessionID: req.SessionID,
			Threshold: req.MatchThreshold,
			Count:     req.MatchCount,
		})
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				return
			}
			_, msg := statusFor(err)
			if msg == internalErrorMessage {
				logger.Error("websocket answer: %v", err)
			}
			if !s.writeFrame(conn, errorFrame{Type: frameError, Message: msg}) {
				return
			}
			continue
		}

		session = answer.SessionID
		resp := newAnswerResponse(answer)
		resp.Type = frameAnswer
		if !s.writeFrame(conn, resp) {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)) //nolint:errcheck
	if err := conn.WriteJSON(v); err != nil {
		logger.Warn("Websocket write failed: %v", err)
		return false
	}
	return true
}
