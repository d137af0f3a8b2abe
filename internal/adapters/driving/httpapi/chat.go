package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type createSessionRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	UserID    string `json:"userId"`
}

func (s *Server) handleChatHistory(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		badRequest(c, "Session ID is required")
		return
	}

	// Zero or unparseable limits use the service default.
	limit, _ := strconv.Atoi(c.Query("limit"))

	session, messages, err := s.ports.Chat.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		fail(c, "chat history", err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"session":  session,
		"messages": messages,
		"count":    len(messages),
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(c, "Session ID is required")
		return
	}

	session, err := s.ports.Chat.CreateSession(c.Request.Context(), req.SessionID, req.Title, req.UserID)
	if err != nil {
		fail(c, "create session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session,
		"message": "Session created successfully",
	})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		badRequest(c, "Session ID is required")
		return
	}

	if err := s.ports.Chat.DeleteSession(c.Request.Context(), sessionID); err != nil {
		fail(c, "delete session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Session deleted successfully",
		"sessionId": sessionID,
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.ports.Chat.ListSessions(c.Request.Context())
	if err != nil {
		fail(c, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}
