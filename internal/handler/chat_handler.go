package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/memory"
	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/retriever"
	"github.com/xxxsen/docchat/internal/service"
)

const defaultSessionID = "default"

type ChatHandler struct {
	chat      *service.ChatService
	retriever *retriever.Retriever
	sessions  *memory.Store
}

func NewChatHandler(chat *service.ChatService, ret *retriever.Retriever, sessions *memory.Store) *ChatHandler {
	return &ChatHandler{chat: chat, retriever: ret, sessions: sessions}
}

type chatRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
	SessionID  string `json:"session_id"`
}

// A chat stream is one "sources" event, zero or more "token" events and a
// final "done" event. The sources list is always present, even when empty.
type sourcesEvent struct {
	Type    string         `json:"type"`
	Sources []model.Source `json:"sources"`
}

type tokenEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type doneEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	if req.Question == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "question is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	ctx := c.Request.Context()
	history := h.sessions.Get(req.SessionID)
	chunks := h.retriever.Retrieve(ctx, req.Question, req.DocumentID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	if err := writeEvent(c, sourcesEvent{Type: "sources", Sources: service.BuildSources(chunks)}); err != nil {
		return
	}

	answer, err := h.chat.Answer(ctx, req.Question, history, chunks, func(token string) error {
		return writeEvent(c, tokenEvent{Type: "token", Content: token})
	})
	if err != nil {
		// The client hung up or the write pipe broke mid stream. Nothing is
		// recorded in the session: the user never saw a complete answer.
		if !errors.Is(err, context.Canceled) {
			logutil.GetLogger(ctx).Error("chat stream aborted",
				zap.String("session_id", req.SessionID), zap.Error(err))
		}
		return
	}

	h.sessions.Append(req.SessionID, model.RoleUser, req.Question)
	h.sessions.Append(req.SessionID, model.RoleAssistant, answer)

	_ = writeEvent(c, doneEvent{Type: "done", SessionID: req.SessionID})
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) ClearSession(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}
	h.sessions.Clear(req.SessionID)
	response.Success(c, gin.H{"cleared": true, "session_id": req.SessionID})
}

func writeEvent(c *gin.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("data: "); err != nil {
		return err
	}
	if _, err := c.Writer.Write(payload); err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
