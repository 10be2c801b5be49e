package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomotodo/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

type openSessionRequest struct {
	TodoID string `json:"todoId"`
	Phase  string `json:"phase"`
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, apiErr := h.sessionService.List(c.Request.Context(), c.Query("todoId"))
	respond(c, http.StatusOK, sessions, apiErr)
}

func (h *SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, apiErr := h.sessionService.Open(c.Request.Context(), req.TodoID, req.Phase)
	respond(c, http.StatusCreated, session, apiErr)
}

func (h *SessionHandler) Complete(c *gin.Context) {
	session, apiErr := h.sessionService.Complete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, session, apiErr)
}
