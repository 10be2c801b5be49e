package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomotodo/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type putTimerRequest struct {
	Phase            *string `json:"phase"`
	Status           *string `json:"status"`
	RemainingSeconds *int    `json:"remainingSeconds"`
	CompletedCycles  *int    `json:"completedCycles"`
	ActiveTodoID     *string `json:"activeTodoId"`
	ActiveSessionID  *string `json:"activeSessionId"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) Get(c *gin.Context) {
	view, apiErr := h.timerService.Get(c.Request.Context())
	respond(c, http.StatusOK, view, apiErr)
}

func (h *TimerHandler) Put(c *gin.Context) {
	var req putTimerRequest
	if !bindJSON(c, &req) {
		return
	}

	state, apiErr := h.timerService.Put(c.Request.Context(), service.PutTimerInput{
		Phase:            req.Phase,
		Status:           req.Status,
		RemainingSeconds: req.RemainingSeconds,
		CompletedCycles:  req.CompletedCycles,
		ActiveTodoID:     req.ActiveTodoID,
		ActiveSessionID:  req.ActiveSessionID,
	})
	respond(c, http.StatusOK, state, apiErr)
}
