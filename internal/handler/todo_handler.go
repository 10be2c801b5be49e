package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomotodo/internal/service"
)

type TodoHandler struct {
	todoService *service.TodoService
}

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func NewTodoHandler(todoService *service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func (h *TodoHandler) List(c *gin.Context) {
	todos, apiErr := h.todoService.List(c.Request.Context())
	respond(c, http.StatusOK, todos, apiErr)
}

func (h *TodoHandler) Create(c *gin.Context) {
	var req createTodoRequest
	if !bindJSON(c, &req) {
		return
	}

	todo, apiErr := h.todoService.Create(c.Request.Context(), req.Title, req.Description)
	respond(c, http.StatusCreated, todo, apiErr)
}

func (h *TodoHandler) Update(c *gin.Context) {
	var req updateTodoRequest
	if !bindJSON(c, &req) {
		return
	}

	todo, apiErr := h.todoService.Update(c.Request.Context(), c.Param("id"), service.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	respond(c, http.StatusOK, todo, apiErr)
}

func (h *TodoHandler) Delete(c *gin.Context) {
	apiErr := h.todoService.Delete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusNoContent, nil, apiErr)
}

func (h *TodoHandler) IncrementPomodoro(c *gin.Context) {
	todo, apiErr := h.todoService.IncrementPomodoro(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, todo, apiErr)
}
