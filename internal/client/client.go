package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pomotodo/internal/model"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the pomotodo REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient uses httpClient as is, e.g. an httptest server client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// StatusError is a non-2xx reply. Code and Message come from the API error
// envelope when the body carries one.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// TimerView is the stored timer as served by GET /api/timer.
type TimerView struct {
	Phase            string     `json:"phase"`
	Status           string     `json:"status"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt"`
	CompletedCycles  int        `json:"completedCycles"`
	ActiveTodoID     *string    `json:"activeTodoId"`
	ActiveSessionID  *string    `json:"activeSessionId"`
	Expired          bool       `json:"expired"`
}

// TimerSnapshot is the body of PUT /api/timer.
type TimerSnapshot struct {
	Phase            string  `json:"phase"`
	Status           string  `json:"status"`
	RemainingSeconds int     `json:"remainingSeconds"`
	CompletedCycles  int     `json:"completedCycles"`
	ActiveTodoID     *string `json:"activeTodoId"`
	ActiveSessionID  *string `json:"activeSessionId"`
}

// TodoPatch updates only the non-nil fields.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) GetTimer(ctx context.Context) (*TimerView, error) {
	var view TimerView
	if err := c.do(ctx, http.MethodGet, "/api/timer", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) PutTimer(ctx context.Context, snapshot TimerSnapshot) (*TimerView, error) {
	var view TimerView
	if err := c.do(ctx, http.MethodPut, "/api/timer", snapshot, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) OpenSession(ctx context.Context, todoID, phase string) (*model.PomodoroSession, error) {
	body := map[string]string{"todoId": todoID, "phase": phase}
	var session model.PomodoroSession
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*model.PomodoroSession, error) {
	var session model.PomodoroSession
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/complete"
	if err := c.do(ctx, http.MethodPatch, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns sessions newest first, optionally for one todo.
func (c *Client) ListSessions(ctx context.Context, todoID string) ([]model.PomodoroSession, error) {
	path := "/api/sessions"
	if todoID != "" {
		path += "?" + url.Values{"todoId": {todoID}}.Encode()
	}
	var sessions []model.PomodoroSession
	if err := c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) CreateTodo(ctx context.Context, title string, description *string) (*model.Todo, error) {
	body := struct {
		Title       string  `json:"title"`
		Description *string `json:"description,omitempty"`
	}{Title: title, Description: description}

	var todo model.Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos", body, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id), patch, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) IncrementPomodoro(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	path := "/api/todos/" + url.PathEscape(id) + "/pomodoro"
	if err := c.do(ctx, http.MethodPost, path, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var envelope errorEnvelope
		if json.Unmarshal(body, &envelope) == nil {
			statusErr.Code = envelope.Error.Code
			statusErr.Message = envelope.Error.Message
		}
		return statusErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
