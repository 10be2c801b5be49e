package errors

import "net/http"

// Error codes sent in the "code" field of an error response.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeMissingField     = "missing_field"
	CodeInvalidPhase     = "invalid_phase"
	CodeInvalidStatus    = "invalid_status"
	CodeInvalidRemaining = "invalid_remaining"
	CodeInvalidCycles    = "invalid_cycles"
	CodeInvalidTitle     = "invalid_title"
	CodeTodoNotFound     = "todo_not_found"
	CodeSessionNotFound  = "session_not_found"
	CodeInternal         = "internal_error"
)

// APIError is returned by services and rendered by handlers as
// {"error": {...}}. Status is the HTTP status and is not serialized.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func InvalidJSON() *APIError {
	return BadRequest(CodeInvalidJSON, "invalid request body")
}

// MissingField reports required request fields that were absent or blank.
func MissingField(fields ...string) *APIError {
	err := BadRequest(CodeMissingField, "required field missing")
	err.Details = map[string]interface{}{"fields": fields}
	return err
}

func InvalidPhase() *APIError {
	return BadRequest(CodeInvalidPhase, "phase must be one of work, shortBreak, longBreak")
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func TodoNotFound() *APIError {
	return NotFound(CodeTodoNotFound, "todo not found")
}

func SessionNotFound() *APIError {
	return NotFound(CodeSessionNotFound, "session not found")
}
