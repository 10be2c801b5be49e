package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "pomotodo/internal/errors"
)

type errorResponse struct {
	Error *apperrors.APIError `json:"error"`
}

// respond writes body with status, or the error envelope when apiErr is set.
func respond(c *gin.Context, status int, body interface{}, apiErr *apperrors.APIError) {
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil || apiErr.Status == 0 {
		apiErr = apperrors.Internal("")
	}
	c.JSON(apiErr.Status, errorResponse{Error: apiErr})
}

// bindJSON decodes the request body into dst and answers 400 invalid_json
// when it cannot.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperrors.InvalidJSON())
		return false
	}
	return true
}
