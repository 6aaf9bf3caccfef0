package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// Envelope represents the common response contract shared by every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSON sends a success response carrying data.
func JSON(c *gin.Context, status int, data interface{}) {
	write(c, status, Envelope{Success: true, Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Message sends a success response with a human readable message and
// optional data.
func Message(c *gin.Context, status int, message string, data interface{}) {
	write(c, status, Envelope{Success: true, Message: message, Data: data})
}

// Error sends an error response converting the error to the common structure.
// Internal failures never expose the wrapped cause; it is attached to the gin
// context so the request logger can record it.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	write(c, appErr.Status, Envelope{Success: false, Error: appErr.Message})
}

func write(c *gin.Context, status int, envelope Envelope) {
	if c.Writer.Written() {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, envelope)
}
