// Package response writes the service's JSON envelopes.
package response

import (
	"errors"
	"net/http"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a bare 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400.
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Error maps a domain error to its HTTP status.
func Error(c *gin.Context, err error) {
	var transition *routemapDomain.InvalidTransitionError
	switch {
	case errors.Is(err, routemapDomain.ErrNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &transition):
		fail(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
