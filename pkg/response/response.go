// Package response renders every API reply in one envelope:
// {"code": 0 | http-ish code, "message": "...", "data": ...}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is an error that already knows how it is shown to the client.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError   { return newAppError(http.StatusBadRequest, msg) }
func NewUnauthorized(msg string) *AppError { return newAppError(http.StatusUnauthorized, msg) }
func NewForbidden(msg string) *AppError    { return newAppError(http.StatusForbidden, msg) }
func NewNotFound(msg string) *AppError     { return newAppError(http.StatusNotFound, msg) }
func NewConflict(msg string) *AppError     { return newAppError(http.StatusConflict, msg) }
func NewTooLarge(msg string) *AppError     { return newAppError(http.StatusRequestEntityTooLarge, msg) }
func NewServerError(msg string) *AppError  { return newAppError(http.StatusInternalServerError, msg) }

// NewPreconditionRequired is returned when a destructive request lacks an
// explicit confirmation.
func NewPreconditionRequired(msg string) *AppError {
	return newAppError(http.StatusPreconditionRequired, msg)
}

// WithData attaches a payload shown alongside the error message.
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Error renders err. Errors that are not an *AppError are answered with a
// bare 500 so internal details never reach the client; callers log them.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewServerError(http.StatusText(http.StatusInternalServerError))
	}
	c.JSON(appErr.HTTPStatus, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    appErr.Data,
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewBadRequest(msg))
}

// Unauthorized responds 401; data may carry hints such as the login URL.
func Unauthorized(c *gin.Context, msg string, data interface{}) {
	Error(c, NewUnauthorized(msg).WithData(data))
}
