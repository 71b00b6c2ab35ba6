package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	SystemErrorMessage   = "internal server error"
	RedisErrorMessage    = "storage operation failed"
	RedisNotFoundMessage = "key not found"
)

// AppError wraps an underlying error with an HTTP status and a message that
// is safe to show to clients.
type AppError struct {
	Err     error
	Status  int
	Message string
	// Fields holds per-field validation messages, if any.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

func InvalidArgument(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

func InvalidArgumentf(format string, args ...any) *AppError {
	return InvalidArgument(fmt.Sprintf(format, args...))
}

// Validation reports a set of field errors under one message.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{Status: http.StatusUnprocessableEntity, Message: message, Fields: fields}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func Unauthorized(err error, message string) *AppError {
	return &AppError{Err: err, Status: http.StatusUnauthorized, Message: message}
}

// WrapRedis maps Redis failures onto AppError. redis.Nil becomes a 404.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return SystemErrorMessage
}
