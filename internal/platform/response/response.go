package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// envelope is the uniform JSON body for all API responses.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 response carrying a page of items and its metadata.
func Paginated[T any](c *gin.Context, items []T, total int64, page, limit int) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    domain.NewPaginatedResult(items, total, page, limit),
	})
}

// BadRequest writes a 400 validation response with message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   &errorBody{Kind: string(domain.KindValidation), Message: message},
	})
}

// Error maps a typed application error to its HTTP status. Internal faults
// are reported opaquely; callers log the cause with full context.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, envelope{
			Success: false,
			Error:   &errorBody{Kind: string(domain.KindInternal), Message: "internal server error"},
		})
		return
	}

	status := statusFor(appErr.Kind)
	message := appErr.Message
	if appErr.Kind == domain.KindInternal {
		message = "internal server error"
	}
	c.JSON(status, envelope{
		Success: false,
		Error:   &errorBody{Kind: string(appErr.Kind), Message: message, Fields: appErr.Fields},
	})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
