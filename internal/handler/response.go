package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/records-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err as a JSON error response with the HTTP status implied by
// its error code.
func Error(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(verrs.Error()))
		return
	}
	c.JSON(statusOf(err), NewErrorResponse(err.Error()))
}

func statusOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrAlreadyRegistered, apperrors.ErrAlreadyConfigured:
		return http.StatusConflict
	case apperrors.ErrBadRequest, apperrors.ErrInvalidEntityType,
		apperrors.ErrInvalidLevel, apperrors.ErrInvalidExpiry:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
