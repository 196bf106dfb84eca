package handler

import (
	"errors"
	"net/http"

	"github.com/atlasworks/projectfeed/internal/service"
	"github.com/labstack/echo/v4"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// respondError maps the service sentinels onto the JSON error envelope.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrIdentityUnavailable):
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "no acting identity"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "not found"))
	case errors.Is(err, service.ErrEmptyMessage):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("empty_message", "message needs a body or an attachment"))
	case errors.Is(err, service.ErrNotEditable):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("not_editable", "entry can no longer be changed"))
	case errors.Is(err, service.ErrUnsupportedAttachment):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("unsupported_attachment", "attachment type is not supported"))
	case errors.Is(err, service.ErrInvalidMessageReference):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("invalid_reference", "referenced message is not in this conversation"))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
	}
}
