// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sampleapi/users-service/internal/repository"
	"github.com/sampleapi/users-service/internal/service"
)

const (
	MsgValidation = "The request has validation errors."
	MsgNotFound   = "Resource does not exist!"
	MsgExists     = "Resource already exists."
	MsgConflict   = "The request conflicts with the current state of the resource."
	MsgInternal   = "internal error"
)

// ErrorPayload is the canonical error envelope returned by the API.
// Errors groups messages by request field name.
type ErrorPayload struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// MessagePayload is the body of plain acknowledgements.
type MessagePayload struct {
	Message string `json:"message"`
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{Message: MsgValidation, Errors: groupFields(service.FieldErrors(err))}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		msg := service.NotFoundMessage(err)
		if msg == "" {
			msg = MsgNotFound
		}
		return http.StatusNotFound, ErrorPayload{Message: msg}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Message: MsgExists}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Message: MsgConflict}
	default:
		return http.StatusInternalServerError, ErrorPayload{Message: MsgInternal}
	}
}

func groupFields(fe []service.FieldError) map[string][]string {
	if len(fe) == 0 {
		return nil
	}
	out := make(map[string][]string, len(fe))
	for _, f := range fe {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

// WriteError writes an error response and aborts the context.
// Unmapped errors are attached to the context so the request logger can report them.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, MessagePayload{Message: msg})
}
