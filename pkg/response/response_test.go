package response_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sampleapi/users-service/internal/repository"
	"github.com/sampleapi/users-service/internal/service"
	"github.com/sampleapi/users-service/pkg/response"
)

func TestMapError(t *testing.T) {
	invalid := service.NewInvalidInput([]service.FieldError{
		{Field: "Password", Message: "too short"},
		{Field: "Password", Message: "needs digit"},
		{Field: "Email", Message: "taken"},
	})
	cases := []struct {
		name     string
		in       error
		wantCode int
		wantMsg  string
	}{
		{"invalid_input", invalid, http.StatusBadRequest, response.MsgValidation},
		{"wrapped_invalid_input", fmt.Errorf("create: %w", invalid), http.StatusBadRequest, response.MsgValidation},
		{"user_not_found", service.ErrUserNotFound, http.StatusNotFound, "User does not exist!"},
		{"bare_not_found", repository.ErrNotFound, http.StatusNotFound, response.MsgNotFound},
		{"already_exists", repository.ErrAlreadyExists, http.StatusConflict, response.MsgExists},
		{"constraint_conflict", &repository.ConstraintError{Err: repository.ErrConflict, Constraint: "fk"}, http.StatusConflict, response.MsgConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError, response.MsgInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantMsg, payload.Message)
			if code == http.StatusBadRequest {
				assert.Equal(t, map[string][]string{
					"Password": {"too short", "needs digit"},
					"Email":    {"taken"},
				}, payload.Errors)
			} else {
				assert.Nil(t, payload.Errors)
			}
		})
	}
}

func TestWriteError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	response.WriteError(c, service.ErrUserNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"User does not exist!"}`, w.Body.String())
	assert.True(t, c.IsAborted())
}

func TestWriteError_InternalIsRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	response.WriteError(c, errors.New("db exploded"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}
