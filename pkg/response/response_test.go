package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agrimech/portal/internal/apperr"
)

func TestError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{apperr.ErrDuplicateEmail, http.StatusBadRequest, "an account with this email already exists"},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{apperr.ErrForbidden, http.StatusForbidden, "insufficient permissions"},
		{apperr.NotFound("webinar"), http.StatusNotFound, "webinar not found"},
		{apperr.ErrFull, http.StatusBadRequest, "webinar is full"},
		{apperr.ErrRateLimited, http.StatusTooManyRequests, "too many requests"},
		{errors.New("duplicate key value violates unique constraint"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		Error(c, zap.NewNop(), tt.err)

		assert.Equal(t, tt.wantStatus, rec.Code)
		var body Body
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tt.wantMsg, body.Error)
	}
}

func TestError_LogsOnlyInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	for _, err := range []error{apperr.ErrNotFound, errors.New("db down")} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		Error(c, logger, err)
	}

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "request failed", logs.All()[0].Message)
}
