package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-meeting-sync/core/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseMapsCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   errors.ErrorCode
	}{
		{errors.NewAppError(errors.ErrNotFound, "meeting not found", nil), http.StatusNotFound, errors.ErrNotFound},
		{errors.NewAppError(errors.ErrPermissionDenied, "read-only calendar", nil), http.StatusForbidden, errors.ErrPermissionDenied},
		{errors.NewAppError(errors.ErrSyncFailed, "provider error", nil), http.StatusBadGateway, errors.ErrSyncFailed},
		{errors.NewAppError(errors.ErrSyncInProgress, "busy", nil), http.StatusConflict, errors.ErrSyncInProgress},
		{fmt.Errorf("wrapped: %w", errors.NewAppError(errors.ErrInvalidInput, "bad", nil)), http.StatusBadRequest, errors.ErrInvalidInput},
		{fmt.Errorf("plain"), http.StatusInternalServerError, errors.ErrInternalServer},
	}

	h := NewBaseController()
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, h.ErrorResponse(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "error", body.Status)
		})
	}
}
