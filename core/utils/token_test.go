package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-meeting-sync/core/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev, _ := config.GetSafe()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: secret}})
	t.Cleanup(func() { config.Set(prev) })
}

func TestGenerateAndValidateToken(t *testing.T) {
	withSecret(t, "test-secret")
	userID := uuid.New()

	token, err := GenerateToken(userID, "ana@example.com", "access", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAndParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "access", claims.Scope)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	withSecret(t, "test-secret")

	expired, err := GenerateToken(uuid.New(), "", "access", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateAndParseToken(expired)
	assert.Error(t, err)

	withSecret(t, "other-secret")
	foreign, err := GenerateToken(uuid.New(), "", "access", time.Hour)
	require.NoError(t, err)

	withSecret(t, "test-secret")
	_, err = ValidateAndParseToken(foreign)
	assert.Error(t, err)
}

func TestGetTokenFromHeader(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc.def")
	token, err := GetTokenFromHeader(e.NewContext(req, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	_, err = GetTokenFromHeader(e.NewContext(req, httptest.NewRecorder()))
	assert.Error(t, err)
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.Len(t, a, 21)
	assert.NotEqual(t, a, b)
}
