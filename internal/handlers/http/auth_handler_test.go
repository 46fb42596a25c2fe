package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatlink/internal/core/services"
	"chatlink/internal/infrastructure/middleware"
	"chatlink/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger.NewContextLogger(zap.NewNop())))

	authService := services.NewAuthService("test-secret", time.Minute, time.Hour)
	handler := NewAuthHandler(authService, services.NewInMemoryUserStore(), time.Minute)
	handler.SetupRoutes(router)

	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_RegisterThenLogin(t *testing.T) {
	router := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered struct {
		UserID      string `json:"user_id"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.UserID)
	assert.NotEmpty(t, registered.AccessToken)

	w = postJSON(t, router, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var loggedIn struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))
	assert.Equal(t, registered.UserID, loggedIn.UserID)
}

func TestAuthHandler_LoginRejectsWrongPassword(t *testing.T) {
	router := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "wrongpass1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginRejectsUnknownUser(t *testing.T) {
	router := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/login", gin.H{
		"username": "nobody",
		"password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RegisterRejectsDuplicateUsername(t *testing.T) {
	router := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "different1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
