package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDatabase is a DatabaseChecker with fixed answers.
type stubDatabase struct {
	pingErr   error
	version   int64
	schemaErr error
}

func (s *stubDatabase) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s *stubDatabase) SchemaVersion(ctx context.Context) (int64, error) {
	return s.version, s.schemaErr
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil, "test")
	router := setupTestRouter()
	router.GET("/health", handler.Health)

	w := get(router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{
			name:           "database connected",
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Database: "connected"},
		},
		{
			name:           "database unreachable",
			pingErr:        errors.New("dial tcp: connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Database: "disconnected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(&stubDatabase{pingErr: tt.pingErr}, "test")
			router := setupTestRouter()
			router.GET("/health/ready", handler.Ready)

			w := get(router, "/health/ready")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	t.Run("includes schema version", func(t *testing.T) {
		handler := NewHealthHandler(&stubDatabase{version: 1}, "production")
		handler.startTime = time.Now().Add(-26 * time.Hour)
		router := setupTestRouter()
		router.GET("/api/v1/info", handler.Info)

		w := get(router, "/api/v1/info")

		assert.Equal(t, http.StatusOK, w.Code)
		var response InfoResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, APIVersion, response.Version)
		assert.Equal(t, "production", response.Environment)
		assert.Contains(t, response.Uptime, "1d 2h")
		require.NotNil(t, response.SchemaVersion)
		assert.Equal(t, int64(1), *response.SchemaVersion)
	})

	t.Run("omits schema version when it cannot be read", func(t *testing.T) {
		handler := NewHealthHandler(&stubDatabase{schemaErr: errors.New("no goose table")}, "test")
		router := setupTestRouter()
		router.GET("/api/v1/info", handler.Info)

		w := get(router, "/api/v1/info")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "schema_version")
	})
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "seconds only", duration: 45 * time.Second, expected: "0h 0m 45s"},
		{name: "hours, minutes and seconds", duration: 2*time.Hour + 15*time.Minute + 45*time.Second, expected: "2h 15m 45s"},
		{name: "days", duration: 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, expected: "3d 5h 30m 15s"},
		{name: "exactly one day", duration: 24 * time.Hour, expected: "1d 0h 0m 0s"},
		{name: "zero", duration: 0, expected: "0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}

func BenchmarkHealthHandler_Health(b *testing.B) {
	handler := NewHealthHandler(nil, "test")
	router := setupTestRouter()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
