package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/userlist/internal/infrastructure/httpserver"
)

type stubChecker struct {
	ready      bool
	components []httpserver.ComponentStatus
}

func (s stubChecker) IsReady(context.Context) bool { return s.ready }

func (s stubChecker) GetHealthStatus(context.Context) []httpserver.ComponentStatus {
	return s.components
}

func doGet(t *testing.T, checker httpserver.HealthChecker, path string) (int, httpserver.HealthResponse) {
	t.Helper()

	e := echo.New()
	httpserver.NewHealthEndpoints(checker).Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp httpserver.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealthEndpoints_Health(t *testing.T) {
	code, resp := doGet(t, stubChecker{}, "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, httpserver.StatusHealthy, resp.Status)
}

func TestHealthEndpoints_Ready(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		code, resp := doGet(t, stubChecker{ready: true}, "/ready")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, httpserver.StatusReady, resp.Status)
	})

	t.Run("not ready", func(t *testing.T) {
		code, resp := doGet(t, stubChecker{}, "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, httpserver.StatusNotReady, resp.Status)
	})

	t.Run("nil checker is ready", func(t *testing.T) {
		code, _ := doGet(t, nil, "/ready")

		assert.Equal(t, http.StatusOK, code)
	})
}

func TestHealthEndpoints_Details(t *testing.T) {
	tests := []struct {
		name           string
		components     []httpserver.ComponentStatus
		expectedCode   int
		expectedStatus string
	}{
		{
			name:           "all healthy",
			components:     []httpserver.ComponentStatus{{Name: "userlist", Status: httpserver.StatusHealthy}},
			expectedCode:   http.StatusOK,
			expectedStatus: httpserver.StatusHealthy,
		},
		{
			name: "degraded",
			components: []httpserver.ComponentStatus{
				{Name: "userlist", Status: httpserver.StatusDegraded, Message: "network error"},
				{Name: "websocket", Status: httpserver.StatusHealthy},
			},
			expectedCode:   http.StatusOK,
			expectedStatus: httpserver.StatusDegraded,
		},
		{
			name: "unhealthy wins",
			components: []httpserver.ComponentStatus{
				{Name: "userlist", Status: httpserver.StatusDegraded},
				{Name: "websocket", Status: httpserver.StatusUnhealthy},
			},
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: httpserver.StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := doGet(t, stubChecker{components: tt.components}, "/health/details")

			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Len(t, resp.Components, len(tt.components))
		})
	}
}
