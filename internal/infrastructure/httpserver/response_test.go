package httpserver_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/userlist/internal/domain/errs"
	"github.com/lllypuk/userlist/internal/infrastructure/httpserver"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func TestRespondOK(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, httpserver.RespondOK(c, map[string]int{"count": 2}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, rec.Body.String())
}

func TestRespondAccepted(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, httpserver.RespondAccepted(c, "queued"))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":"queued"}`, rec.Body.String())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", fmt.Errorf("user 9: %w", errs.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", errs.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"invalid state", errs.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()

			require.NoError(t, httpserver.RespondError(c, tt.err))

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedCode, httpserver.StatusCode(tt.err))

			var resp httpserver.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestRespondErrorWithCode(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_ID", "id must be a number"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"INVALID_ID","message":"id must be a number"}}`,
		rec.Body.String())
}
