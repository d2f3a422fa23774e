package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthOK(t *testing.T) {
	srv := New("bot", map[string]Checker{
		"redis": func() error { return nil },
	})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		OK      bool              `json:"ok"`
		Service string            `json:"service"`
		Deps    map[string]string `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.OK)
	require.Equal(t, "bot", body.Service)
	require.Equal(t, "ok", body.Deps["redis"])
}

func TestHealthFailingDep(t *testing.T) {
	srv := New("worker", map[string]Checker{
		"mongo": func() error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "connection refused")
}
