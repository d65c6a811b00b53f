package httprequest_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/modelflow/modelflow/pkg/handlers/httprequest"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewHandlerDefaults(t *testing.T) {
	t.Parallel()

	handler, err := httprequest.NewHandler(map[string]any{"url": "http://example.com"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, handler.Method)
	assert.Equal(t, "http://example.com", handler.URL)
}

func TestNewHandlerRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := httprequest.NewHandler(map[string]any{"method": "POST"})
	require.Error(t, err)
	assert.ErrorIs(t, err, httprequest.ErrURLMissing)
}

func TestExecuteJSONResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-value", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "count": 2}`))
	}))
	defer server.Close()

	handler, err := httprequest.NewHandler(map[string]any{
		"url":     server.URL,
		"headers": map[string]any{"X-Test": "test-value"},
	})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, output["status_code"])

	body, ok := output["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", body["status"])
}

func TestExecuteNonJSONResponseKeptAsString(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	handler, err := httprequest.NewHandler(map[string]any{"url": server.URL})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "plain text", output["body"])
}

func TestExecutePostSendsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	handler, err := httprequest.NewHandler(map[string]any{
		"url":    server.URL,
		"method": "post",
		"body":   `{"name": "alpha"}`,
	})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, output["status_code"])
}

func TestExecuteConnectionError(t *testing.T) {
	t.Parallel()

	handler, err := httprequest.NewHandler(map[string]any{"url": "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.Error(t, err)
}
