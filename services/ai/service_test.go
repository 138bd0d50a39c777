package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/logger"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *config.AIConfig {
	return &config.AIConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "gpt-4o-mini",
		MaxAttempts:    1,
		RequestTimeout: 5,
	}
}

func TestGenerate(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  generated text  "}},
			},
		})
	})

	svc := NewAIService(testConfig(server.URL), logger.NewNop())
	content, err := svc.Generate(context.Background(), "the prompt", 0.2)
	require.NoError(t, err)

	assert.Equal(t, "generated text", content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 0.2, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "the prompt", gotReq.Messages[0].Content)
}

func TestGenerate_HTTPError(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	svc := NewAIService(testConfig(server.URL), logger.NewNop())
	_, err := svc.Generate(context.Background(), "prompt", 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerate_NoChoices(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	svc := NewAIService(testConfig(server.URL), logger.NewNop())
	_, err := svc.Generate(context.Background(), "prompt", 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerate_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	})

	svc := NewAIService(testConfig(server.URL+"/"), logger.NewNop())
	_, err := svc.Generate(context.Background(), "prompt", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "/chat/completions", gotPath)
}
