package benchmark

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	}
}

func TestOpenRouterClientSendMessage(t *testing.T) {
	var gotPath, gotAuth, gotReferer, gotTitle string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "```json\n{\"path\": \"E1|D1\", \"analysis\": \"up\"}\n```"},
			}},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	}))
	defer server.Close()

	client := NewOpenRouterClient(ClientOptions{
		APIKey:   "sk-test",
		BaseURL:  server.URL,
		SiteURL:  "https://example.com",
		SiteName: "Pyramid",
	})

	resp, err := client.SendMessage(context.Background(), "vendor/model", "climb", 0.2, 100)
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "https://example.com", gotReferer)
	assert.Equal(t, "Pyramid", gotTitle)
	assert.Equal(t, "vendor/model", gotBody["model"])
	assert.EqualValues(t, 100, gotBody["max_tokens"])

	assert.Equal(t, map[string]any{"path": "E1|D1", "analysis": "up"}, resp.JSON)
	assert.Contains(t, resp.Raw, "```json")
	assert.Equal(t, TokenUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}, resp.Usage)
}

func TestOpenRouterClientRetries(t *testing.T) {
	var calls atomic.Int32
	ok := completionHandler(t, "not json")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":{"message":"upstream unavailable"}}`))
			return
		}
		ok(w, r)
	}))
	defer server.Close()

	client := NewOpenRouterClient(ClientOptions{APIKey: "k", BaseURL: server.URL})
	client.retryDelay = time.Millisecond

	resp, err := client.SendMessage(context.Background(), "m", "p", 0.7, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Nil(t, resp.JSON)
	assert.Equal(t, "not json", resp.Raw)
}

func TestOpenRouterClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenRouterClient(ClientOptions{APIKey: "k", BaseURL: server.URL})
	client.retryDelay = time.Millisecond

	_, err := client.SendMessage(context.Background(), "m", "p", 0.7, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenRouterClientCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenRouterClient(ClientOptions{APIKey: "k", BaseURL: server.URL})
	client.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SendMessage(ctx, "m", "p", 0.7, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
