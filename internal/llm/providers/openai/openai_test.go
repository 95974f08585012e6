// internal/llm/providers/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/CreatorPulseMCP/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeRequiresAPIKey(t *testing.T) {
	p := &Provider{}
	assert.Error(t, p.Initialize(map[string]string{}))
	assert.Error(t, p.Initialize(map[string]string{"api_key": ""}))
	assert.NoError(t, p.Initialize(map[string]string{"api_key": "sk-test"}))
}

func TestCompleteText(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "1. caption one"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`))
	}))
	defer server.Close()

	p := &Provider{}
	require.NoError(t, p.Initialize(map[string]string{
		"api_key":  "sk-test",
		"base_url": server.URL,
	}))

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{
		Prompt:       "write captions",
		SystemPrompt: "you are a strategist",
		MaxTokens:    300,
		Temperature:  0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, "1. caption one", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 30, resp.TokensUsed)
	assert.Equal(t, "gpt-4o-mini", resp.ModelName)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, float64(300), gotBody["max_tokens"])

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "you are a strategist", system["content"])
}

func TestCompleteTextUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	p := &Provider{}
	require.NoError(t, p.Initialize(map[string]string{
		"api_key":  "sk-bad",
		"base_url": server.URL,
	}))

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRegisteredInRegistry(t *testing.T) {
	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "OpenAI", provider.GetName())
}
