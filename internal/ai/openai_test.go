package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- Job Location: Remote\n"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "secret", "llama-3")
	out, err := c.Complete(context.Background(), "Where?", 350)
	require.NoError(t, err)

	assert.Equal(t, "- Job Location: Remote", out)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "llama-3", got.Model)
	assert.Equal(t, 350, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Where?", got.Messages[1].Content)
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusInternalServerError, `oops`},
		{"api error", http.StatusOK, `{"error":{"message":"model not loaded"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAIClient(srv.URL, "", "m").Complete(context.Background(), "p", 10)
			assert.Error(t, err)
		})
	}
}

func TestOpenAIClient_NoKeyNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := NewOpenAIClient(srv.URL, "", "m").Complete(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"```\n- A: b\n```", "- A: b"},
		{"```text\n- A: b\n```", "- A: b"},
		{"  ```markdown\n- A: b```  ", "- A: b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanMarkdown(tt.in))
	}
}
