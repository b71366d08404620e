package chat

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

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llama3-70b-8192",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(b)
}

func startServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", "m")
	assert.Error(t, err)

	_, err = New("k", "")
	assert.Error(t, err)
}

func TestComplete_RequestShape(t *testing.T) {
	var got chatRequest
	var auth, path string

	srv, hits := startServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("  Why did the chicken cross the road?\n")))
	})

	c, err := New("gsk-test", "llama3-70b-8192", WithBaseURL(srv.URL))
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), "You are Neo, a helpful virtual assistant.", "tell me a joke")
	require.NoError(t, err)

	assert.Equal(t, "Why did the chicken cross the road?", reply)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer gsk-test", auth)

	assert.Equal(t, "llama3-70b-8192", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are Neo, a helpful virtual assistant.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "tell me a joke", got.Messages[1].Content)
}

func TestComplete_ServerErrorNotRetried(t *testing.T) {
	srv, hits := startServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	})

	c, err := New("k", "m", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", "hi")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestComplete_EmptyContent(t *testing.T) {
	srv, _ := startServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("   ")))
	})

	c, err := New("k", "m", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_Timeout(t *testing.T) {
	srv, _ := startServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c, err := New("k", "m", WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Complete(context.Background(), "sys", "hi")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
