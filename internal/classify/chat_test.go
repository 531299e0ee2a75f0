// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-monitor/internal/httputil"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

func init() {
	httputil.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}

func TestNewChatClient_ResolvesModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer EMPTY", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":"qwen-7b"},{"id":"other"}]}`))
	}))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL + "/v1/"}, zerolog.Nop())
	assert.Equal(t, "qwen-7b", c.Model)
	assert.Equal(t, ts.URL+"/v1", c.APIBase)
	assert.Equal(t, DefaultGeneration, c.Gen)
}

func TestNewChatClient_ModelListFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL}, zerolog.Nop())
	assert.Empty(t, c.Model)
}

func TestNewChatClient_ExplicitModelSkipsListing(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL, Model: "m"}, zerolog.Nop())
	assert.Equal(t, "m", c.Model)
	assert.False(t, called)
}

func TestComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		assert.Equal(t, 0.3, req.Temperature)
		assert.Equal(t, 0.9, req.TopP)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL, APIKey: "key", Model: "m"}, zerolog.Nop())
	reply, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, reply)
}

func TestComplete_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL, Model: "m"}, zerolog.Nop())
	_, err := c.Complete(context.Background(), "sys", "usr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad model")
}

func TestComplete_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c := NewChatClient(context.Background(), types.LLMConfig{APIBase: ts.URL, Model: "m"}, zerolog.Nop())
	_, err := c.Complete(context.Background(), "sys", "usr")
	assert.Error(t, err)
}
