package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{BaseURL: srv.URL + "/", APIKey: "sk-test"})
}

func TestClient_Generate(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"stressScore\":40}"},"finish_reason":"stop"}]}`)
	})

	msg, err := c.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("be kind"),
		schema.UserMessage("exams"),
	}, model.WithTemperature(0.7))
	require.NoError(t, err)

	assert.Equal(t, `{"stressScore":40}`, msg.Content)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Contains(t, msg.Extra[ExtraRawPayload], `"finish_reason":"stop"`)

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "be kind"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "exams"}, got.Messages[1])
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-6)
}

func TestClient_Generate_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"slow down"}`)
	})

	_, err := c.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, `{"error":"slow down"}`, se.Body)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[],"note":"Too Many Requests, status code: 429"}`)
	})

	_, err := c.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.ErrorIs(t, err, ErrNoChoices)
	assert.NotContains(t, err.Error(), "Too Many Requests")

	code, ok := StatusCode(err)
	assert.False(t, ok)
	assert.Zero(t, code)
}

func TestClient_Stream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	})

	sr, err := c.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer sr.Close()

	chunk, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", chunk.Content)

	_, err = sr.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"status error", &StatusError{Code: 402}, 402, true},
		{"wrapped status error", fmt.Errorf("call: %w", &StatusError{Code: 503}), 503, true},
		{"openai text", errors.New("error, status code: 429, status: 429 Too Many Requests, message: quota"), 429, true},
		{"too many requests", errors.New("Too Many Requests"), 429, true},
		{"network", errors.New("dial tcp: connection refused"), 0, false},
		{"no choices", fmt.Errorf("generate: %w", ErrNoChoices), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := StatusCode(tc.err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestNewChatModel(t *testing.T) {
	ctx := context.Background()

	_, err := NewChatModel(ctx, config.LLMConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	cm, err := NewChatModel(ctx, config.LLMConfig{APIKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, cm)

	_, err = NewChatModel(ctx, config.LLMConfig{APIKey: "sk", Provider: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown llm provider")
}
