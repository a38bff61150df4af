package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

const testBaseURL = "http://backend.test:1234"

// bufferedTurn is one non-streaming request-response cycle of a fixture.
type bufferedTurn struct {
	AnthropicRequest  json.RawMessage `json:"anthropicRequest"`
	OpenAIRequest     json.RawMessage `json:"openaiRequest"`
	OpenAIResponse    json.RawMessage `json:"openaiResponse"`
	AnthropicResponse json.RawMessage `json:"anthropicResponse"`
}

// streamingTurn is one streaming request-response cycle of a fixture.
type streamingTurn struct {
	AnthropicRequest json.RawMessage   `json:"anthropicRequest"`
	OpenAIRequest    json.RawMessage   `json:"openaiRequest"`
	OpenAIChunks     []json.RawMessage `json:"openaiChunks"`
	AnthropicEvents  []json.RawMessage `json:"anthropicEvents"`
}

func loadFixture[T any](t *testing.T, kind, name string) []T {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", kind, name))
	require.NoError(t, err)

	var turns []T
	require.NoError(t, json.Unmarshal(data, &turns))
	require.NotEmpty(t, turns)
	return turns
}

// sseBody frames chunks the way Chat Completions servers stream them.
func sseBody(chunks []json.RawMessage) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("data: ")
		b.Write(c)
		b.WriteString("\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// trackingBody reports whether the consumer closed the response body.
type trackingBody struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

func (b *trackingBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *trackingBody) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// mockBackend replays a canned response and records the request it received.
type mockBackend struct {
	status      int
	body        string
	streaming   bool
	err         error
	lastRequest *http.Request
	lastBody    []byte
	respBody    *trackingBody
}

func (m *mockBackend) RoundTrip(req *http.Request) (*http.Response, error) {
	m.lastRequest = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}

	contentType := "application/json"
	if m.streaming {
		contentType = "text/event-stream"
	}

	m.respBody = &trackingBody{Reader: strings.NewReader(m.body)}
	return &http.Response{
		StatusCode: m.status,
		Body:       m.respBody,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Request:    req,
	}, nil
}

func newTestAdapter(t *testing.T) *CreateMessageAdapter {
	t.Helper()

	adapter, err := NewCreateMessageAdapter(testBaseURL, testResolver())
	require.NoError(t, err)
	return adapter
}

func TestNewCreateMessageAdapter(t *testing.T) {
	adapter, err := NewCreateMessageAdapter("http://localhost:1234/", testResolver())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/v1", adapter.BaseURL())
	assert.NotNil(t, adapter.Models())

	_, err = NewCreateMessageAdapter("", testResolver())
	assert.Error(t, err)

	_, err = NewCreateMessageAdapter("http://localhost:1234", nil)
	assert.Error(t, err)
}

func TestCreateMessageAdapter_ProcessRequest_Fixtures(t *testing.T) {
	for _, name := range []string{"simple.json", "system.json", "empty_choices.json"} {
		t.Run(strings.TrimSuffix(name, ".json"), func(t *testing.T) {
			for _, turn := range loadFixture[bufferedTurn](t, "buffered", name) {
				backend := &mockBackend{status: http.StatusOK, body: string(turn.OpenAIResponse)}
				adapter := newTestAdapter(t)

				req := decodeRequest(t, string(turn.AnthropicRequest))
				resp, err := adapter.ProcessRequest(context.Background(), req, backend)
				require.NoError(t, err)

				require.NotNil(t, backend.lastRequest)
				assert.Equal(t, http.MethodPost, backend.lastRequest.Method)
				assert.Equal(t, "http://backend.test:1234/v1/chat/completions", backend.lastRequest.URL.String())
				assert.Empty(t, backend.lastRequest.Header.Get("Authorization"))
				assert.JSONEq(t, string(turn.OpenAIRequest), string(backend.lastBody))

				got, err := json.Marshal(resp)
				require.NoError(t, err)
				assert.JSONEq(t, string(turn.AnthropicResponse), string(got))
			}
		})
	}
}

func TestCreateMessageAdapter_ProcessStreamingRequest_Fixtures(t *testing.T) {
	for _, name := range []string{"simple_stream.json", "system_stream.json"} {
		t.Run(strings.TrimSuffix(name, ".json"), func(t *testing.T) {
			for _, turn := range loadFixture[streamingTurn](t, "streaming", name) {
				backend := &mockBackend{status: http.StatusOK, body: sseBody(turn.OpenAIChunks), streaming: true}
				adapter := newTestAdapter(t)

				req := decodeRequest(t, string(turn.AnthropicRequest))
				events, err := adapter.ProcessStreamingRequest(context.Background(), req, backend)
				require.NoError(t, err)

				assert.JSONEq(t, string(turn.OpenAIRequest), string(backend.lastBody))

				var got []string
				for e := range events {
					b, err := json.Marshal(e)
					require.NoError(t, err)
					got = append(got, string(b))
				}

				require.Len(t, got, len(turn.AnthropicEvents))
				for i, want := range turn.AnthropicEvents {
					assert.JSONEq(t, string(want), got[i], "event %d", i)
				}
				assert.True(t, backend.respBody.isClosed(), "backend stream released")
			}
		})
	}
}

func TestCreateMessageAdapter_ProcessRequest_BackendFailure(t *testing.T) {
	req := decodeRequest(t, `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"hi"}]}`)

	t.Run("unreachable backend", func(t *testing.T) {
		backend := &mockBackend{err: errors.New("dial tcp 127.0.0.1:1234: connect: connection refused")}

		_, err := newTestAdapter(t).ProcessRequest(context.Background(), req, backend)
		require.Error(t, err)

		var backendErr *anthropicadapter.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "http://backend.test:1234/v1", backendErr.BaseURL)
		assert.Contains(t, err.Error(), "Proxy error: ")
		assert.Contains(t, err.Error(), "connection refused")
		assert.Contains(t, err.Error(), "Check that your backend service is running at http://backend.test:1234/v1")
	})

	t.Run("backend error response", func(t *testing.T) {
		backend := &mockBackend{
			status: http.StatusNotFound,
			body:   `{"error":{"message":"model 'google/gemma-3-4b' not found","type":"invalid_request_error"}}`,
		}

		_, err := newTestAdapter(t).ProcessRequest(context.Background(), req, backend)

		var backendErr *anthropicadapter.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "model 'google/gemma-3-4b' not found")
	})

	t.Run("no retries", func(t *testing.T) {
		calls := 0
		backend := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"busy"}}`)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Request:    r,
			}, nil
		})

		_, err := newTestAdapter(t).ProcessRequest(context.Background(), req, backend)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestCreateMessageAdapter_ProcessStreamingRequest_Failures(t *testing.T) {
	req := decodeRequest(t, `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"hi"}],"stream":true}`)

	t.Run("failure before stream start is a backend error", func(t *testing.T) {
		backend := &mockBackend{err: errors.New("connection refused")}

		events, err := newTestAdapter(t).ProcessStreamingRequest(context.Background(), req, backend)
		assert.Nil(t, events)

		var backendErr *anthropicadapter.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("error status before stream start is a backend error", func(t *testing.T) {
		backend := &mockBackend{status: http.StatusInternalServerError, body: `{"error":{"message":"model crashed"}}`}

		_, err := newTestAdapter(t).ProcessStreamingRequest(context.Background(), req, backend)

		var backendErr *anthropicadapter.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, err.Error(), "model crashed")
	})

	t.Run("mid-stream fault yields one error event", func(t *testing.T) {
		body := `data: {"id":"c","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}` + "\n\n" +
			`data: {"id":"c","choices":[{"delta":` + "\n\n" +
			`data: {"id":"c","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}` + "\n\n"
		backend := &mockBackend{status: http.StatusOK, body: body, streaming: true}

		events, err := newTestAdapter(t).ProcessStreamingRequest(context.Background(), req, backend)
		require.NoError(t, err)

		got := collect(events)
		require.Len(t, got, 2)
		assert.Equal(t, anthropicadapter.NewTextDeltaEvent(0, "Hel"), got[0])
		assert.Equal(t, anthropicadapter.StreamEventError, got[1].Type)
		assert.Equal(t, anthropicadapter.ErrorTypeAPI, got[1].Err.Type)
		assert.NotEmpty(t, got[1].Err.Message)
		assert.True(t, backend.respBody.isClosed())
	})

	t.Run("empty stream yields no events", func(t *testing.T) {
		backend := &mockBackend{status: http.StatusOK, body: "data: [DONE]\n\n", streaming: true}

		events, err := newTestAdapter(t).ProcessStreamingRequest(context.Background(), req, backend)
		require.NoError(t, err)
		assert.Empty(t, collect(events))
		assert.True(t, backend.respBody.isClosed())
	})

	t.Run("early exit releases the backend stream", func(t *testing.T) {
		var body bytes.Buffer
		for range 50 {
			body.WriteString(`data: {"id":"c","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"tok"},"finish_reason":null}]}` + "\n\n")
		}
		backend := &mockBackend{status: http.StatusOK, body: body.String(), streaming: true}

		events, err := newTestAdapter(t).ProcessStreamingRequest(context.Background(), req, backend)
		require.NoError(t, err)

		received := 0
		for range events {
			received++
			if received == 2 {
				break
			}
		}

		assert.Equal(t, 2, received)
		assert.True(t, backend.respBody.isClosed())
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
