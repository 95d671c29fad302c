package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbored/weft/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint mimics the chat completions wire format closely enough for
// the client to parse.
func fakeEndpoint(t *testing.T, reply string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"},
			},
		})
	}))
}

func TestClient_ChatRoundTrip(t *testing.T) {
	var captured map[string]any
	srv := fakeEndpoint(t, "AAPL looks stable.", &captured)
	defer srv.Close()

	client := llm.New(llm.Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Model:   "llama3.1",
	}, nil)

	reply, err := client.Chat(context.Background(), "You are a financial analyst.", "Assess AAPL.")
	require.NoError(t, err)
	assert.Equal(t, "AAPL looks stable.", reply)

	assert.Equal(t, "llama3.1", captured["model"])
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := llm.New(llm.Config{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m"}, nil)
	_, err := client.Chat(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "no choices")
}
