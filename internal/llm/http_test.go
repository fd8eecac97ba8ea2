package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Custom"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "world", body["hello"])
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	raw, err := PostJSON(t.Context(), nil, srv.URL, map[string]string{"hello": "world"}, map[string]string{"X-Custom": "v"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestPostJSONStatusError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"plain body", "upstream down", "http 502: upstream down"},
		{"provider message", `{"error":{"message":"model overloaded"}}`, "http 502: model overloaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := PostJSON(t.Context(), srv.Client(), srv.URL, struct{}{}, nil, nil)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusBadGateway, se.Code)
			assert.Equal(t, tt.body, string(se.Body))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestCompleterFunc(t *testing.T) {
	var c Completer = CompleterFunc(func(_ context.Context, prompt string) (Completion, error) {
		return Completion{Content: "echo: " + prompt}, nil
	})
	out, err := c.Complete(t.Context(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out.Content)
}
