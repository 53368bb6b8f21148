package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"data_"},{"text":"filtering"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-api-key", "gemini-1.5-flash", WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "system instruction", "user prompt")
	require.NoError(t, err)
	require.Equal(t, "data_filtering", out, "candidate parts are concatenated")

	require.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	require.Equal(t, "test-api-key", gotKey)
	require.NotNil(t, gotBody.SystemInstruction)
	require.Equal(t, "system instruction", gotBody.SystemInstruction.Parts[0].Text)
	require.Len(t, gotBody.Contents, 1)
	require.Equal(t, "user", gotBody.Contents[0].Role)
	require.Equal(t, "user prompt", gotBody.Contents[0].Parts[0].Text)
	require.NotNil(t, gotBody.GenerationConfig)
	require.InDelta(t, 0.1, *gotBody.GenerationConfig.Temperature, 1e-9)
}

func TestClientGenerateUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient("test-api-key", "gemini-1.5-flash", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "user prompt")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "quota exceeded")
}

func TestClientGenerateNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-api-key", "gemini-1.5-flash", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "user prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no candidates")
}

func TestClientRequiresModel(t *testing.T) {
	_, err := NewClient("key", "  ")
	require.Error(t, err)
}

func TestClientGenerateWithoutAPIKey(t *testing.T) {
	c, err := NewClient("", "gemini-1.5-flash")
	require.NoError(t, err, "the service boots without a key; calls fail instead")

	_, err = c.Generate(context.Background(), "", "user prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API key not configured")
}
