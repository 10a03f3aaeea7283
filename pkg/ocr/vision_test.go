package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

func newVisionServer(t *testing.T, handler http.HandlerFunc) *VisionRecognizer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v, err := NewVisionRecognizer(VisionConfig{
		BaseURL: server.URL + "/v1",
		APIKey:  "test-key",
		Model:   "gemini-flash-latest",
	})
	require.NoError(t, err)
	return v
}

func TestVisionRecognize(t *testing.T) {
	var body map[string]any
	v := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  <div>hi</div>\n"},"finish_reason":"stop"}]}`))
	})

	text, err := v.Recognize(context.Background(), PageImage{Page: 1, JPEG: []byte("img"), Prompt: "describe"})
	require.NoError(t, err)
	assert.Equal(t, "<div>hi</div>", text)

	assert.Equal(t, "gemini-flash-latest", body["model"])
	raw, err := json.Marshal(body["messages"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"text":"describe"`)
	assert.Contains(t, string(raw), "data:image/jpeg;base64,aW1n")
}

func TestVisionRecognizeErrorClasses(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   retry.Class
	}{
		{http.StatusTooManyRequests, `{"error":{"message":"Resource exhausted","type":"rate_limit"}}`, retry.RateLimited},
		{http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`, retry.Transient},
		{http.StatusBadRequest, `{"error":{"message":"invalid image"}}`, retry.Fatal},
		{http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, retry.Fatal},
		{http.StatusBadGateway, `<html>gateway</html>`, retry.Transient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			v := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := v.Recognize(context.Background(), PageImage{Page: 4, JPEG: []byte("x")})
			require.Error(t, err)
			assert.Equal(t, tt.want, retry.ClassOf(err))
			assert.True(t, strings.HasPrefix(err.Error(), "page 4: "))
		})
	}
}

func TestVisionRecognizeNoChoices(t *testing.T) {
	v := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[]}`))
	})

	_, err := v.Recognize(context.Background(), PageImage{Page: 1})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, retry.Transient, retry.ClassOf(err))
}

func TestVisionListModels(t *testing.T) {
	v := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"models/gemini-2.0-flash"},{"id":"models/gemini-1.5-pro"}]}`))
	})

	models, err := v.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"models/gemini-1.5-pro", "models/gemini-2.0-flash"}, models)
}

func TestNewVisionRecognizerValidates(t *testing.T) {
	_, err := NewVisionRecognizer(VisionConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewVisionRecognizer(VisionConfig{APIKey: "k"})
	assert.Error(t, err)
}
