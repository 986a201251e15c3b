package clarifai_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/classifier/clarifai"
	"github.com/levelup/levelup/internal/provider/resilience"
)

func fastClient() *resilience.Client {
	cfg := resilience.DefaultClientConfig("test")
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	cfg.MaxRetries = 1
	return resilience.NewClient(cfg)
}

func TestClient_Classify(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/models/food-item-recognition/outputs", r.URL.Path)
		assert.Equal(t, "Key pat-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Inputs []struct {
				Data struct {
					Image struct {
						Base64 string `json:"base64"`
					} `json:"image"`
				} `json:"data"`
			} `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Inputs, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), body.Inputs[0].Data.Image.Base64)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": {"code": 10000, "description": "Ok"},
			"outputs": [{
				"data": {
					"concepts": [
						{"id": "ai_1", "name": "pizza", "value": 0.974},
						{"id": "ai_2", "name": "cheese", "value": 0.81}
					]
				}
			}]
		}`))
	}))
	defer server.Close()

	client := clarifai.NewClient(clarifai.ClientConfig{
		PAT:        "pat-123",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	predictions, err := client.Classify(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, predictions, 2)
	assert.Equal(t, "pizza", predictions[0].Name)
	assert.InDelta(t, 0.974, predictions[0].Confidence, 1e-9)
	assert.Equal(t, "cheese", predictions[1].Name)
}

func TestClient_Classify_NoOutputs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"outputs": []}`))
	}))
	defer server.Close()

	client := clarifai.NewClient(clarifai.ClientConfig{PAT: "x", BaseURL: server.URL, HTTPClient: fastClient()})

	predictions, err := client.Classify(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Empty(t, predictions)
}

func TestClient_Classify_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"bad request", http.StatusBadRequest},
		{"server error after retries", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"status":{"description":"nope"}}`))
			}))
			defer server.Close()

			client := clarifai.NewClient(clarifai.ClientConfig{PAT: "x", BaseURL: server.URL, HTTPClient: fastClient()})

			_, err := client.Classify(context.Background(), []byte("img"))
			require.Error(t, err)

			var apiErr *clarifai.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Details, "nope")
		})
	}
}

func TestClient_Classify_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := clarifai.NewClient(clarifai.ClientConfig{PAT: "x", BaseURL: server.URL, HTTPClient: fastClient()})

	_, err := client.Classify(context.Background(), []byte("img"))
	assert.Error(t, err)
}

func TestClient_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/models/food-item-recognition", r.URL.Path)
		if r.Header.Get("Authorization") != "Key good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"model":{"id":"food-item-recognition"}}`))
	}))
	defer server.Close()

	good := clarifai.NewClient(clarifai.ClientConfig{PAT: "good", BaseURL: server.URL, HTTPClient: fastClient()})
	assert.NoError(t, good.Check(context.Background()))

	bad := clarifai.NewClient(clarifai.ClientConfig{PAT: "bad", BaseURL: server.URL, HTTPClient: fastClient()})
	assert.Error(t, bad.Check(context.Background()))
}

func TestClient_Metadata(t *testing.T) {
	client := clarifai.NewClient(clarifai.ClientConfig{PAT: "x"})

	assert.Equal(t, "clarifai", client.Name())
	assert.Equal(t, "Clarifai Food Model", client.Source())
	assert.NotNil(t, client.Breaker())
}
