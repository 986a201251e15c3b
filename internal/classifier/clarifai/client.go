// Package clarifai implements the Clarifai food-item-recognition model as an
// image classifier.
package clarifai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/provider/resilience"
)

const (
	// ProviderName identifies this classifier.
	ProviderName = "clarifai"

	// DefaultBaseURL is the Clarifai API base URL.
	DefaultBaseURL = "https://api.clarifai.com"

	// ModelID is the public food recognition model.
	ModelID = "food-item-recognition"

	source = "Clarifai Food Model"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// ClientConfig holds configuration for the Clarifai client.
type ClientConfig struct {
	// PAT is the Clarifai personal access token (required).
	PAT string

	// BaseURL is the API base URL (optional, defaults to Clarifai API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is a Clarifai API client.
type Client struct {
	pat        string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Clarifai client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		pat:        cfg.PAT,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Source returns the model name used in provenance text.
func (c *Client) Source() string {
	return source
}

// Breaker exposes the HTTP client's circuit breaker.
func (c *Client) Breaker() resilience.Breaker {
	return c.httpClient.Breaker()
}

// Classify sends the image to the food model and returns its concepts.
func (c *Client) Classify(ctx context.Context, image []byte) ([]classifier.Prediction, error) {
	payload, err := json.Marshal(outputsRequest{
		Inputs: []input{{Data: inputData{Image: imageData{Base64: base64.StdEncoding.EncodeToString(image)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/models/%s/outputs", c.baseURL, ModelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out outputsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(out.Outputs) == 0 {
		return nil, nil
	}

	concepts := out.Outputs[0].Data.Concepts
	predictions := make([]classifier.Prediction, 0, len(concepts))
	for _, concept := range concepts {
		predictions = append(predictions, classifier.Prediction{
			Name:       concept.Name,
			Confidence: concept.Value,
		})
	}

	c.logger.Debug().Int("concepts", len(predictions)).Msg("clarifai predictions received")
	return predictions, nil
}

// Check fetches the model description to verify the token and the API.
func (c *Client) Check(ctx context.Context) error {
	url := fmt.Sprintf("%s/v2/models/%s", c.baseURL, ModelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Key "+c.pat)
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Details    string
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("clarifai API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("clarifai API error: %d: %s", e.StatusCode, e.Details)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Details: string(bytes.TrimSpace(body))}
}

type outputsRequest struct {
	Inputs []input `json:"inputs"`
}

type input struct {
	Data inputData `json:"data"`
}

type inputData struct {
	Image imageData `json:"image"`
}

type imageData struct {
	Base64 string `json:"base64"`
}

type outputsResponse struct {
	Outputs []struct {
		Data struct {
			Concepts []concept `json:"concepts"`
		} `json:"data"`
	} `json:"outputs"`
}

type concept struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
