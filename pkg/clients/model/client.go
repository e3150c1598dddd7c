package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/lotprice/internal/config"
	"github.com/mamadbah2/lotprice/internal/domain/models"
)

// ErrNotConfigured is returned when no inference endpoint is configured.
var ErrNotConfigured = errors.New("price model endpoint not configured")

// Client exposes the price model inference operations used by the application.
type Client interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a model client using the provided configuration values.
func NewClient(cfg config.ModelConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	}

	return &APIClient{httpClient: restyClient}
}

// PredictRequest carries one ordered feature vector.
type PredictRequest struct {
	FeatureSet models.FeatureSetVersion `json:"feature_set"`
	Features   models.Features          `json:"features"`
}

// PredictResponse mirrors the inference service reply.
type PredictResponse struct {
	PricePerKg float64 `json:"price_per_kg"`
	Model      string  `json:"model"`
	MAE        float64 `json:"mae"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Predict returns the model's price per kg for the vector in req.
func (c *APIClient) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if c.httpClient.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	result := new(PredictResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		SetError(apiErr).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("call price model: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return nil, fmt.Errorf("price model error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return result, nil
}
