package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/graphqa/kgqa/pkg/errs"
)

// HTTPConfig configures an HTTPClient, mirroring the teacher's
// LLMProviderConfig.APIKeyEnv indirection (the key itself never lives in
// config, only the name of the env var holding it).
type HTTPConfig struct {
	BaseURL        string
	Model          string
	APIKeyEnv      string
	EmbedModel     string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// HTTPClient is a Client backed by a JSON-over-HTTP completion/embedding
// endpoint, retried per the policy in spec.md §4.2.
type HTTPClient struct {
	cfg    HTTPConfig
	apiKey string
}

// NewHTTPClient builds an HTTPClient, reading the API key from the env var
// named by cfg.APIKeyEnv.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &HTTPClient{cfg: cfg, apiKey: os.Getenv(cfg.APIKeyEnv)}
}

type completionRequest struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	User     string `json:"user"`
	JSONMode bool   `json:"json_mode"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// CompleteJSON implements Client.
func (c *HTTPClient) CompleteJSON(ctx context.Context, system, user string) (map[string]any, error) {
	var out map[string]any
	err := withRetry(ctx, lmRetry, func() error {
		result, err := c.doCompletion(ctx, system, user)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func (c *HTTPClient) doCompletion(ctx context.Context, system, user string) (map[string]any, error) {
	body, err := json.Marshal(completionRequest{Model: c.cfg.Model, System: system, User: user, JSONMode: true})
	if err != nil {
		return nil, errs.Wrap(errs.KindParse, "llm_client", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	respBody, err := c.post(reqCtx, "/v1/complete", body)
	if err != nil {
		return nil, err
	}

	var resp completionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errs.Wrap(errs.KindParse, "llm_client", fmt.Errorf("malformed completion envelope: %w", err))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, errs.Wrap(errs.KindParse, "llm_client", fmt.Errorf("model did not return valid JSON: %w", err))
	}
	return parsed, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
}

// Embed implements Client.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var out []float64
	err := withRetry(ctx, lmRetry, func() error {
		vec, err := c.doEmbed(ctx, text)
		if err != nil {
			return err
		}
		out = vec
		return nil
	})
	return out, err
}

func (c *HTTPClient) doEmbed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: c.cfg.EmbedModel, Input: text})
	if err != nil {
		return nil, errs.Wrap(errs.KindParse, "llm_client", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	respBody, err := c.post(reqCtx, "/v1/embed", body)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errs.Wrap(errs.KindParse, "llm_client", fmt.Errorf("malformed embedding envelope: %w", err))
	}
	return resp.Vector, nil
}

// post issues the HTTP call and classifies the result: network-level and
// 5xx failures become infrastructure errors (retryable); 4xx responses are
// treated as non-retryable pipeline errors (the request itself is bad).
func (c *HTTPClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.KindPipeline, "llm_client", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindInfrastructure, "llm_client", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindInfrastructure, "llm_client", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, errs.New(errs.KindInfrastructure, "llm_client", fmt.Sprintf("provider returned %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode >= 400:
		return nil, errs.New(errs.KindPipeline, "llm_client", fmt.Sprintf("provider returned %d: %s", resp.StatusCode, respBody))
	}
	return respBody, nil
}
