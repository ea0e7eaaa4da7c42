package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultAttempts = 2
)

// HTTPProvider talks to a content-generation gateway over HTTP JSON. The
// gateway fronts the actual model vendor; growloop only needs context in,
// draft text out.
type HTTPProvider struct {
	provider    ProviderID
	baseURL     string
	model       string
	credentials Credentials
	client      *http.Client
	logger      *slog.Logger
	timeout     time.Duration
	attempts    int
}

type HTTPProviderConfig struct {
	Provider    ProviderID
	BaseURL     string
	Model       string
	Credentials Credentials
	Timeout     time.Duration
	Attempts    int
}

func NewHTTPProvider(cfg HTTPProviderConfig, logger *slog.Logger) (*HTTPProvider, error) {
	if _, err := ParseProviderID(string(cfg.Provider)); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("AI provider base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	return &HTTPProvider{
		provider:    cfg.Provider,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		credentials: cfg.Credentials,
		client:      &http.Client{},
		logger:      logger.With("module", "ai_provider", "provider", cfg.Provider),
		timeout:     timeout,
		attempts:    attempts,
	}, nil
}

type generateResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// GenerateContent performs a single generation call with a deadline.
// Timeouts and 5xx responses surface as retryable provider errors.
func (p *HTTPProvider) GenerateContent(ctx context.Context, prompt protocol.PromptContext) (*protocol.GeneratedContent, error) {
	var response generateResponse

	err := p.post(ctx, "/v1/generate", prompt, &response)
	if err != nil {
		return nil, err
	}

	if response.Content == "" {
		return nil, &ProviderError{Provider: p.provider, Op: "GenerateContent", Err: ErrEmptyContent}
	}

	return &protocol.GeneratedContent{
		Content:  response.Content,
		Provider: string(p.provider),
		Model:    response.Model,
	}, nil
}

// GenerateBlueprint asks the provider for a pillar+workflow proposal.
func (p *HTTPProvider) GenerateBlueprint(ctx context.Context, project protocol.ProjectContext) (*models.Blueprint, error) {
	var blueprint models.Blueprint

	err := p.post(ctx, "/v1/blueprint", project, &blueprint)
	if err != nil {
		return nil, err
	}

	return &blueprint, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload any, out any) error {
	key, err := p.credentials.KeyFor(p.provider)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider request: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, p.timeout)

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
		if err != nil {
			cancel()

			return fmt.Errorf("failed to create provider request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+key)

		if p.model != "" {
			req.Header.Set("X-Model", p.model)
		}

		resp, err := p.client.Do(req)
		cancel()

		if err != nil {
			lastErr = &ProviderError{Provider: p.provider, Op: "post", Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)}

			continue
		}

		lastErr = p.decode(resp, out)
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		p.logger.WarnContext(ctx, "Provider call failed, retrying",
			"attempt", attempt, "attempts", p.attempts, "error", lastErr)
	}

	return lastErr
}

func (p *HTTPProvider) decode(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{Provider: p.provider, Op: "decode", Err: ErrProviderAuth}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &ProviderError{
			Provider: p.provider,
			Op:       "decode",
			Err:      fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{
			Provider: p.provider,
			Op:       "decode",
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	err = json.Unmarshal(bodyBytes, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal provider response: %w", err)
	}

	return nil
}
