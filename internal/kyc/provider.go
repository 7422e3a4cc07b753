// server/internal/kyc/provider.go
package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/models"

	"go.uber.org/zap"
)

// ProviderRequest carries the rider identity fields and document references
// an external verifier needs.
type ProviderRequest struct {
	RiderID   string                         `json:"riderID"`
	Name      string                         `json:"name"`
	Phone     string                         `json:"phone"`
	Provider  string                         `json:"provider,omitempty"`
	Documents map[models.DocumentType]string `json:"documents"`
}

// ProviderResult is the binary verified/not-verified signal from the
// external verifier. Simulated results are marked so logs and responses can
// distinguish them from a real provider answer.
type ProviderResult struct {
	Verified  bool   `json:"verified"`
	Provider  string `json:"provider,omitempty"`
	Reference string `json:"reference,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
}

// VerificationProvider is the external verification collaborator. It is
// treated as untrusted and possibly unavailable.
type VerificationProvider interface {
	Verify(ctx context.Context, req ProviderRequest) (*ProviderResult, error)
	// Submit notifies the provider that a rider's document set is ready.
	Submit(ctx context.Context, req ProviderRequest) error
}

// HTTPProvider talks to the verification provider over its JSON webhook API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPProvider(cfg config.ProviderConfig, logger *zap.Logger) *HTTPProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *HTTPProvider) Verify(ctx context.Context, req ProviderRequest) (*ProviderResult, error) {
	var result ProviderResult
	if err := p.post(ctx, "/v1/verify", req, &result); err != nil {
		return nil, err
	}
	if result.Provider == "" {
		result.Provider = req.Provider
	}
	return &result, nil
}

func (p *HTTPProvider) Submit(ctx context.Context, req ProviderRequest) error {
	return p.post(ctx, "/v1/submissions", req, nil)
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload any, out any) error {
	if p.baseURL == "" {
		return fmt.Errorf("verification provider is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}
