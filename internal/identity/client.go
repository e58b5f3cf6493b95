// Package identity talks to the hosted cheqd Studio API to mint Ed25519
// keypairs and DIDs for AI provider issuers. Nothing is signed locally;
// key custody stays with the hosted service.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/UltraQuamfy/contentify/internal/cheqd"
	"github.com/UltraQuamfy/contentify/internal/platform/config"
	"github.com/UltraQuamfy/contentify/pkg/platform/circuit"
)

// Keypair is a hosted Ed25519 keypair reference. The private key never
// leaves the Studio API; kid is its handle.
type Keypair struct {
	Kid          string
	PublicKeyHex string
}

// DID is a minted issuer DID bound to a hosted keypair.
type DID struct {
	DID             string
	ControllerKeyID string
}

// CreateDIDParams carries what the DID document needs to describe an issuer.
type CreateDIDParams struct {
	Kid          string // hosted keypair to bind as verification method
	ProviderName string // used for the service id fragment
	ProfileURL   string // public issuer profile endpoint
}

// HTTPClient implements the identity operations by calling the Studio API.
type HTTPClient struct {
	baseURL    string
	network    string
	httpClient *http.Client
	caller     *cheqd.Caller
}

// HTTPClientOption configures the HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithCaller sets a custom resilience caller (for testing or shared breakers).
func WithCaller(caller *cheqd.Caller) HTTPClientOption {
	return func(c *HTTPClient) {
		c.caller = caller
	}
}

// NewHTTPClient creates a Studio API identity client.
func NewHTTPClient(cfg config.CheqdConfig, callerOpts []cheqd.CallerOption, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: cfg.BaseURL,
		network: cfg.Network,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		caller: cheqd.NewCaller("cheqd_identity", append([]cheqd.CallerOption{
			cheqd.WithBackoff(cheqd.BackoffConfig{
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     2 * time.Second,
				MaxRetries:   cfg.MaxRetries,
				Multiplier:   2.0,
			}),
		}, callerOpts...)...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breaker exposes the circuit breaker for health reporting.
func (c *HTTPClient) Breaker() *circuit.Breaker {
	return c.caller.Breaker()
}

type createKeyResponse struct {
	Kid          string `json:"kid"`
	PublicKeyHex string `json:"publicKeyHex"`
}

type didService struct {
	IDFragment      string   `json:"idFragment"`
	Type            string   `json:"type"`
	ServiceEndpoint []string `json:"serviceEndpoint"`
}

type createDIDOptions struct {
	Key                    string `json:"key"`
	VerificationMethodType string `json:"verificationMethodType"`
}

type createDIDRequest struct {
	Network              string           `json:"network"`
	IdentifierFormatType string           `json:"identifierFormatType"`
	AssertionMethod      bool             `json:"assertionMethod"`
	Options              createDIDOptions `json:"options"`
	Service              []didService     `json:"service,omitempty"`
}

type createDIDResponse struct {
	DID             string `json:"did"`
	ControllerKeyID string `json:"controllerKeyId"`
}

// errorResponse covers the error body shapes the Studio API returns.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateKeypair mints a hosted Ed25519 keypair under the caller's account.
func (c *HTTPClient) CreateKeypair(ctx context.Context, apiKey string) (*Keypair, error) {
	var out *Keypair
	err := c.caller.Do(ctx, "create_key", func(ctx context.Context) error {
		kp, err := c.createKeypair(ctx, apiKey)
		if err != nil {
			return err
		}
		out = kp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) createKeypair(ctx context.Context, apiKey string) (*Keypair, error) {
	const op = "create_key"

	url := fmt.Sprintf("%s/key/create", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	body, err := c.execute(ctx, op, req)
	if err != nil {
		return nil, err
	}

	var keyResp createKeyResponse
	if err := json.Unmarshal(body, &keyResp); err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "failed to parse response", err)
	}
	if keyResp.Kid == "" {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "response missing kid", nil)
	}

	return &Keypair{
		Kid:          keyResp.Kid,
		PublicKeyHex: keyResp.PublicKeyHex,
	}, nil
}

// CreateDID mints a DID on the configured network, bound to the given
// hosted keypair and carrying a service endpoint for the issuer profile.
func (c *HTTPClient) CreateDID(ctx context.Context, apiKey string, params CreateDIDParams) (*DID, error) {
	var out *DID
	err := c.caller.Do(ctx, "create_did", func(ctx context.Context) error {
		did, err := c.createDID(ctx, apiKey, params)
		if err != nil {
			return err
		}
		out = did
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) createDID(ctx context.Context, apiKey string, params CreateDIDParams) (*DID, error) {
	const op = "create_did"

	payload := createDIDRequest{
		Network:              c.network,
		IdentifierFormatType: "uuid",
		AssertionMethod:      true,
		Options: createDIDOptions{
			Key:                    params.Kid,
			VerificationMethodType: "Ed25519VerificationKey2018",
		},
	}
	if params.ProfileURL != "" {
		payload.Service = []didService{{
			IDFragment:      "ai-provider-profile",
			Type:            "LinkedDomains",
			ServiceEndpoint: []string{params.ProfileURL},
		}}
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/did/create", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	body, err := c.execute(ctx, op, req)
	if err != nil {
		return nil, err
	}

	var didResp createDIDResponse
	if err := json.Unmarshal(body, &didResp); err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "failed to parse response", err)
	}
	if didResp.DID == "" {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "response missing did", nil)
	}

	return &DID{
		DID:             didResp.DID,
		ControllerKeyID: didResp.ControllerKeyID,
	}, nil
}

// execute runs the request and normalizes transport and status failures into
// the shared taxonomy, preserving the remote error body when there is one.
func (c *HTTPClient) execute(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, cheqd.NewAPIError(cheqd.ErrorTimeout, op, "request timeout", err)
		}
		return nil, cheqd.NewAPIError(cheqd.ErrorOutage, op, "failed to execute request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to read response body", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, cheqd.NewAPIError(cheqd.ErrorAuthentication, op, remoteMessage(body, "authentication failed"), nil)
	case http.StatusBadRequest:
		return nil, cheqd.NewAPIError(cheqd.ErrorBadData, op, remoteMessage(body, "bad request"), nil)
	case http.StatusNotFound:
		return nil, cheqd.NewAPIError(cheqd.ErrorNotFound, op, remoteMessage(body, "not found"), nil)
	case http.StatusTooManyRequests:
		return nil, cheqd.NewAPIError(cheqd.ErrorRateLimited, op, remoteMessage(body, "rate limited"), nil)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, cheqd.NewAPIError(cheqd.ErrorOutage, op, remoteMessage(body, "service unavailable"), nil)
	default:
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op,
			remoteMessage(body, fmt.Sprintf("unexpected status code: %d", resp.StatusCode)), nil)
	}
}

// remoteMessage pulls the error text out of a Studio API error body,
// falling back to a fixed message when the body is not recognizable.
func remoteMessage(body []byte, fallback string) string {
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	return fallback
}
