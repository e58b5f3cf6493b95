// Package statuslist creates revocation status lists on the hosted cheqd
// Studio API. The list is sized once at creation; index allocation and bit
// manipulation stay with the hosted service.
package statuslist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/UltraQuamfy/contentify/internal/cheqd"
	"github.com/UltraQuamfy/contentify/internal/platform/config"
	"github.com/UltraQuamfy/contentify/pkg/platform/circuit"
)

// listCapacity is the fixed status list size requested at creation. Large
// enough that index allocation never needs a second list per issuer.
const listCapacity = 131072

// placeholderPaymentAddress stands in while payment settlement is disabled.
const placeholderPaymentAddress = "cheqd1payment0address0disabled"

// StatusList describes a created revocation status list.
type StatusList struct {
	URL            string // resolver URL for the published list
	ResourceID     string // content-addressed resource identifier
	PaymentAddress string // placeholder while settlement is disabled
	StatusPurpose  string // decoded from the returned credential
}

// HTTPClient implements status list creation against the Studio API.
type HTTPClient struct {
	baseURL     string
	resolverURL string
	httpClient  *http.Client
	caller      *cheqd.Caller
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

// NewHTTPClient creates a Studio API status list client.
func NewHTTPClient(cfg config.CheqdConfig, callerOpts []cheqd.CallerOption, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     cfg.BaseURL,
		resolverURL: cfg.ResolverURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		caller: cheqd.NewCaller("cheqd_statuslist", append([]cheqd.CallerOption{
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

type createStatusListRequest struct {
	DID            string  `json:"did"`
	StatusListName string  `json:"statusListName"`
	StatusPurpose  string  `json:"statusPurpose"`
	Length         int     `json:"length"`
	Encoding       string  `json:"encoding"`
	PaymentAmount  float64 `json:"paymentAmount,omitempty"`
}

type createStatusListResponse struct {
	Created           bool   `json:"created"`
	EncodedCredential string `json:"encodedCredential"`
	PaymentAddress    string `json:"paymentAddress"`
	ResourceMetadata  struct {
		ResourceID   string `json:"resourceId"`
		ResourceName string `json:"resourceName"`
		ResourceType string `json:"resourceType"`
	} `json:"resourceMetadata"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Create requests a named revocation status list bound to the issuer DID.
// paymentAmount is forwarded but inert while settlement is disabled.
func (c *HTTPClient) Create(ctx context.Context, apiKey, did, name string, paymentAmount float64) (*StatusList, error) {
	var out *StatusList
	err := c.caller.Do(ctx, "create_status_list", func(ctx context.Context) error {
		list, err := c.create(ctx, apiKey, did, name, paymentAmount)
		if err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) create(ctx context.Context, apiKey, did, name string, paymentAmount float64) (*StatusList, error) {
	const op = "create_status_list"

	reqBody, err := json.Marshal(createStatusListRequest{
		DID:            did,
		StatusListName: name,
		StatusPurpose:  "revocation",
		Length:         listCapacity,
		Encoding:       "base64url",
		PaymentAmount:  paymentAmount,
	})
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/credential-status/create", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

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
		// Success - continue to parse
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, cheqd.NewAPIError(cheqd.ErrorAuthentication, op, apiMessage(body, "authentication failed"), nil)
	case http.StatusBadRequest:
		return nil, cheqd.NewAPIError(cheqd.ErrorBadData, op, apiMessage(body, "bad request"), nil)
	case http.StatusNotFound:
		return nil, cheqd.NewAPIError(cheqd.ErrorNotFound, op, apiMessage(body, "not found"), nil)
	case http.StatusTooManyRequests:
		return nil, cheqd.NewAPIError(cheqd.ErrorRateLimited, op, apiMessage(body, "rate limited"), nil)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, cheqd.NewAPIError(cheqd.ErrorOutage, op, apiMessage(body, "service unavailable"), nil)
	default:
		return nil, cheqd.NewAPIError(cheqd.ErrorInternal, op,
			apiMessage(body, fmt.Sprintf("unexpected status code: %d", resp.StatusCode)), nil)
	}

	var listResp createStatusListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "failed to parse response", err)
	}
	if !listResp.Created {
		return nil, cheqd.NewAPIError(cheqd.ErrorContractMismatch, op, "response did not confirm creation", nil)
	}

	paymentAddress := listResp.PaymentAddress
	if paymentAddress == "" {
		paymentAddress = placeholderPaymentAddress
	}

	purpose := decodeStatusPurpose(listResp.EncodedCredential)
	if purpose == "" {
		purpose = "revocation"
	}

	return &StatusList{
		URL:            c.listURL(did, name),
		ResourceID:     listResp.ResourceMetadata.ResourceID,
		PaymentAddress: paymentAddress,
		StatusPurpose:  purpose,
	}, nil
}

// listURL builds the resolver address where the published list can be fetched.
func (c *HTTPClient) listURL(did, name string) string {
	return fmt.Sprintf("%s/%s?resourceName=%s&resourceType=StatusList2021Revocation",
		c.resolverURL, did, url.QueryEscape(name))
}

// decodeStatusPurpose pulls statusPurpose out of the status list credential
// the API returns as a JWT. The token is decoded without verification: the
// hosted service signed it and this backend performs no local crypto, so the
// claim is informational only.
func decodeStatusPurpose(encoded string) string {
	if encoded == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(encoded, claims); err != nil {
		return ""
	}
	vc, ok := claims["vc"].(map[string]any)
	if !ok {
		return ""
	}
	subject, ok := vc["credentialSubject"].(map[string]any)
	if !ok {
		return ""
	}
	purpose, _ := subject["statusPurpose"].(string)
	return purpose
}

func apiMessage(body []byte, fallback string) string {
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
