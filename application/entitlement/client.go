// Package entitlement talks to the iSelfieTest backend to verify
// credentials and fetch the account state the policy evaluates.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.EntitlementService = (*Client)(nil)

const (
	headerAPIKey       = "X-Api-Key"
	headerOrganization = "X-Organization-Id"
	headerDomain       = "X-Sdk-Domain"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDomain sets the host page origin sent with every request.
func WithDomain(origin string) ClientOption {
	return func(c *Client) {
		c.domain = origin
	}
}

// Client is the backend entitlement API client. It never retries.
type Client struct {
	http    ports.HTTPClient
	logger  *slog.Logger
	backend string
	domain  string
}

// NewClient creates a client for the backend at backendURL.
func NewClient(httpClient ports.HTTPClient, backendURL string, opts ...ClientOption) *Client {
	c := &Client{
		http:    httpClient,
		logger:  slog.Default(),
		backend: strings.TrimRight(backendURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyResponse struct {
	Organization *entities.Organization `json:"organization"`
	Message      string                 `json:"message"`
	Success      bool                   `json:"success"`
}

type accessTokenRequest struct {
	AccessToken    string `json:"access_token"`
	OrganizationID string `json:"organizationId"`
}

type orgStatusRequest struct {
	OrganizationID string `json:"organizationId"`
}

type orgStatusResponse struct {
	Data *entities.OrgStatus `json:"data"`
}

type subscriptionsResponse struct {
	Subscriptions entities.SubscriptionList `json:"subscriptions"`
}

// Verify checks creds against the backend. The endpoint and payload shape
// depend on the credential method.
func (c *Client) Verify(ctx context.Context, creds entities.Credentials) (*entities.Verification, error) {
	const op = "entitlement.Verify"
	log := c.logger.With(slog.String("op", op), slog.Any("creds", creds))

	if creds.IsZero() {
		return nil, &sdkerrors.VerificationError{Kind: sdkerrors.InvalidCredentials, Message: "no API key or access token provided"}
	}

	var req ports.HTTPRequest
	switch {
	case creds.Method() == entities.CredentialAccessToken:
		body, err := json.Marshal(accessTokenRequest{AccessToken: creds.Key(), OrganizationID: creds.OrganizationID()})
		if err != nil {
			return nil, &sdkerrors.VerificationError{Kind: sdkerrors.NetworkFailure, Err: err}
		}
		req = c.request(http.MethodPost, "/sdk/central/access-token/verify", body, nil)
	case creds.Central():
		req = c.request(http.MethodGet, "/sdk/central/verify", nil, map[string]string{
			headerAPIKey:       creds.Key(),
			headerOrganization: creds.OrganizationID(),
		})
	default:
		req = c.request(http.MethodGet, "/sdk/verify", nil, map[string]string{headerAPIKey: creds.Key()})
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		log.Error("API call failed", slog.Any("error", err))
		return nil, &sdkerrors.VerificationError{Kind: sdkerrors.NetworkFailure, Message: "API call failed", Err: err}
	}

	var decoded verifyResponse
	decodeErr := json.Unmarshal(resp.Body, &decoded)

	if !resp.IsSuccess() {
		verr := &sdkerrors.VerificationError{
			Kind:       kindForStatus(resp.StatusCode),
			Message:    decoded.Message,
			StatusCode: resp.StatusCode,
		}
		if verr.Message == "" {
			verr.Message = http.StatusText(resp.StatusCode)
		}
		log.Warn("verification rejected", slog.Int("status", resp.StatusCode), slog.String("kind", string(verr.Kind)))
		return nil, verr
	}
	if decodeErr != nil {
		return nil, &sdkerrors.VerificationError{Kind: sdkerrors.NetworkFailure, Message: "malformed verification response", Err: decodeErr}
	}

	if !decoded.Success {
		kind := sdkerrors.InvalidCredentials
		if mentionsDomain(decoded.Message) {
			kind = sdkerrors.DomainRejected
		}
		msg := decoded.Message
		if msg == "" {
			msg = "Invalid API Key"
		}
		log.Warn("verification unsuccessful", slog.String("kind", string(kind)))
		return nil, &sdkerrors.VerificationError{Kind: kind, Message: msg, StatusCode: resp.StatusCode}
	}

	log.Debug("credentials verified")
	return &entities.Verification{
		Success:      true,
		Organization: decoded.Organization,
		Message:      decoded.Message,
	}, nil
}

// FetchOrgStatus returns the usage snapshot of organizationID.
func (c *Client) FetchOrgStatus(ctx context.Context, creds entities.Credentials, organizationID string) (*entities.OrgStatus, error) {
	const op = "fetch org status"
	if organizationID == "" {
		return nil, &sdkerrors.PreconditionError{Operation: op, Missing: "organization id"}
	}

	path := "/sdk/orgStatus"
	if creds.Central() {
		path = "/sdk/central/orgStatus"
	}
	body, err := json.Marshal(orgStatusRequest{OrganizationID: organizationID})
	if err != nil {
		return nil, &sdkerrors.FetchError{Operation: op, Err: err}
	}

	var decoded orgStatusResponse
	if err := c.fetch(ctx, op, c.request(http.MethodPost, path, body, c.authHeaders(creds)), &decoded); err != nil {
		return nil, err
	}
	if decoded.Data == nil {
		return nil, &sdkerrors.FetchError{Operation: op, Err: fmt.Errorf("response has no data")}
	}
	return decoded.Data, nil
}

// FetchSubscriptions returns the subscriptions of organizationID.
func (c *Client) FetchSubscriptions(ctx context.Context, creds entities.Credentials, organizationID string) (entities.SubscriptionList, error) {
	const op = "fetch subscriptions"
	if organizationID == "" {
		return nil, &sdkerrors.PreconditionError{Operation: op, Missing: "organization id"}
	}

	path := "/subscription/sdk/" + url.PathEscape(organizationID) + "/list"
	if creds.Central() {
		path = "/subscription/sdk/central/" + url.PathEscape(organizationID) + "/list"
	}

	var decoded subscriptionsResponse
	if err := c.fetch(ctx, op, c.request(http.MethodGet, path, nil, c.authHeaders(creds)), &decoded); err != nil {
		return nil, err
	}
	return decoded.Subscriptions, nil
}

func (c *Client) fetch(ctx context.Context, op string, req ports.HTTPRequest, out any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.Error("API call failed", slog.String("op", op), slog.Any("error", err))
		return &sdkerrors.FetchError{Operation: op, Err: err}
	}
	if !resp.IsSuccess() {
		return &sdkerrors.FetchError{Operation: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &sdkerrors.FetchError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) request(method, path string, body []byte, headers map[string]string) ports.HTTPRequest {
	h := map[string]string{"Content-Type": "application/json"}
	if c.domain != "" {
		h[headerDomain] = c.domain
	}
	for k, v := range headers {
		h[k] = v
	}
	return ports.HTTPRequest{
		Method:  method,
		URL:     c.backend + path,
		Headers: h,
		Body:    body,
	}
}

func (c *Client) authHeaders(creds entities.Credentials) map[string]string {
	return map[string]string{headerAPIKey: creds.Key()}
}

func kindForStatus(status int) sdkerrors.VerificationKind {
	switch status {
	case http.StatusUnauthorized, http.StatusNotFound:
		return sdkerrors.InvalidCredentials
	case http.StatusForbidden:
		return sdkerrors.DomainRejected
	default:
		return sdkerrors.NetworkFailure
	}
}

func mentionsDomain(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "domain") || strings.Contains(lower, "origin")
}
