package entities

import "log/slog"

// CredentialMethod selects how the SDK authenticates against the backend.
type CredentialMethod string

const (
	// CredentialAPIKey authenticates with a per-organization API key.
	CredentialAPIKey CredentialMethod = "api_key"

	// CredentialAccessToken authenticates with a short-lived access token
	// issued by the central API for a given organization.
	CredentialAccessToken CredentialMethod = "access_token"
)

// Credentials identify the caller against the backend.
// Values are immutable once constructed; use the New* constructors.
type Credentials struct {
	method         CredentialMethod
	key            string
	organizationID string
}

// NewAPIKeyCredentials returns API key credentials. organizationID is
// optional; when set the key is treated as a central key and the
// central endpoint variants are used.
func NewAPIKeyCredentials(key, organizationID string) Credentials {
	return Credentials{method: CredentialAPIKey, key: key, organizationID: organizationID}
}

// NewAccessTokenCredentials returns access token credentials.
func NewAccessTokenCredentials(token, organizationID string) Credentials {
	return Credentials{method: CredentialAccessToken, key: token, organizationID: organizationID}
}

// Method returns the credential method.
func (c Credentials) Method() CredentialMethod { return c.method }

// Key returns the raw API key or access token.
func (c Credentials) Key() string { return c.key }

// OrganizationID returns the organization the credentials are scoped to, if any.
func (c Credentials) OrganizationID() string { return c.organizationID }

// Central reports whether the central endpoint variants apply.
func (c Credentials) Central() bool {
	return c.method == CredentialAccessToken || c.organizationID != ""
}

// IsZero reports whether no key has been provided.
func (c Credentials) IsZero() bool { return c.key == "" }

// LogValue implements slog.LogValuer and never exposes the key.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("method", string(c.method)),
		slog.String("key", redact(c.key)),
		slog.String("organization_id", c.organizationID),
	)
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
