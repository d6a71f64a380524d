package entitlement_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iselfietest/cardio-sdk/application/entitlement"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/ports"
	"github.com/iselfietest/cardio-sdk/infrastructure/web"
	sdktest "github.com/iselfietest/cardio-sdk/testing"
)

const pageOrigin = "https://shop.example.com"

func newBackend(t *testing.T) (*sdktest.Backend, *entitlement.Client) {
	t.Helper()
	backend := sdktest.NewBackend()
	limit := 5
	backend.AddAPIKey("key-123", entities.Organization{ID: "org-1", Name: "Acme", CardioTrialTestLimit: &limit})
	backend.AddAccessToken("token-abc", "org-1")
	backend.SetStatus("org-1", entities.OrgStatus{AccountType: entities.AccountTrial, TotalCardioTestCount: 2})
	backend.SetSubscriptions("org-1", entities.SubscriptionList{{ProductType: "cardio", SubscriptionStatus: "active"}})

	url := backend.Start(t)
	return backend, entitlement.NewClient(web.NewHTTPAdapter(), url, entitlement.WithDomain(pageOrigin))
}

func verificationKind(t *testing.T, err error) sdkerrors.VerificationKind {
	t.Helper()
	var verr *sdkerrors.VerificationError
	require.True(t, errors.As(err, &verr), "expected VerificationError, got %T: %v", err, err)
	return verr.Kind
}

func TestClient_VerifyAPIKey(t *testing.T) {
	backend, client := newBackend(t)

	v, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))
	require.NoError(t, err)

	assert.True(t, v.Success)
	require.NotNil(t, v.Organization)
	assert.Equal(t, "org-1", v.Organization.ID)
	assert.Equal(t, 5, v.Organization.TrialLimit())

	headers := backend.LastHeaders(sdktest.RouteVerify)
	assert.Equal(t, "key-123", headers.Get("X-Api-Key"))
	assert.Empty(t, headers.Get("X-Organization-Id"))
	assert.Equal(t, pageOrigin, headers.Get("X-Sdk-Domain"))
}

func TestClient_VerifyCentralAPIKey(t *testing.T) {
	backend, client := newBackend(t)

	_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", "org-1"))
	require.NoError(t, err)

	assert.Equal(t, "org-1", backend.LastHeaders(sdktest.RouteVerify).Get("X-Organization-Id"))
}

func TestClient_VerifyAccessToken(t *testing.T) {
	_, client := newBackend(t)

	v, err := client.Verify(context.Background(), entities.NewAccessTokenCredentials("token-abc", "org-1"))
	require.NoError(t, err)
	assert.Equal(t, "Acme", v.Organization.Name)

	_, err = client.Verify(context.Background(), entities.NewAccessTokenCredentials("token-abc", "org-2"))
	assert.Equal(t, sdkerrors.InvalidCredentials, verificationKind(t, err))
}

func TestClient_VerifyFailures(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, client := newBackend(t)
		_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("nope", ""))
		assert.Equal(t, sdkerrors.InvalidCredentials, verificationKind(t, err))
		assert.Equal(t, entities.CodeInvalidCredentials, sdkerrors.CodeOf(err))
	})

	t.Run("domain rejected in body", func(t *testing.T) {
		backend, client := newBackend(t)
		backend.RejectDomain(pageOrigin)
		_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))
		assert.Equal(t, sdkerrors.DomainRejected, verificationKind(t, err))
	})

	t.Run("forbidden status", func(t *testing.T) {
		backend, client := newBackend(t)
		backend.FailRoute(sdktest.RouteVerify, http.StatusForbidden)
		_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))
		assert.Equal(t, sdkerrors.DomainRejected, verificationKind(t, err))
	})

	t.Run("server error", func(t *testing.T) {
		backend, client := newBackend(t)
		backend.FailRoute(sdktest.RouteVerify, http.StatusBadGateway)
		_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))
		assert.Equal(t, sdkerrors.NetworkFailure, verificationKind(t, err))
	})

	t.Run("no credentials", func(t *testing.T) {
		_, client := newBackend(t)
		_, err := client.Verify(context.Background(), entities.Credentials{})
		assert.Equal(t, sdkerrors.InvalidCredentials, verificationKind(t, err))
	})
}

func TestClient_VerifyTransportError(t *testing.T) {
	mock := &sdktest.MockHTTPClient{
		DoFunc: func(context.Context, ports.HTTPRequest) (*ports.HTTPResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	client := entitlement.NewClient(mock, "https://api.example.com/")

	_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))

	assert.Equal(t, sdkerrors.NetworkFailure, verificationKind(t, err))
	assert.Contains(t, err.Error(), "connection refused")
	require.Len(t, mock.Requests(), 1)
	assert.Equal(t, "https://api.example.com/sdk/verify", mock.Requests()[0].URL)
}

func TestClient_VerifyMalformedBody(t *testing.T) {
	mock := &sdktest.MockHTTPClient{
		DoFunc: func(context.Context, ports.HTTPRequest) (*ports.HTTPResponse, error) {
			return sdktest.JSONResponse(http.StatusOK, "<html>")
		},
	}
	client := entitlement.NewClient(mock, "https://api.example.com")

	_, err := client.Verify(context.Background(), entities.NewAPIKeyCredentials("key-123", ""))

	assert.Equal(t, sdkerrors.NetworkFailure, verificationKind(t, err))
}

func TestClient_AccessTokenRequestShape(t *testing.T) {
	mock := &sdktest.MockHTTPClient{
		DoFunc: func(context.Context, ports.HTTPRequest) (*ports.HTTPResponse, error) {
			return sdktest.JSONResponse(http.StatusOK, `{"success":true,"organization":{"id":"org-9"}}`)
		},
	}
	client := entitlement.NewClient(mock, "https://api.example.com")

	v, err := client.Verify(context.Background(), entities.NewAccessTokenCredentials("tok", "org-9"))
	require.NoError(t, err)
	assert.Equal(t, "org-9", v.Organization.ID)

	req := mock.Requests()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.example.com/sdk/central/access-token/verify", req.URL)
	assert.JSONEq(t, `{"access_token":"tok","organizationId":"org-9"}`, string(req.Body))
}

func TestClient_FetchOrgStatus(t *testing.T) {
	backend, client := newBackend(t)

	status, err := client.FetchOrgStatus(context.Background(), entities.NewAPIKeyCredentials("key-123", ""), "org-1")
	require.NoError(t, err)
	assert.Equal(t, entities.AccountTrial, status.AccountType)
	assert.Equal(t, 2, status.TotalCardioTestCount)

	backend.FailRoute(sdktest.RouteOrgStatus, http.StatusInternalServerError)
	_, err = client.FetchOrgStatus(context.Background(), entities.NewAPIKeyCredentials("key-123", ""), "org-1")

	var ferr *sdkerrors.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusInternalServerError, ferr.StatusCode)
	assert.Equal(t, entities.CodeNetworkFailure, sdkerrors.CodeOf(err))
}

func TestClient_FetchSubscriptions(t *testing.T) {
	_, client := newBackend(t)

	subs, err := client.FetchSubscriptions(context.Background(), entities.NewAPIKeyCredentials("key-123", ""), "org-1")
	require.NoError(t, err)
	assert.True(t, subs.HasActive(entities.ProductCardio))

	subs, err = client.FetchSubscriptions(context.Background(), entities.NewAccessTokenCredentials("token-abc", "org-1"), "org-1")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestClient_FetchRequiresOrganization(t *testing.T) {
	mock := &sdktest.MockHTTPClient{}
	client := entitlement.NewClient(mock, "https://api.example.com")
	creds := entities.NewAPIKeyCredentials("key-123", "")

	_, err := client.FetchOrgStatus(context.Background(), creds, "")
	assert.Equal(t, entities.CodePreconditionFailed, sdkerrors.CodeOf(err))

	_, err = client.FetchSubscriptions(context.Background(), creds, "")
	assert.Equal(t, entities.CodePreconditionFailed, sdkerrors.CodeOf(err))

	assert.Empty(t, mock.Requests())
}

func TestClient_FetchPaths(t *testing.T) {
	tests := []struct {
		name  string
		creds entities.Credentials
		urls  []string
	}{
		{
			name:  "plain api key",
			creds: entities.NewAPIKeyCredentials("k", ""),
			urls:  []string{"https://api.example.com/sdk/orgStatus", "https://api.example.com/subscription/sdk/o%2F1/list"},
		},
		{
			name:  "central api key",
			creds: entities.NewAPIKeyCredentials("k", "o/1"),
			urls:  []string{"https://api.example.com/sdk/central/orgStatus", "https://api.example.com/subscription/sdk/central/o%2F1/list"},
		},
		{
			name:  "access token",
			creds: entities.NewAccessTokenCredentials("t", "o/1"),
			urls:  []string{"https://api.example.com/sdk/central/orgStatus", "https://api.example.com/subscription/sdk/central/o%2F1/list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &sdktest.MockHTTPClient{
				DoFunc: func(_ context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
					if req.Method == http.MethodPost {
						var body map[string]string
						require.NoError(t, json.Unmarshal(req.Body, &body))
						assert.Equal(t, "o/1", body["organizationId"])
						return sdktest.JSONResponse(http.StatusOK, `{"data":{"accountType":"free"}}`)
					}
					return sdktest.JSONResponse(http.StatusOK, `{"subscriptions":[]}`)
				},
			}
			client := entitlement.NewClient(mock, "https://api.example.com")

			_, err := client.FetchOrgStatus(context.Background(), tt.creds, "o/1")
			require.NoError(t, err)
			_, err = client.FetchSubscriptions(context.Background(), tt.creds, "o/1")
			require.NoError(t, err)

			reqs := mock.Requests()
			require.Len(t, reqs, 2)
			assert.Equal(t, tt.urls[0], reqs[0].URL)
			assert.Equal(t, tt.urls[1], reqs[1].URL)
			assert.Equal(t, tt.creds.Key(), reqs[1].Headers["X-Api-Key"])
		})
	}
}

func TestClient_OrgStatusWithoutData(t *testing.T) {
	mock := &sdktest.MockHTTPClient{
		DoFunc: func(context.Context, ports.HTTPRequest) (*ports.HTTPResponse, error) {
			return sdktest.JSONResponse(http.StatusOK, `{}`)
		},
	}
	client := entitlement.NewClient(mock, "https://api.example.com")

	_, err := client.FetchOrgStatus(context.Background(), entities.NewAPIKeyCredentials("k", ""), "org-1")

	var ferr *sdkerrors.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, err.Error(), "no data")
}
