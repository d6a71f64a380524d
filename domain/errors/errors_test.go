package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationError(t *testing.T) {
	baseErr := fmt.Errorf("connection refused")
	err := &VerificationError{
		Kind: NetworkFailure,
		Err:  baseErr,
	}

	assert.Equal(t, "Verification failed: network_failure: connection refused", err.Error())
	assert.True(t, errors.Is(err, baseErr))
	assert.Equal(t, entities.CodeNetworkFailure, err.Code())

	var verErr *VerificationError
	require.True(t, errors.As(fmt.Errorf("init: %w", err), &verErr))
	assert.Equal(t, NetworkFailure, verErr.Kind)
}

func TestVerificationError_Kinds(t *testing.T) {
	tests := []struct {
		kind VerificationKind
		want entities.ErrorCode
	}{
		{NetworkFailure, entities.CodeNetworkFailure},
		{InvalidCredentials, entities.CodeInvalidCredentials},
		{DomainRejected, entities.CodeDomainRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &VerificationError{Kind: tt.kind, Message: "Invalid API key"}
			assert.Equal(t, tt.want, CodeOf(err))
			assert.Equal(t, "Verification failed: Invalid API key", err.Error())
			assert.Equal(t, "verification", ToErrorDetail(err).Type)
		})
	}
}

func TestFetchError(t *testing.T) {
	err := &FetchError{Operation: "fetch org status", StatusCode: 502, Err: fmt.Errorf("bad gateway")}

	assert.Equal(t, "fetch org status failed with status 502: bad gateway", err.Error())
	assert.Equal(t, entities.CodeNetworkFailure, CodeOf(err))
}

func TestPreconditionError(t *testing.T) {
	err := &PreconditionError{Operation: "fetch subscriptions", Missing: "organization id"}

	assert.Equal(t, "fetch subscriptions requires organization id", err.Error())
	assert.Equal(t, entities.CodePreconditionFailed, CodeOf(err))
}

func TestEntitlementError(t *testing.T) {
	err := &EntitlementError{Availability: entities.Deny(entities.CodeTrialExpired)}

	assert.Equal(t, "Trial expired", err.Error())
	assert.Equal(t, entities.CodeTrialExpired, CodeOf(err))
}

func TestEmbedError_Sentinels(t *testing.T) {
	err := fmt.Errorf("start: %w", &EmbedError{Kind: ContainerNotFound, ContainerID: "root", Attempts: 3})

	assert.True(t, errors.Is(err, ErrContainerNotFound))
	assert.False(t, errors.Is(err, ErrHandshakeTimeout))
	assert.Equal(t, entities.CodeContainerNotFound, CodeOf(err))
	assert.Contains(t, err.Error(), `"root" not found after 3 attempts`)
}

func TestEmbedError_Timeout(t *testing.T) {
	err := &EmbedError{Kind: HandshakeTimeout, Timeout: 30 * time.Second}

	assert.True(t, err.IsTimeout())
	assert.False(t, (&EmbedError{Kind: Closed}).IsTimeout())
	detail := ToErrorDetail(err)
	assert.True(t, detail.IsTimeout)
	assert.Equal(t, entities.CodeHandshakeTimeout, detail.Code)
}

func TestFrameError_CarriesPayload(t *testing.T) {
	payload := json.RawMessage(`{"reason":"camera_denied"}`)
	err := &FrameError{Payload: payload}

	detail := ToErrorDetail(err)
	assert.Equal(t, entities.CodeFrameError, detail.Code)
	assert.JSONEq(t, `{"reason":"camera_denied"}`, string(detail.Data))
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must be dev or prod")
	err := &ConfigError{
		Field: "environment",
		Err:   baseErr,
	}

	assert.Equal(t, "config validation failed for field 'environment': must be dev or prod", err.Error())
	assert.True(t, errors.Is(err, baseErr))
	assert.Equal(t, entities.CodeConfigInvalid, CodeOf(err))
}

func TestToErrorDetail_Generic(t *testing.T) {
	detail := ToErrorDetail(fmt.Errorf("boom"))

	assert.Equal(t, "internal", detail.Type)
	assert.Equal(t, entities.CodeInternal, detail.Code)
	assert.Nil(t, ToErrorDetail(nil))
	assert.Equal(t, entities.ErrorCode(""), CodeOf(nil))
}

func TestToErrorDetail_PassesThroughDetail(t *testing.T) {
	wrapped := fmt.Errorf("guard: %w", ErrNotInitialized)

	assert.Same(t, ErrNotInitialized, ToErrorDetail(wrapped))
	assert.Equal(t, entities.CodeNotInitialized, CodeOf(wrapped))
}
