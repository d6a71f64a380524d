// Package errors provides domain-specific error types for the SDK.
// All error types support error unwrapping via errors.As() and errors.Is(),
// and every type maps to a stable entities.ErrorCode.
package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/iselfietest/cardio-sdk/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by every error type in this package.
type DetailedError interface {
	error
	Code() entities.ErrorCode
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
		Code:    entities.CodeInternal,
	}
}

// CodeOf returns the machine-readable code of err, CodeInternal when err
// carries none and an empty code for nil.
func CodeOf(err error) entities.ErrorCode {
	if err == nil {
		return ""
	}
	return ToErrorDetail(err).Code
}

// VerificationKind distinguishes why credential verification failed.
type VerificationKind string

const (
	NetworkFailure     VerificationKind = "network_failure"
	InvalidCredentials VerificationKind = "invalid_credentials"
	DomainRejected     VerificationKind = "domain_rejected"
)

// VerificationError represents a failed credential verification.
type VerificationError struct {
	Err        error
	Kind       VerificationKind
	Message    string
	StatusCode int
}

func (e *VerificationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("Verification failed: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("Verification failed: %s", msg)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Code implements DetailedError.
func (e *VerificationError) Code() entities.ErrorCode {
	switch e.Kind {
	case InvalidCredentials:
		return entities.CodeInvalidCredentials
	case DomainRejected:
		return entities.CodeDomainRejected
	default:
		return entities.CodeNetworkFailure
	}
}

// ToErrorDetail implements DetailedError.
func (e *VerificationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "verification", Code: e.Code()}
}

// FetchError represents a failed status or subscription request.
type FetchError struct {
	Err        error
	Operation  string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Code implements DetailedError.
func (e *FetchError) Code() entities.ErrorCode {
	return entities.CodeNetworkFailure
}

// ToErrorDetail implements DetailedError.
func (e *FetchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "network", Code: e.Code()}
}

// PreconditionError is returned when a call needs data that has not been
// resolved yet, such as the organization id.
type PreconditionError struct {
	Operation string
	Missing   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Operation, e.Missing)
}

// Code implements DetailedError.
func (e *PreconditionError) Code() entities.ErrorCode {
	return entities.CodePreconditionFailed
}

// ToErrorDetail implements DetailedError.
func (e *PreconditionError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "precondition", Code: e.Code()}
}

// EntitlementError wraps a denied availability verdict.
type EntitlementError struct {
	Availability entities.Availability
}

func (e *EntitlementError) Error() string {
	return e.Availability.Reason
}

// Code implements DetailedError.
func (e *EntitlementError) Code() entities.ErrorCode {
	return e.Availability.Code
}

// ToErrorDetail implements DetailedError.
func (e *EntitlementError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "entitlement", Code: e.Code()}
}

// EmbedKind distinguishes embed lifecycle failures.
type EmbedKind string

const (
	ContainerNotFound EmbedKind = "container_not_found"
	AlreadyInProgress EmbedKind = "already_in_progress"
	HandshakeTimeout  EmbedKind = "handshake_timeout"
	Closed            EmbedKind = "closed"
)

// EmbedError represents a failure of the embedded test session.
type EmbedError struct {
	Kind        EmbedKind
	ContainerID string
	Attempts    int
	Timeout     time.Duration
}

func (e *EmbedError) Error() string {
	switch e.Kind {
	case ContainerNotFound:
		return fmt.Sprintf("Container element with ID %q not found after %d attempts.", e.ContainerID, e.Attempts)
	case AlreadyInProgress:
		return "A cardio test is already in progress."
	case HandshakeTimeout:
		return fmt.Sprintf("Test frame did not acknowledge initialization within %v.", e.Timeout)
	case Closed:
		return "Cardio test was closed before completion."
	default:
		return fmt.Sprintf("embed failed: %s", e.Kind)
	}
}

// IsTimeout reports whether the failure was a handshake timeout.
func (e *EmbedError) IsTimeout() bool {
	return e.Kind == HandshakeTimeout
}

// Is matches another *EmbedError of the same kind, so sentinel values
// like ErrContainerNotFound work with errors.Is.
func (e *EmbedError) Is(target error) bool {
	t, ok := target.(*EmbedError)
	return ok && t.Kind == e.Kind
}

// Code implements DetailedError.
func (e *EmbedError) Code() entities.ErrorCode {
	switch e.Kind {
	case ContainerNotFound:
		return entities.CodeContainerNotFound
	case AlreadyInProgress:
		return entities.CodeAlreadyInProgress
	case HandshakeTimeout:
		return entities.CodeHandshakeTimeout
	case Closed:
		return entities.CodeTestClosed
	default:
		return entities.CodeInternal
	}
}

// ToErrorDetail implements DetailedError.
func (e *EmbedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "embed", Code: e.Code(), IsTimeout: e.IsTimeout()}
}

// Sentinels for errors.Is comparisons against EmbedError kinds.
var (
	ErrContainerNotFound = &EmbedError{Kind: ContainerNotFound}
	ErrAlreadyInProgress = &EmbedError{Kind: AlreadyInProgress}
	ErrHandshakeTimeout  = &EmbedError{Kind: HandshakeTimeout}
	ErrClosed            = &EmbedError{Kind: Closed}
)

// FrameError carries the error payload the test frame reported.
type FrameError struct {
	Payload json.RawMessage
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("test frame reported an error: %s", string(e.Payload))
}

// Code implements DetailedError.
func (e *FrameError) Code() entities.ErrorCode {
	return entities.CodeFrameError
}

// ToErrorDetail implements DetailedError.
func (e *FrameError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "frame", Code: e.Code(), Data: e.Payload}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Code implements DetailedError.
func (e *ConfigError) Code() entities.ErrorCode {
	return entities.CodeConfigInvalid
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Code()}
}

// ErrNotInitialized is returned by guard-level calls made before Init succeeded.
var ErrNotInitialized = &entities.ErrorDetail{
	Message: "SDK is not initialized",
	Type:    "precondition",
	Code:    entities.CodeNotInitialized,
}
