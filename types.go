// Package cardio is the Go entry point of the iSelfieTest cardio SDK. It
// re-exports the types a host needs and forwards to the page-wide SDK
// instance held by application/sdk.
package cardio

import (
	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/sdk"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
)

// Config is the host-facing initializer configuration.
type Config = entities.Config

// Map is the raw initializer object as the host page supplies it.
type Map = config.Map

// Options are the feature switches forwarded to the test frame.
type Options = entities.Options

// Styles are the colour overrides applied inside the test frame.
type Styles = entities.Styles

// Environment selects the deployment the SDK talks to.
type Environment = entities.Environment

const (
	EnvironmentDev  = entities.EnvironmentDev
	EnvironmentProd = entities.EnvironmentProd
)

// Availability is the entitlement verdict.
type Availability = entities.Availability

// ErrorCode is the machine-readable failure code.
type ErrorCode = entities.ErrorCode

// ErrorDetail is the structured error shape returned to host pages.
// Error Types: "verification", "network", "precondition", "entitlement", "embed", "frame", "config", "internal"
type ErrorDetail = entities.ErrorDetail

// InitResult is the outcome of initialization.
type InitResult = sdk.InitResult

// SDK is an initialized client.
type SDK = sdk.SDK

// Option configures initialization.
type Option = sdk.Option

// ToErrorDetail converts any error returned by this module into an
// ErrorDetail.
func ToErrorDetail(err error) *ErrorDetail {
	return sdkerrors.ToErrorDetail(err)
}

// CodeOf returns the ErrorCode carried by err.
func CodeOf(err error) ErrorCode {
	return sdkerrors.CodeOf(err)
}
