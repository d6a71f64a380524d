package cardio

import (
	"context"
	"encoding/json"

	"github.com/iselfietest/cardio-sdk/application/sdk"
)

// Init initializes the page-wide SDK. Only the first call does any work;
// later calls return its result.
func Init(ctx context.Context, cfg Config, opts ...Option) *InitResult {
	return sdk.Init(ctx, cfg, opts...)
}

// InitMap is Init for a raw initializer object.
func InitMap(ctx context.Context, m Map, opts ...Option) *InitResult {
	return sdk.Default().InitMap(ctx, m, opts...)
}

// StartCardioTest re-checks entitlement, embeds the test frame and blocks
// until the frame completes, fails or is closed.
func StartCardioTest(ctx context.Context) (json.RawMessage, error) {
	return sdk.StartCardioTest(ctx)
}

// CloseTest tears down the running test, if any.
func CloseTest() error {
	return sdk.CloseTest()
}

// GetAvailability re-resolves entitlement for the initialized SDK.
func GetAvailability(ctx context.Context) (Availability, error) {
	return sdk.GetAvailability(ctx)
}
