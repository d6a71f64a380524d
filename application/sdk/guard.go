package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
)

// Guard holds the single SDK instance of a page. The zero value is ready
// to use.
type Guard struct {
	// Logger receives the repeated-init warning. Nil uses slog.Default().
	Logger *slog.Logger

	initMu sync.Mutex
	result atomic.Pointer[InitResult]
}

// Init initializes the SDK on the first call. Later calls return the
// first result unchanged, whatever cfg they pass.
func (g *Guard) Init(ctx context.Context, cfg entities.Config, opts ...Option) (res *InitResult) {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	if prev := g.result.Load(); prev != nil {
		g.logger().Warn("SDK already initialized; returning the existing instance")
		return prev
	}
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("initialization panicked: %v", r))
		}
		g.result.Store(res)
	}()
	return initialize(ctx, cfg, opts...)
}

// InitMap is Init for the raw initializer object of the host page.
func (g *Guard) InitMap(ctx context.Context, m config.Map, opts ...Option) *InitResult {
	cfg, err := config.FromMap(m)
	if err != nil {
		g.initMu.Lock()
		defer g.initMu.Unlock()
		if prev := g.result.Load(); prev != nil {
			g.logger().Warn("SDK already initialized; returning the existing instance")
			return prev
		}
		res := failure(err)
		g.result.Store(res)
		return res
	}
	return g.Init(ctx, cfg, opts...)
}

// Result returns the stored InitResult, or nil before Init.
func (g *Guard) Result() *InitResult {
	return g.result.Load()
}

// SDK returns the initialized instance or ErrNotInitialized.
func (g *Guard) SDK() (*SDK, error) {
	res := g.result.Load()
	if res == nil || res.SDK == nil {
		return nil, sdkerrors.ErrNotInitialized
	}
	return res.SDK, nil
}

// StartCardioTest starts a test on the single instance.
func (g *Guard) StartCardioTest(ctx context.Context) (json.RawMessage, error) {
	s, err := g.SDK()
	if err != nil {
		return nil, err
	}
	return s.StartCardioTest(ctx)
}

// CloseTest closes the running test on the single instance.
func (g *Guard) CloseTest() error {
	s, err := g.SDK()
	if err != nil {
		return err
	}
	s.CloseTest()
	return nil
}

// GetAvailability re-checks entitlement on the single instance.
func (g *Guard) GetAvailability(ctx context.Context) (entities.Availability, error) {
	s, err := g.SDK()
	if err != nil {
		return entities.Deny(entities.CodeNotInitialized), err
	}
	return s.Availability(ctx)
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

var defaultGuard Guard

// Default returns the process-wide guard used by the free functions.
func Default() *Guard {
	return &defaultGuard
}

// Init initializes the process-wide instance.
func Init(ctx context.Context, cfg entities.Config, opts ...Option) *InitResult {
	return defaultGuard.Init(ctx, cfg, opts...)
}

// StartCardioTest starts a test on the process-wide instance.
func StartCardioTest(ctx context.Context) (json.RawMessage, error) {
	return defaultGuard.StartCardioTest(ctx)
}

// CloseTest closes the running test of the process-wide instance.
func CloseTest() error {
	return defaultGuard.CloseTest()
}

// GetAvailability re-checks entitlement of the process-wide instance.
func GetAvailability(ctx context.Context) (entities.Availability, error) {
	return defaultGuard.GetAvailability(ctx)
}
