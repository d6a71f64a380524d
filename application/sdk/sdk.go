// Package sdk is the host-facing facade: it validates the initializer
// configuration, checks entitlement and runs cardio test sessions.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/embed"
	"github.com/iselfietest/cardio-sdk/application/entitlement"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/policy"
	"github.com/iselfietest/cardio-sdk/infrastructure/web"
)

// MessageInitialized is the InitResult message on success.
const MessageInitialized = "SDK initialized successfully."

// InitResult is what the host page receives from initialization.
type InitResult struct {
	SDK           *SDK                      `json:"-"`
	Organization  *entities.Organization    `json:"organization,omitempty"`
	OrgStatus     *entities.OrgStatus       `json:"orgStatus,omitempty"`
	Message       string                    `json:"message"`
	Code          entities.ErrorCode        `json:"code,omitempty"`
	Subscriptions entities.SubscriptionList `json:"subscriptionList,omitempty"`
	Availability  entities.Availability     `json:"availability"`
	Success       bool                      `json:"success"`
}

func failure(err error) *InitResult {
	return &InitResult{Message: err.Error(), Code: sdkerrors.CodeOf(err)}
}

// SDK is an initialized client bound to one configuration.
type SDK struct {
	cfg        entities.Config
	creds      entities.Credentials
	domain     string
	logger     *slog.Logger
	resolver   *entitlement.Resolver
	evaluator  *policy.Evaluator
	controller *embed.Controller

	mu       sync.Mutex
	snapshot *entitlement.Snapshot
	verdict  entities.Availability
}

// New validates cfg and wires the SDK components. It performs no network
// calls.
func New(cfg entities.Config, opts ...Option) (*SDK, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.window == nil {
		return nil, &sdkerrors.ConfigError{Field: "window", Err: errors.New("no page to embed the test into")}
	}

	endpoints, err := resolveEndpoints(cfg.Environment, o)
	if err != nil {
		return nil, err
	}

	domain := o.window.Origin()
	service := o.service
	if service == nil {
		httpClient := o.http
		if httpClient == nil {
			httpClient = web.NewHTTPAdapter()
		}
		service = entitlement.NewClient(httpClient, endpoints.BackendURL,
			entitlement.WithLogger(o.logger),
			entitlement.WithDomain(domain),
		)
	}

	evalOpts := []policy.EvaluatorOption{policy.WithClock(o.clock), policy.WithLogger(o.logger)}
	if o.denials != nil {
		evalOpts = append(evalOpts, policy.WithDenialHandler(o.denials))
	}

	controller, err := embed.NewController(o.window, endpoints.FrontendURL,
		append([]embed.Option{embed.WithClock(o.clock), embed.WithLogger(o.logger)}, o.embedOpts...)...)
	if err != nil {
		return nil, err
	}

	return &SDK{
		cfg:        cfg,
		creds:      cfg.Credentials(),
		domain:     domain,
		logger:     o.logger,
		resolver:   entitlement.NewResolver(service),
		evaluator:  policy.NewEvaluator(evalOpts...),
		controller: controller,
	}, nil
}

func resolveEndpoints(env entities.Environment, o options) (entities.Endpoints, error) {
	if o.endpoints != nil {
		if err := config.Validate(*o.endpoints); err != nil {
			return entities.Endpoints{}, err
		}
		return *o.endpoints, nil
	}
	settings := o.settings
	if settings == nil {
		var err error
		if settings, err = config.LoadSettings(""); err != nil {
			return entities.Endpoints{}, err
		}
	}
	return settings.Endpoints(env)
}

// Config returns the configuration the SDK was built with.
func (s *SDK) Config() entities.Config {
	return s.cfg
}

// Availability fetches fresh entitlement data and evaluates it.
func (s *SDK) Availability(ctx context.Context) (entities.Availability, error) {
	_, verdict, err := s.refresh(ctx)
	return verdict, err
}

// IsAvailable reports the most recent verdict.
func (s *SDK) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verdict.Allowed
}

// Snapshot returns the most recently resolved entitlement data.
func (s *SDK) Snapshot() *entitlement.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *SDK) refresh(ctx context.Context) (*entitlement.Snapshot, entities.Availability, error) {
	snap, err := s.resolver.Resolve(ctx, s.creds)
	if err != nil {
		s.logger.Error("entitlement check failed", slog.String("op", "sdk.refresh"), slog.Any("error", err))
		verdict := entities.Deny(sdkerrors.CodeOf(err))
		s.mu.Lock()
		s.snapshot, s.verdict = nil, verdict
		s.mu.Unlock()
		return nil, verdict, err
	}
	verdict := s.evaluator.Check(snap.Organization, snap.Status, snap.Subscriptions)

	s.mu.Lock()
	s.snapshot, s.verdict = snap, verdict
	s.mu.Unlock()
	return snap, verdict, nil
}

// StartCardioTest re-checks entitlement, mounts the test frame and blocks
// until the test completes, fails, or is closed.
func (s *SDK) StartCardioTest(ctx context.Context) (json.RawMessage, error) {
	snap, verdict, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return nil, &sdkerrors.EntitlementError{Availability: verdict}
	}
	return s.controller.Start(ctx, s.cfg.ContainerID, s.initMessage(snap.Organization))
}

// CloseTest tears down the running test, if any.
func (s *SDK) CloseTest() {
	s.controller.Close()
}

func (s *SDK) initMessage(org *entities.Organization) entities.InitMessage {
	return entities.NewInitMessage(entities.InitPayload{
		Options:      s.cfg.Options,
		Styles:       s.cfg.Styles.CSSVariables(),
		Organization: org.Summary(),
		APIKey:       s.creds.Key(),
		Privilege:    org.Privilege,
		AppUserID:    s.cfg.AppUserID,
		Domain:       s.domain,
	})
}

// initialize builds an SDK and runs the first entitlement check. It never
// panics; every failure is reported in the result.
func initialize(ctx context.Context, cfg entities.Config, opts ...Option) *InitResult {
	s, err := New(cfg, opts...)
	if err != nil {
		return failure(err)
	}
	snap, verdict, err := s.refresh(ctx)
	if err != nil {
		return failure(err)
	}

	res := &InitResult{
		SDK:           s,
		Organization:  snap.Organization,
		OrgStatus:     snap.Status,
		Subscriptions: snap.Subscriptions,
		Availability:  verdict,
	}
	if verdict.Allowed {
		res.Success = true
		res.Message = MessageInitialized
	} else {
		res.Message = verdict.Reason
		res.Code = verdict.Code
	}
	return res
}
