// Package policy decides whether an organization may run a cardio test.
package policy

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Evaluate maps the organization's account state onto an availability
// verdict. It is pure: the same inputs always produce the same verdict.
//
// Rules are applied in order and the first match wins:
//   - free accounts are always allowed
//   - expired trials are denied
//   - trials past their end date, or without remaining trial tests, are denied
//   - active accounts need an active cardio subscription and remaining plan tests
//   - anything else has no active subscription
func Evaluate(org *entities.Organization, status *entities.OrgStatus, subs entities.SubscriptionList, now time.Time) entities.Availability {
	if status == nil {
		return entities.Deny(entities.CodeNoActiveSubscription)
	}

	used := status.TotalCardioTestCount

	switch status.AccountType {
	case entities.AccountFree:
		return entities.Allow()

	case entities.AccountTrialExpired:
		return entities.Deny(entities.CodeTrialExpired)

	case entities.AccountTrial:
		if org != nil && org.TrialEnd != nil && now.After(*org.TrialEnd) {
			return entities.Deny(entities.CodeTrialExpired)
		}
		if org.TrialLimit()-used <= 0 {
			return entities.Deny(entities.CodeTrialLimitExceeded)
		}
		return entities.Allow()

	case entities.AccountActive:
		if !subs.HasActive(entities.ProductCardio) {
			return entities.Deny(entities.CodeNoActiveSubscription)
		}
		if status.CardioPlanLimit()-used <= 0 {
			return entities.Deny(entities.CodeSubscriptionLimitExceeded)
		}
		return entities.Allow()

	default:
		return entities.Deny(entities.CodeNoActiveSubscription)
	}
}

// evaluatorConfig holds configuration for the Evaluator.
type evaluatorConfig struct {
	clock         clockwork.Clock
	denialHandler ports.DenialHandler
}

func defaultEvaluatorConfig() evaluatorConfig {
	return evaluatorConfig{
		clock:         clockwork.NewRealClock(),
		denialHandler: &SlogDenialHandler{},
	}
}

// EvaluatorOption configures the Evaluator.
type EvaluatorOption func(*evaluatorConfig)

// WithClock sets the clock used as "now".
func WithClock(c clockwork.Clock) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithDenialHandler sets the denial handler.
func WithDenialHandler(h ports.DenialHandler) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if h != nil {
			cfg.denialHandler = h
		}
	}
}

// WithLogger routes denials to logger through a SlogDenialHandler.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.denialHandler = &SlogDenialHandler{Logger: logger}
	}
}

// Evaluator applies Evaluate at the current time and reports denials.
type Evaluator struct {
	config evaluatorConfig
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	cfg := defaultEvaluatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Evaluator{config: cfg}
}

// Check evaluates the inputs at the evaluator's current time.
func (e *Evaluator) Check(org *entities.Organization, status *entities.OrgStatus, subs entities.SubscriptionList) entities.Availability {
	verdict := Evaluate(org, status, subs, e.config.clock.Now())
	if !verdict.Allowed {
		accountType := entities.AccountUnknown
		if status != nil {
			accountType = status.AccountType
		}
		e.config.denialHandler.OnDenial(accountType, verdict)
	}
	return verdict
}
