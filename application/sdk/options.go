package sdk

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/embed"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Option configures an SDK.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	clock     clockwork.Clock
	window    ports.Window
	http      ports.HTTPClient
	service   ports.EntitlementService
	denials   ports.DenialHandler
	endpoints *entities.Endpoints
	settings  *config.Settings
	embedOpts []embed.Option
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock used by the policy and the embed controller.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithWindow sets the page the test frame is embedded into. Required.
func WithWindow(window ports.Window) Option {
	return func(o *options) {
		o.window = window
	}
}

// WithHTTPClient sets the transport for backend calls.
func WithHTTPClient(client ports.HTTPClient) Option {
	return func(o *options) {
		o.http = client
	}
}

// WithEntitlementService replaces the backend client entirely.
func WithEntitlementService(service ports.EntitlementService) Option {
	return func(o *options) {
		o.service = service
	}
}

// WithDenialHandler receives every denied availability verdict.
func WithDenialHandler(h ports.DenialHandler) Option {
	return func(o *options) {
		o.denials = h
	}
}

// WithEndpoints pins the backend and frontend URLs, ignoring the
// configured environment.
func WithEndpoints(e entities.Endpoints) Option {
	return func(o *options) {
		o.endpoints = &e
	}
}

// WithSettings selects endpoints from s by the configured environment.
func WithSettings(s *config.Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithEmbedOptions passes extra options to the embed controller.
func WithEmbedOptions(opts ...embed.Option) Option {
	return func(o *options) {
		o.embedOpts = append(o.embedOpts, opts...)
	}
}
