package policy

import (
	"log/slog"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Ensure implementations satisfy the interface.
var _ ports.DenialHandler = (*SlogDenialHandler)(nil)
var _ ports.DenialHandler = (*NopDenialHandler)(nil)

// SlogDenialHandler logs denials at warn level. A nil Logger uses slog.Default().
type SlogDenialHandler struct {
	Logger *slog.Logger
}

func (h *SlogDenialHandler) OnDenial(accountType entities.AccountType, verdict entities.Availability) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("cardio test not available",
		slog.String("account_type", string(accountType)),
		slog.String("code", string(verdict.Code)),
		slog.String("reason", verdict.Reason),
	)
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(entities.AccountType, entities.Availability) {}
