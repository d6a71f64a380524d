package ports

import "github.com/iselfietest/cardio-sdk/domain/entities"

// DenialHandler is called when the entitlement policy denies a test.
// Implementations can log, collect metrics, or take other actions.
type DenialHandler interface {
	// OnDenial is called with the account type that was evaluated and the
	// denied verdict.
	OnDenial(accountType entities.AccountType, verdict entities.Availability)
}
