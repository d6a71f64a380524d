package entities

import (
	"encoding/json"
	"strings"
)

// AccountType is the billing state of an organization.
type AccountType string

const (
	AccountFree         AccountType = "free"
	AccountTrial        AccountType = "trial"
	AccountTrialExpired AccountType = "trial_expired"
	AccountActive       AccountType = "active"
	AccountUnknown      AccountType = "unknown"
)

// ParseAccountType normalizes the spellings the backend has used over time.
func ParseAccountType(s string) AccountType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return AccountFree
	case "trial":
		return AccountTrial
	case "trial_expired", "trialexpired", "trial-expired", "expired":
		return AccountTrialExpired
	case "active":
		return AccountActive
	default:
		return AccountUnknown
	}
}

// UnmarshalJSON decodes any string and maps unrecognized values to AccountUnknown.
func (a *AccountType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = ParseAccountType(s)
	return nil
}

// TestLimit is a plan allowance expressed as interval count times unit.
type TestLimit struct {
	IntervalCount int `json:"interval_count"`
	Unit          int `json:"unit"`
}

// UnmarshalJSON accepts both interval_count and intervalCount.
func (l *TestLimit) UnmarshalJSON(data []byte) error {
	var aux struct {
		IntervalCount *int `json:"interval_count"`
		CamelCount    *int `json:"intervalCount"`
		Unit          int  `json:"unit"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Unit = aux.Unit
	switch {
	case aux.IntervalCount != nil:
		l.IntervalCount = *aux.IntervalCount
	case aux.CamelCount != nil:
		l.IntervalCount = *aux.CamelCount
	default:
		l.IntervalCount = 0
	}
	return nil
}

// Total returns the number of tests the limit allows. A nil limit allows none.
func (l *TestLimit) Total() int {
	if l == nil {
		return 0
	}
	return l.IntervalCount * l.Unit
}

// ProductLimit holds the limit for a single product.
type ProductLimit struct {
	TestLimit *TestLimit `json:"testLimit,omitempty"`
}

// TestLimits groups limits by product.
type TestLimits struct {
	Cardio *ProductLimit `json:"cardio,omitempty"`
}

// OrgStatus is the usage snapshot returned by the backend.
type OrgStatus struct {
	TestLimitByCurrentSubscription *TestLimits `json:"testLimitByCurrentSubscription,omitempty"`
	AccountType                    AccountType `json:"accountType"`
	TotalCardioTestCount           int         `json:"totalCardioTestCount"`
}

// CardioPlanLimit returns the cardio allowance of the current plan,
// zero when any part of the limit is missing.
func (s *OrgStatus) CardioPlanLimit() int {
	if s == nil || s.TestLimitByCurrentSubscription == nil || s.TestLimitByCurrentSubscription.Cardio == nil {
		return 0
	}
	return s.TestLimitByCurrentSubscription.Cardio.TestLimit.Total()
}
