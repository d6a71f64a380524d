package entities

import (
	"encoding/json"
	"time"
)

// Organization is the account the credentials resolved to.
// It is read-only outside the entitlement client.
type Organization struct {
	// TrialEnd is when a trial account stops being usable. Nil means the
	// trial never expires by date.
	TrialEnd *time.Time `json:"trialEnd,omitempty"`

	// CardioTrialTestLimit is the number of cardio tests a trial may run.
	CardioTrialTestLimit *int `json:"cardioTrialTestLimit,omitempty"`

	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Privilege   string `json:"privilege,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (o *Organization) UnmarshalJSON(data []byte) error {
	type plain Organization
	aux := struct {
		*plain
		AltID string `json:"id"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = aux.AltID
	}
	return nil
}

// OrganizationSummary is the subset of an organization shared with the
// embedded test frame.
type OrganizationSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

// Summary returns the frame-facing summary. A nil organization yields
// an empty summary.
func (o *Organization) Summary() OrganizationSummary {
	if o == nil {
		return OrganizationSummary{}
	}
	return OrganizationSummary{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Logo:        o.ImageURL,
	}
}

// TrialLimit returns the trial test limit, zero when unset.
func (o *Organization) TrialLimit() int {
	if o == nil || o.CardioTrialTestLimit == nil {
		return 0
	}
	return *o.CardioTrialTestLimit
}

// Verification is the outcome of a credential check.
type Verification struct {
	Organization *Organization `json:"organization,omitempty"`
	Message      string        `json:"message,omitempty"`
	Success      bool          `json:"success"`
}
