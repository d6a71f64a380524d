package entities

import "strings"

const (
	// ProductCardio is the product type of the cardio test.
	ProductCardio = "cardio"

	// SubscriptionStatusActive marks a subscription in good standing.
	SubscriptionStatusActive = "active"
)

// Subscription is one product subscription of an organization.
type Subscription struct {
	ProductType        string `json:"productType"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

// Active reports whether the subscription is in good standing.
func (s Subscription) Active() bool {
	return strings.EqualFold(s.SubscriptionStatus, SubscriptionStatusActive)
}

// SubscriptionList is an unordered set of subscriptions.
type SubscriptionList []Subscription

// HasActive reports whether any subscription for product is active.
func (l SubscriptionList) HasActive(product string) bool {
	for _, s := range l {
		if strings.EqualFold(s.ProductType, product) && s.Active() {
			return true
		}
	}
	return false
}
