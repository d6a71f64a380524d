package ports

import (
	"context"

	"github.com/iselfietest/cardio-sdk/domain/entities"
)

// EntitlementService is the backend boundary used to resolve what an
// organization may do. Implementations do not retry.
type EntitlementService interface {
	// Verify checks the credentials and returns the organization they belong to.
	Verify(ctx context.Context, creds entities.Credentials) (*entities.Verification, error)

	// FetchOrgStatus returns the usage snapshot of the organization.
	FetchOrgStatus(ctx context.Context, creds entities.Credentials, organizationID string) (*entities.OrgStatus, error)

	// FetchSubscriptions returns the organization's product subscriptions.
	FetchSubscriptions(ctx context.Context, creds entities.Credentials, organizationID string) (entities.SubscriptionList, error)
}
