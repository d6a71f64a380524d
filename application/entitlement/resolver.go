package entitlement

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Snapshot is everything the policy needs, fetched in one pass.
type Snapshot struct {
	Organization  *entities.Organization
	Status        *entities.OrgStatus
	Subscriptions entities.SubscriptionList
}

// Resolver fetches a fresh Snapshot for a set of credentials.
type Resolver struct {
	service ports.EntitlementService
}

// NewResolver creates a Resolver over service.
func NewResolver(service ports.EntitlementService) *Resolver {
	return &Resolver{service: service}
}

// Resolve verifies creds and then fetches status and subscriptions
// concurrently. Nothing is cached between calls.
func (r *Resolver) Resolve(ctx context.Context, creds entities.Credentials) (*Snapshot, error) {
	verification, err := r.service.Verify(ctx, creds)
	if err != nil {
		return nil, err
	}
	if verification == nil || !verification.Success {
		msg := ""
		if verification != nil {
			msg = verification.Message
		}
		return nil, &sdkerrors.VerificationError{Kind: sdkerrors.InvalidCredentials, Message: msg}
	}

	org := verification.Organization
	if org == nil || org.ID == "" {
		return nil, &sdkerrors.PreconditionError{Operation: "resolve entitlement", Missing: "organization id"}
	}

	snapshot := &Snapshot{Organization: org}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := r.service.FetchOrgStatus(gctx, creds, org.ID)
		snapshot.Status = status
		return err
	})
	g.Go(func() error {
		subs, err := r.service.FetchSubscriptions(gctx, creds, org.ID)
		snapshot.Subscriptions = subs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
