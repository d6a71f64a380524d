// Package entities provides core domain entities for the SDK.
// These are the value types shared by the entitlement client, the policy,
// the embed controller and the host-facing facade. None of them hold
// behaviour beyond small derived accessors.
package entities
