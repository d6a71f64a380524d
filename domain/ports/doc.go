// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the entitlement client, the
// embed controller and the facade depend on abstractions, and the browser
// and net/http adapters implement them.
package ports
