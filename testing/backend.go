// Package sdktest provides test doubles for the SDK: an in-memory page
// (Window) and a fake iSelfieTest backend.
package sdktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/iselfietest/cardio-sdk/domain/entities"
)

// Route names accepted by Backend.FailRoute and Backend.Hits.
const (
	RouteVerify        = "verify"
	RouteOrgStatus     = "orgStatus"
	RouteSubscriptions = "subscriptions"
)

// Backend is an in-process fake of the entitlement API.
type Backend struct {
	mu            sync.Mutex
	orgs          map[string]*entities.Organization // API key -> organization
	tokens        map[string]string                 // access token -> organization id
	statuses      map[string]*entities.OrgStatus
	subscriptions map[string]entities.SubscriptionList
	failures      map[string]int
	rejected      map[string]bool
	hits          map[string]int
	lastHeaders   map[string]http.Header
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		orgs:          make(map[string]*entities.Organization),
		tokens:        make(map[string]string),
		statuses:      make(map[string]*entities.OrgStatus),
		subscriptions: make(map[string]entities.SubscriptionList),
		failures:      make(map[string]int),
		rejected:      make(map[string]bool),
		hits:          make(map[string]int),
		lastHeaders:   make(map[string]http.Header),
	}
}

// AddAPIKey registers key for org.
func (b *Backend) AddAPIKey(key string, org entities.Organization) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orgs[key] = &org
}

// AddAccessToken registers an access token for a previously added organization.
func (b *Backend) AddAccessToken(token, organizationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = organizationID
}

// SetStatus sets the org status returned for organizationID.
func (b *Backend) SetStatus(organizationID string, status entities.OrgStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[organizationID] = &status
}

// SetSubscriptions sets the subscriptions returned for organizationID.
func (b *Backend) SetSubscriptions(organizationID string, subs entities.SubscriptionList) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[organizationID] = subs
}

// FailRoute makes route answer with status until cleared with status 0.
func (b *Backend) FailRoute(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// RejectDomain makes verification refuse requests from origin.
func (b *Backend) RejectDomain(origin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected[origin] = true
}

// Hits returns how many requests route has served.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// LastHeaders returns the headers of the latest request to route.
func (b *Backend) LastHeaders(route string) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHeaders[route].Clone()
}

// Router returns the chi router serving the backend API.
func (b *Backend) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/sdk/verify", b.handleVerifyKey)
	r.Get("/sdk/central/verify", b.handleVerifyKey)
	r.Post("/sdk/central/access-token/verify", b.handleVerifyToken)
	r.Post("/sdk/orgStatus", b.handleOrgStatus)
	r.Post("/sdk/central/orgStatus", b.handleOrgStatus)
	r.Get("/subscription/sdk/{orgID}/list", b.handleSubscriptions)
	r.Get("/subscription/sdk/central/{orgID}/list", b.handleSubscriptions)
	return r
}

// Start serves the backend on an httptest server closed at test cleanup
// and returns its base URL.
func (b *Backend) Start(t testing.TB) string {
	t.Helper()
	server := httptest.NewServer(b.Router())
	t.Cleanup(server.Close)
	return server.URL
}

type verifyBody struct {
	Organization *entities.Organization `json:"organization,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Success      bool                   `json:"success"`
}

// enter records the hit and reports an injected failure, if any.
func (b *Backend) enter(route string, r *http.Request) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[route]++
	b.lastHeaders[route] = r.Header.Clone()
	return b.failures[route]
}

func (b *Backend) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	if status := b.enter(RouteVerify, r); status != 0 {
		fail(w, r, status)
		return
	}
	b.mu.Lock()
	org, ok := b.orgs[r.Header.Get("X-Api-Key")]
	rejected := b.rejected[r.Header.Get("X-Sdk-Domain")]
	b.mu.Unlock()

	switch {
	case !ok:
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, verifyBody{Message: "Invalid API Key"})
	case rejected:
		render.JSON(w, r, verifyBody{Message: "Domain is not allowed for this API key"})
	default:
		render.JSON(w, r, verifyBody{Success: true, Organization: org})
	}
}

func (b *Backend) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if status := b.enter(RouteVerify, r); status != 0 {
		fail(w, r, status)
		return
	}
	var body struct {
		AccessToken    string `json:"access_token"`
		OrganizationID string `json:"organizationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, verifyBody{Message: "invalid request body"})
		return
	}

	b.mu.Lock()
	orgID, ok := b.tokens[body.AccessToken]
	var org *entities.Organization
	for _, o := range b.orgs {
		if o.ID == orgID {
			org = o
		}
	}
	b.mu.Unlock()

	if !ok || orgID != body.OrganizationID || org == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, verifyBody{Message: "Invalid access token"})
		return
	}
	render.JSON(w, r, verifyBody{Success: true, Organization: org})
}

func (b *Backend) handleOrgStatus(w http.ResponseWriter, r *http.Request) {
	if status := b.enter(RouteOrgStatus, r); status != 0 {
		fail(w, r, status)
		return
	}
	var body struct {
		OrganizationID string `json:"organizationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, r, http.StatusBadRequest)
		return
	}
	if !b.authorized(r, body.OrganizationID) {
		fail(w, r, http.StatusUnauthorized)
		return
	}

	b.mu.Lock()
	status, ok := b.statuses[body.OrganizationID]
	b.mu.Unlock()
	if !ok {
		fail(w, r, http.StatusNotFound)
		return
	}
	render.JSON(w, r, map[string]any{"data": status})
}

func (b *Backend) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if status := b.enter(RouteSubscriptions, r); status != 0 {
		fail(w, r, status)
		return
	}
	orgID := chi.URLParam(r, "orgID")
	if !b.authorized(r, orgID) {
		fail(w, r, http.StatusUnauthorized)
		return
	}

	b.mu.Lock()
	subs := b.subscriptions[orgID]
	b.mu.Unlock()
	if subs == nil {
		subs = entities.SubscriptionList{}
	}
	render.JSON(w, r, map[string]any{"subscriptions": subs})
}

func (b *Backend) authorized(r *http.Request, orgID string) bool {
	key := r.Header.Get("X-Api-Key")
	b.mu.Lock()
	defer b.mu.Unlock()
	if org, ok := b.orgs[key]; ok && org.ID == orgID {
		return true
	}
	return b.tokens[key] == orgID && orgID != ""
}

func fail(w http.ResponseWriter, r *http.Request, status int) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"success": false, "message": http.StatusText(status)})
}
