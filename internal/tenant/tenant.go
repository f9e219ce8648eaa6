// Package tenant holds the static registry of client accounts the
// dashboard aggregates metrics for.
package tenant

// Tenant is one configured client account with its own upstream API
// credential. Tenants are fixed for the process lifetime.
type Tenant struct {
	ID         string
	Name       string
	Credential string
	Color      string
}

// Active reports whether the tenant has a credential configured and can
// be queried upstream.
func (t Tenant) Active() bool {
	return t.Credential != ""
}

// Registry is an immutable set of tenants built once at startup.
type Registry struct {
	tenants []Tenant
}

// NewRegistry creates a registry from the configured tenant list. The
// slice is copied; later mutation of the argument does not affect the
// registry.
func NewRegistry(tenants []Tenant) *Registry {
	cp := make([]Tenant, len(tenants))
	copy(cp, tenants)
	return &Registry{tenants: cp}
}

// All returns every configured tenant in configuration order.
func (r *Registry) All() []Tenant {
	return r.tenants
}

// Active returns the tenants with a non-empty credential, preserving
// configuration order.
func (r *Registry) Active() []Tenant {
	var active []Tenant
	for _, t := range r.tenants {
		if t.Active() {
			active = append(active, t)
		}
	}
	return active
}

// ByID looks up a tenant by its identifier.
func (r *Registry) ByID(id string) (Tenant, bool) {
	for _, t := range r.tenants {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}
