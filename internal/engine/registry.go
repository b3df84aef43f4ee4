package engine

import (
	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/business"
	"github.com/idleworks/tycoon/internal/platform/identifier"
)

// Registry owns the authoritative business records of a session.
// Iteration order is catalog order. Only the engine goroutine touches it.
type Registry struct {
	businesses []*business.Business
	names      []business.NameData
}

// NewRegistry creates one business per catalog entry, owned by ownerID.
func NewRegistry(catalog []business.Data, names []business.NameData, ids identifier.Service, ownerID int) (*Registry, error) {
	if len(names) < len(catalog) {
		return nil, errors.Wrapf(business.ErrCatalogMismatch, "%d businesses, %d names", len(catalog), len(names))
	}

	r := &Registry{
		businesses: make([]*business.Business, 0, len(catalog)),
		names:      names[:len(catalog)],
	}
	for i, data := range catalog {
		r.businesses = append(r.businesses, business.New(i, ids.Next(), ownerID, data, names[i]))
	}
	return r, nil
}

// Get returns the business with slot id, or nil. Businesses are few, so
// this is a linear scan.
func (r *Registry) Get(id int) *business.Business {
	for _, b := range r.businesses {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// All returns every business in catalog order.
func (r *Registry) All() []*business.Business {
	return r.businesses
}

// Len returns the number of businesses.
func (r *Registry) Len() int {
	return len(r.businesses)
}

// Names returns the display-name entry of business id.
func (r *Registry) Names(id int) business.NameData {
	if id < 0 || id >= len(r.names) {
		return business.NameData{}
	}
	return r.names[id]
}

// Reset recreates every business from its catalog entry, keeping the
// entity and owner ids.
func (r *Registry) Reset() {
	for i, b := range r.businesses {
		r.businesses[i] = business.New(i, b.EntityID, b.OwnerID, b.Data(), r.names[i])
	}
}
