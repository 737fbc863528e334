package registry

import (
	"fmt"
	"slices"
)

// Registry maps each provider type to the single connector serving it.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	connectors map[ProviderType]Connector
	order      []ProviderType
}

// NewRegistry builds a registry from the complete set of connectors. Two
// connectors claiming the same provider type is a configuration error.
func NewRegistry(connectors ...Connector) (*Registry, error) {
	r := &Registry{
		connectors: make(map[ProviderType]Connector, len(connectors)),
		order:      make([]ProviderType, 0, len(connectors)),
	}
	for _, c := range connectors {
		if c == nil {
			return nil, fmt.Errorf("connector cannot be nil")
		}
		providerType, err := ParseProviderType(string(c.Type()))
		if err != nil {
			return nil, fmt.Errorf("register connector: %w", err)
		}
		if _, exists := r.connectors[providerType]; exists {
			return nil, fmt.Errorf("connector for provider %q already registered", providerType)
		}
		r.connectors[providerType] = c
		r.order = append(r.order, providerType)
	}
	return r, nil
}

// Get returns the connector registered for providerType.
func (r *Registry) Get(providerType ProviderType) (Connector, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProviderRegistered, providerType)
	}
	c, ok := r.connectors[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProviderRegistered, providerType)
	}
	return c, nil
}

// All returns the registered connectors in registration order.
func (r *Registry) All() []Connector {
	if r == nil {
		return nil
	}
	out := make([]Connector, 0, len(r.order))
	for _, providerType := range r.order {
		out = append(out, r.connectors[providerType])
	}
	return out
}

// Types returns the registered provider types, sorted.
func (r *Registry) Types() []ProviderType {
	if r == nil {
		return nil
	}
	out := slices.Clone(r.order)
	slices.Sort(out)
	return out
}
