package platform

import (
	"fmt"
)

// Registry holds the active adapters in configuration order. The order
// matters: the resolver dispatches a URL to the first adapter that
// recognizes it.
type Registry struct {
	client   *Client
	order    []string
	adapters map[string]API
}

// NewRegistry creates an empty registry around the shared HTTP client.
func NewRegistry(client *Client) *Registry {
	return &Registry{
		client:   client,
		adapters: make(map[string]API),
	}
}

// Register appends an adapter. Registering the same name twice is a wiring
// bug and fails loudly.
func (r *Registry) Register(api API) error {
	name := api.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("platform %q registered twice", name)
	}
	r.order = append(r.order, name)
	r.adapters[name] = api
	return nil
}

// Client returns the shared HTTP client.
func (r *Registry) Client() *Client {
	return r.client
}

// Get returns the adapter registered under name, or nil.
func (r *Registry) Get(name string) API {
	return r.adapters[name]
}

// Names returns the platform names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns the adapters in configuration order.
func (r *Registry) All() []API {
	apis := make([]API, 0, len(r.order))
	for _, name := range r.order {
		apis = append(apis, r.adapters[name])
	}
	return apis
}

// OAuth returns the OAuth-capable adapters in configuration order.
func (r *Registry) OAuth() []OAuthAPI {
	var apis []OAuthAPI
	for _, name := range r.order {
		if api, ok := r.adapters[name].(OAuthAPI); ok {
			apis = append(apis, api)
		}
	}
	return apis
}

// PlaylistCapable returns the playlist-capable adapters in configuration
// order.
func (r *Registry) PlaylistCapable() []PlaylistAPI {
	var apis []PlaylistAPI
	for _, name := range r.order {
		if api, ok := r.adapters[name].(PlaylistAPI); ok {
			apis = append(apis, api)
		}
	}
	return apis
}
