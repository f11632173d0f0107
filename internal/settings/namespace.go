package settings

import (
	"maps"
	"slices"

	"jedisim/internal/services"
)

// Namespace is an immutable mapping of settings keys to string values.
type Namespace struct {
	values map[string]string
}

// Get returns the value stored under key.
func (n Namespace) Get(key string) (string, bool) {
	v, ok := n.values[key]
	return v, ok
}

// Require returns the value stored under key or an ErrMissingKey error.
func (n Namespace) Require(key string) (string, error) {
	v, ok := n.values[key]
	if !ok {
		return "", services.Wrap(services.ErrMissingKey, "settings", "lookup", key, nil)
	}
	return v, nil
}

// Keys returns every key in sorted order.
func (n Namespace) Keys() []string {
	return slices.Sorted(maps.Keys(n.values))
}

// Len reports the number of keys.
func (n Namespace) Len() int {
	return len(n.values)
}

// Map returns a copy of the underlying values.
func (n Namespace) Map() map[string]string {
	if n.values == nil {
		return map[string]string{}
	}
	return maps.Clone(n.values)
}
