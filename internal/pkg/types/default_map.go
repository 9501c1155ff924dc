package types

// DefaultMap is a generic map wrapper that returns default values for missing keys.
//
// It is useful when you want to avoid key existence checks and automatically
// initialize map entries with default values provided by a user-defined function.
//
// Example use case:
//
//	m := NewDefaultMap[string](func() int { return 0 })
//	count := m.Get("key") // returns 0 if "key" is not yet in the map
type DefaultMap[K comparable, V any] struct {
	data        map[K]V  // underlying map storing the key-value pairs
	defaultFunc func() V // function used to generate default values for missing keys
}

// NewDefaultMap creates a new DefaultMap with a user-defined default function.
func NewDefaultMap[K comparable, V any](defaultFunc func() V) DefaultMap[K, V] {
	return DefaultMap[K, V]{
		data:        make(map[K]V),
		defaultFunc: defaultFunc,
	}
}

// Get retrieves the value associated with the given key.
//
// If the key is not present, it invokes the defaultFunc to generate a default value,
// stores it in the map, and then returns it.
func (d *DefaultMap[K, V]) Get(key K) V {
	val, ok := d.data[key]
	if ok {
		return val
	}

	val = d.defaultFunc()
	d.data[key] = val
	return val
}

// Set stores the given value under the given key, replacing any existing entry.
func (d *DefaultMap[K, V]) Set(key K, value V) {
	d.data[key] = value
}

// ToMap returns the underlying map. The returned map is the live backing
// store, not a copy; callers should treat it as read-only once exposed.
func (d *DefaultMap[K, V]) ToMap() map[K]V {
	return d.data
}
