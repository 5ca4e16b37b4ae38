package interview

// Requirements maps requirement keys to recorded answers, preserving
// insertion order. Keys are topic names plus revision-note keys added during
// review cycles.
type Requirements struct {
	keys   []string
	values map[string]string
}

// NewRequirements creates an empty requirements map.
func NewRequirements() *Requirements {
	return &Requirements{values: make(map[string]string)}
}

// Set records an answer under key. Re-recording an existing key keeps its
// original position.
func (r *Requirements) Set(key, value string) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the answer recorded under key.
func (r *Requirements) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key has a recorded answer.
func (r *Requirements) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Requirements) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of recorded entries.
func (r *Requirements) Len() int { return len(r.keys) }

// Clone returns an independent copy.
func (r *Requirements) Clone() *Requirements {
	c := NewRequirements()
	for _, k := range r.keys {
		c.Set(k, r.values[k])
	}
	return c
}
