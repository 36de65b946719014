package forms

// Pair is one resolved form field.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KeyValues is an insertion-ordered mapping from key text to value text.
// Setting an existing key replaces its value in place.
type KeyValues struct {
	order []string
	items map[string]string
}

// NewKeyValues returns an empty mapping.
func NewKeyValues() *KeyValues {
	return &KeyValues{items: make(map[string]string)}
}

// Set stores value under key.
func (kv *KeyValues) Set(key, value string) {
	if _, ok := kv.items[key]; !ok {
		kv.order = append(kv.order, key)
	}
	kv.items[key] = value
}

// Get returns the value stored under key.
func (kv *KeyValues) Get(key string) (string, bool) {
	v, ok := kv.items[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (kv *KeyValues) Len() int {
	return len(kv.order)
}

// Keys returns the keys in insertion order.
func (kv *KeyValues) Keys() []string {
	out := make([]string, len(kv.order))
	copy(out, kv.order)
	return out
}

// Pairs returns all entries in insertion order.
func (kv *KeyValues) Pairs() []Pair {
	out := make([]Pair, 0, len(kv.order))
	for _, k := range kv.order {
		out = append(out, Pair{Key: k, Value: kv.items[k]})
	}
	return out
}

// Map returns a copy of the entries as a plain map.
func (kv *KeyValues) Map() map[string]string {
	out := make(map[string]string, len(kv.items))
	for k, v := range kv.items {
		out[k] = v
	}
	return out
}
