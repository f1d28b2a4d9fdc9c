package runtime

// ObjectValue is an insertion-ordered key to value mapping with O(1) lookup
// through an auxiliary index. JS object iteration order is insertion order;
// integer-like key reordering is deliberately not modeled.
type ObjectValue struct {
	keys    []string
	index   map[string]int
	vals    []*Value
	Frozen  bool
	Class   *ClassValue            // set for class instances
	Internal map[string]interface{} // internal slots (event flags etc.)
}

// NewObjectValue returns an empty ordered object.
func NewObjectValue() *ObjectValue {
	return &ObjectValue{index: make(map[string]int)}
}

// Get returns the value for key and whether it exists.
func (o *ObjectValue) Get(key string) (*Value, bool) {
	if i, ok := o.index[key]; ok {
		return o.vals[i], true
	}
	return Undefined, false
}

// Set inserts or updates key. Inserts are appended to the iteration order.
// Writes to a frozen object are silently dropped, matching non-strict JS.
func (o *ObjectValue) Set(key string, val *Value) {
	if o.Frozen {
		return
	}
	if i, ok := o.index[key]; ok {
		o.vals[i] = val
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, val)
}

// Delete removes key, preserving the order of the surviving keys.
func (o *ObjectValue) Delete(key string) bool {
	i, ok := o.index[key]
	if !ok || o.Frozen {
		return ok
	}
	o.keys = append(o.keys[:i], o.keys[i+1:]...)
	o.vals = append(o.vals[:i], o.vals[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.keys); j++ {
		o.index[o.keys[j]] = j
	}
	return true
}

// Has reports whether key is present.
func (o *ObjectValue) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not mutate it.
func (o *ObjectValue) Keys() []string { return o.keys }

// Len returns the number of own keys.
func (o *ObjectValue) Len() int { return len(o.keys) }

// SetInternal records an internal slot value.
func (o *ObjectValue) SetInternal(key string, v interface{}) {
	if o.Internal == nil {
		o.Internal = make(map[string]interface{})
	}
	o.Internal[key] = v
}

// GetInternal reads an internal slot value.
func (o *ObjectValue) GetInternal(key string) (interface{}, bool) {
	if o.Internal == nil {
		return nil, false
	}
	v, ok := o.Internal[key]
	return v, ok
}
