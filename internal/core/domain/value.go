package domain

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// KindInvalid is the zero Value.
	KindInvalid ValueKind = iota
	// KindString holds a plain string.
	KindString
	// KindNested holds a mapping of further values.
	KindNested
)

// Value is a node of the configuration data tree: either a string or a nested mapping.
type Value struct {
	kind   ValueKind
	str    string
	nested map[string]Value
}

// Str creates a string Value.
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Nested creates a mapping Value. A nil map is treated as empty.
func Nested(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindNested, nested: m}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// AsString returns the string held by v, if v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsMap returns the mapping held by v, if v is nested.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindNested {
		return nil, false
	}
	return v.nested, true
}

// Lookup walks path through nested mappings.
// It fails as soon as a key is absent or a string is reached before the path is consumed.
func (v Value) Lookup(path ...string) (Value, bool) {
	current := v
	for _, key := range path {
		m, ok := current.AsMap()
		if !ok {
			return Value{}, false
		}
		next, ok := m[key]
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}
