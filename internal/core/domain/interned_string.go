package domain

import "unique"

// InternedString is an interned internal class name. Hierarchy records of a large
// classpath repeat the same super and interface names many times.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// NewInternedStrings interns every string in strs.
func NewInternedStrings(strs []string) []InternedString {
	res := make([]InternedString, len(strs))
	for i, s := range strs {
		res[i] = NewInternedString(s)
	}
	return res
}

// String returns the name, or "" for the zero value.
func (is InternedString) String() string {
	if is.IsZero() {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether is was never set. java/lang/Object has a zero super.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}
