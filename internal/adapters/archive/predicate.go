package archive

import "strings"

// ClassSuffix is the file extension of compiled class entries.
const ClassSuffix = ".class"

// Predicate decides whether a file entry is copied.
type Predicate func(name string) bool

// IsClass reports whether an entry name denotes a class file.
func IsClass(name string) bool {
	return strings.HasSuffix(name, ClassSuffix)
}

// RejectClasses keeps every entry that is not a class file.
func RejectClasses(name string) bool {
	return !IsClass(name)
}

// OnlyClasses keeps class files only.
func OnlyClasses(name string) bool {
	return IsClass(name)
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(name string) bool {
		return !p(name)
	}
}

// All keeps an entry only if every predicate keeps it.
func All(ps ...Predicate) Predicate {
	return func(name string) bool {
		for _, p := range ps {
			if !p(name) {
				return false
			}
		}
		return true
	}
}

// ClassName returns the internal class name of a class entry ("a/B.class" becomes "a/B").
func ClassName(entry string) string {
	return strings.TrimSuffix(entry, ClassSuffix)
}
