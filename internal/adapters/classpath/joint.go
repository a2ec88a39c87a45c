// Package classpath answers inheritance queries from archives and class directories.
package classpath

import "go.trai.ch/anvil/internal/core/domain"

// Joint combines lookups in order. The first lookup that knows a class wins.
func Joint(lookups ...domain.ClassLookup) domain.ClassLookup {
	active := make([]domain.ClassLookup, 0, len(lookups))
	for _, l := range lookups {
		if l != nil {
			active = append(active, l)
		}
	}
	return func(name string) (domain.ClassInfo, bool) {
		for _, l := range active {
			if info, ok := l(name); ok {
				return info, true
			}
		}
		return domain.ClassInfo{}, false
	}
}
