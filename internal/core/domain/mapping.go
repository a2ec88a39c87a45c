package domain

import (
	"strings"
	"sync"
)

// ClassInfo is the inheritance-relevant header of a class.
type ClassInfo struct {
	Name       InternedString
	Super      InternedString
	Interfaces []InternedString
}

// ClassLookup resolves a class by internal name (e.g. "net/minecraft/A").
type ClassLookup func(name string) (ClassInfo, bool)

type fieldKey struct {
	owner string
	name  string
}

type methodKey struct {
	owner string
	name  string
	desc  string
}

// MappingTable holds class, field and method renames keyed by their original names.
// Members not mapped on their owner are resolved through the owner's ancestors
// using the installed inheritance resolver.
type MappingTable struct {
	classes  map[string]string
	packages map[string]string
	fields   map[fieldKey]string
	methods  map[methodKey]string

	mu        sync.Mutex
	ancestors ClassLookup
	memo      map[methodKey]string
}

// NewMappingTable creates an empty MappingTable.
func NewMappingTable() *MappingTable {
	return &MappingTable{
		classes:  make(map[string]string),
		packages: make(map[string]string),
		fields:   make(map[fieldKey]string),
		methods:  make(map[methodKey]string),
		memo:     make(map[methodKey]string),
	}
}

// AddClass maps an internal class name.
func (t *MappingTable) AddClass(from, to string) {
	t.classes[from] = to
}

// AddPackage maps a package (slash separated, without trailing slash). The empty name is the default package.
func (t *MappingTable) AddPackage(from, to string) {
	t.packages[from] = to
}

// AddField maps a field declared on owner.
func (t *MappingTable) AddField(owner, name, to string) {
	t.fields[fieldKey{owner: owner, name: name}] = to
}

// AddMethod maps a method declared on owner with the given descriptor.
func (t *MappingTable) AddMethod(owner, name, desc, to string) {
	t.methods[methodKey{owner: owner, name: name, desc: desc}] = to
}

// ClassCount returns the number of class mappings.
func (t *MappingTable) ClassCount() int {
	return len(t.classes)
}

// HasClass reports whether name has an explicit class mapping.
func (t *MappingTable) HasClass(name string) bool {
	_, ok := t.classes[name]
	return ok
}

// SetInheritanceResolver installs the lookup used to walk superclass and interface chains.
// It must be set before remapping starts.
func (t *MappingTable) SetInheritanceResolver(lookup ClassLookup) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ancestors = lookup
	clear(t.memo)
}

// MapClass returns the mapped internal name of a class.
// Unmapped inner classes follow their mapped outer class; otherwise package mappings apply.
func (t *MappingTable) MapClass(name string) string {
	if mapped, ok := t.classes[name]; ok {
		return mapped
	}
	if idx := strings.LastIndexByte(name, '$'); idx > 0 {
		outer := t.MapClass(name[:idx])
		if outer != name[:idx] {
			return outer + name[idx:]
		}
	}
	idx := strings.LastIndexByte(name, '/')
	if pkg, ok := t.packages[name[:max(idx, 0)]]; ok {
		if pkg == "" || pkg == "." {
			return name[idx+1:]
		}
		return pkg + "/" + name[idx+1:]
	}
	return name
}

// MapField returns the mapped name of a field referenced through owner.
func (t *MappingTable) MapField(owner, name string) string {
	if mapped, ok := t.fields[fieldKey{owner: owner, name: name}]; ok {
		return mapped
	}
	found := t.walkAncestors(owner, func(ancestor string) (string, bool) {
		mapped, ok := t.fields[fieldKey{owner: ancestor, name: name}]
		return mapped, ok
	})
	if found != "" {
		return found
	}
	return name
}

// MapMethod returns the mapped name of a method referenced through owner.
// Constructors and static initializers are never renamed.
func (t *MappingTable) MapMethod(owner, name, desc string) string {
	if strings.HasPrefix(name, "<") {
		return name
	}
	key := methodKey{owner: owner, name: name, desc: desc}
	if mapped, ok := t.methods[key]; ok {
		return mapped
	}

	t.mu.Lock()
	if mapped, ok := t.memo[key]; ok {
		t.mu.Unlock()
		return mapped
	}
	t.mu.Unlock()

	result := name
	found := t.walkAncestors(owner, func(ancestor string) (string, bool) {
		mapped, ok := t.methods[methodKey{owner: ancestor, name: name, desc: desc}]
		return mapped, ok
	})
	if found != "" {
		result = found
	}

	t.mu.Lock()
	t.memo[key] = result
	t.mu.Unlock()
	return result
}

// walkAncestors visits the ancestors of owner breadth first, superclass before interfaces,
// and returns the first non-empty match.
func (t *MappingTable) walkAncestors(owner string, match func(ancestor string) (string, bool)) string {
	t.mu.Lock()
	lookup := t.ancestors
	t.mu.Unlock()
	if lookup == nil {
		return ""
	}

	visited := map[string]bool{owner: true}
	queue := []string{owner}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		info, ok := lookup(current)
		if !ok {
			continue
		}

		parents := make([]string, 0, len(info.Interfaces)+1)
		if super := info.Super.String(); super != "" {
			parents = append(parents, super)
		}
		for _, iface := range info.Interfaces {
			parents = append(parents, iface.String())
		}

		for _, parent := range parents {
			if visited[parent] {
				continue
			}
			visited[parent] = true
			if mapped, ok := match(parent); ok {
				return mapped
			}
			queue = append(queue, parent)
		}
	}
	return ""
}

// MapDescriptor rewrites every class reference in a field or method descriptor.
func (t *MappingTable) MapDescriptor(desc string) string {
	if !strings.Contains(desc, "L") {
		return desc
	}
	var b strings.Builder
	b.Grow(len(desc))
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if c != 'L' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			b.WriteString(desc[i:])
			break
		}
		b.WriteByte('L')
		b.WriteString(t.MapClass(desc[i+1 : i+end]))
		b.WriteByte(';')
		i += end
	}
	return b.String()
}
