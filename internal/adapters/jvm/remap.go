package jvm

import (
	"encoding/binary"
	"errors"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	lambdaMetafactory = "java/lang/invoke/LambdaMetafactory"
	classFileSuffix   = ".class"
)

// Mapper supplies the renames applied by RemapClass.
// *domain.MappingTable satisfies it.
type Mapper interface {
	ClassMapper
	MapField(owner, name string) string
	MapMethod(owner, name, desc string) string
	MapDescriptor(desc string) string
}

// RemapClass rewrites a class file through m. It returns the encoded class and its mapped internal name.
//
// Existing constants are never modified in place because a single Utf8 or NameAndType entry
// may be shared by references that map differently. Rewritten references point at new
// constants appended to the pool instead.
func RemapClass(data []byte, m Mapper) ([]byte, string, error) {
	out, owner, err := remapClass(data, m)
	if err != nil {
		return nil, "", err
	}
	return out, m.MapClass(owner), nil
}

// RemapEntry rewrites the class stored under the archive entry name and returns the encoded
// class with its new entry name. A directory prefix in front of the class's own path, such
// as META-INF/versions/9/, is kept.
func RemapEntry(entry string, data []byte, m Mapper) ([]byte, string, error) {
	out, owner, err := remapClass(data, m)
	if err != nil {
		return nil, "", err
	}
	prefix, ok := strings.CutSuffix(entry, owner+classFileSuffix)
	if !ok || (prefix != "" && !strings.HasSuffix(prefix, "/")) {
		prefix = ""
	}
	return out, prefix + m.MapClass(owner) + classFileSuffix, nil
}

func remapClass(data []byte, m Mapper) ([]byte, string, error) {
	cf, err := Decode(data)
	if err != nil {
		return nil, "", err
	}

	r := &classRemapper{
		cf:          cf,
		m:           m,
		owner:       cf.Name(),
		classNames:  make(map[uint16]string),
		methodTypes: make(map[uint16]string),
	}
	if err := r.remap(); err != nil {
		return nil, "", zerr.With(err, "class", r.owner)
	}

	out, err := cf.Encode()
	if err != nil {
		return nil, "", zerr.With(err, "class", r.owner)
	}
	return out, r.owner, nil
}

type bootstrap struct {
	ref  uint16
	args []uint16
}

type classRemapper struct {
	cf    *ClassFile
	m     Mapper
	owner string

	classNames  map[uint16]string
	methodTypes map[uint16]string
	bootstraps  []bootstrap
}

func (r *classRemapper) remap() error {
	cf := r.cf
	size := len(cf.Pool)

	for i := 1; i < size; i++ {
		switch c := cf.Pool[i]; c.Tag {
		case TagClass:
			r.classNames[uint16(i)] = cf.Utf8(c.A)
		case TagMethodType:
			r.methodTypes[uint16(i)] = cf.Utf8(c.A)
		}
	}
	if attr, ok := cf.FindAttribute(cf.Attributes, "BootstrapMethods"); ok {
		if err := r.readBootstraps(attr.Info); err != nil {
			return err
		}
	}

	for i := 1; i < size; i++ {
		c := cf.Pool[i]
		switch {
		case c.Tag == TagClass:
			name := r.classNames[uint16(i)]
			if mapped := r.mapClassRef(name); mapped != name {
				cf.Pool[i].A = cf.AddUtf8(mapped)
			}
		case c.Tag == TagMethodType:
			desc := r.methodTypes[uint16(i)]
			if mapped := r.m.MapDescriptor(desc); mapped != desc {
				cf.Pool[i].A = cf.AddUtf8(mapped)
			}
		case c.isMemberRef():
			owner := r.classNames[c.A]
			if idx, ok := r.remapNameAndType(c.B, func(name, desc string) string {
				if c.Tag == TagFieldref {
					return r.m.MapField(owner, name)
				}
				return r.m.MapMethod(owner, name, desc)
			}); ok {
				cf.Pool[i].B = idx
			}
		case c.Tag == TagInvokeDynamic:
			if idx, ok := r.remapNameAndType(c.B, func(name, desc string) string {
				return r.lambdaName(c.A, name, desc)
			}); ok {
				cf.Pool[i].B = idx
			}
		case c.Tag == TagDynamic:
			if idx, ok := r.remapNameAndType(c.B, func(name, _ string) string { return name }); ok {
				cf.Pool[i].B = idx
			}
		}
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		name, desc := cf.Utf8(f.NameIndex), cf.Utf8(f.DescIndex)
		r.rename(&f.NameIndex, name, r.m.MapField(r.owner, name))
		r.rename(&f.DescIndex, desc, r.m.MapDescriptor(desc))
		if err := r.attributes(f.Attributes); err != nil {
			return err
		}
	}
	for i := range cf.Methods {
		meth := &cf.Methods[i]
		name, desc := cf.Utf8(meth.NameIndex), cf.Utf8(meth.DescIndex)
		r.rename(&meth.NameIndex, name, r.m.MapMethod(r.owner, name, desc))
		r.rename(&meth.DescIndex, desc, r.m.MapDescriptor(desc))
		if err := r.attributes(meth.Attributes); err != nil {
			return err
		}
	}
	return r.attributes(cf.Attributes)
}

func (r *classRemapper) rename(index *uint16, from, to string) {
	if from != to {
		*index = r.cf.AddUtf8(to)
	}
}

// mapClassRef maps a Class constant, which names either a class or an array descriptor.
func (r *classRemapper) mapClassRef(name string) string {
	if strings.HasPrefix(name, "[") {
		return r.m.MapDescriptor(name)
	}
	return r.m.MapClass(name)
}

// remapNameAndType returns a NameAndType index carrying the mapped name and descriptor,
// or false when nothing changes.
func (r *classRemapper) remapNameAndType(index uint16, mapName func(name, desc string) string) (uint16, bool) {
	if int(index) >= len(r.cf.Pool) || r.cf.Pool[index].Tag != TagNameAndType {
		return 0, false
	}
	nat := r.cf.Pool[index]
	name, desc := r.cf.Utf8(nat.A), r.cf.Utf8(nat.B)
	newName, newDesc := mapName(name, desc), r.m.MapDescriptor(desc)
	if newName == name && newDesc == desc {
		return 0, false
	}
	return r.cf.AddNameAndType(newName, newDesc), true
}

// lambdaName maps the interface method name of a LambdaMetafactory call site.
// The implemented interface is the call site's return type and the erased method
// descriptor is the first bootstrap argument.
func (r *classRemapper) lambdaName(bsm uint16, name, desc string) string {
	if int(bsm) >= len(r.bootstraps) {
		return name
	}
	b := r.bootstraps[bsm]
	if !r.isLambdaMetafactory(b.ref) || len(b.args) == 0 {
		return name
	}
	samDesc, ok := r.methodTypes[b.args[0]]
	if !ok {
		return name
	}
	ret := desc[strings.LastIndexByte(desc, ')')+1:]
	if !strings.HasPrefix(ret, "L") || !strings.HasSuffix(ret, ";") {
		return name
	}
	return r.m.MapMethod(ret[1:len(ret)-1], name, samDesc)
}

func (r *classRemapper) isLambdaMetafactory(handle uint16) bool {
	pool := r.cf.Pool
	if int(handle) >= len(pool) || pool[handle].Tag != TagMethodHandle {
		return false
	}
	ref := pool[handle].A
	if int(ref) >= len(pool) || !pool[ref].isMemberRef() {
		return false
	}
	return r.classNames[pool[ref].A] == lambdaMetafactory
}

func (r *classRemapper) readBootstraps(info []byte) error {
	c := &cursor{b: info}
	n := int(c.u2())
	for i := 0; i < n && c.err == nil; i++ {
		b := bootstrap{ref: c.u2()}
		b.args = make([]uint16, c.u2())
		for j := range b.args {
			b.args[j] = c.u2()
		}
		r.bootstraps = append(r.bootstraps, b)
	}
	return c.check("BootstrapMethods")
}

func (r *classRemapper) attributes(attrs []Attribute) error {
	for _, a := range attrs {
		if err := r.attribute(r.cf.AttributeName(a), a.Info); err != nil {
			return err
		}
	}
	return nil
}

func (r *classRemapper) attribute(name string, info []byte) error {
	c := &cursor{b: info}
	switch name {
	case "Signature":
		r.patchUtf8(c, func(sig string) string { return RemapSignature(r.m, sig) })
	case "InnerClasses":
		n := int(c.u2())
		for i := 0; i < n && c.err == nil; i++ {
			inner := c.u2()
			c.skip(2)
			r.innerName(c, r.classNames[inner])
			c.skip(2)
		}
	case "EnclosingMethod":
		owner := r.classNames[c.u2()]
		at := c.pos
		if nat := c.u2(); nat != 0 && c.err == nil {
			if idx, ok := r.remapNameAndType(nat, func(name, desc string) string {
				return r.m.MapMethod(owner, name, desc)
			}); ok {
				binary.BigEndian.PutUint16(c.b[at:], idx)
			}
		}
	case "Code":
		c.skip(4)
		c.skip(int(c.u4()))
		c.skip(8 * int(c.u2()))
		r.nestedAttributes(c)
	case "LocalVariableTable", "LocalVariableTypeTable":
		mapDesc := r.m.MapDescriptor
		if name == "LocalVariableTypeTable" {
			mapDesc = func(sig string) string { return RemapSignature(r.m, sig) }
		}
		n := int(c.u2())
		for i := 0; i < n && c.err == nil; i++ {
			c.skip(6)
			r.patchUtf8(c, mapDesc)
			c.skip(2)
		}
	case "Record":
		n := int(c.u2())
		for i := 0; i < n && c.err == nil; i++ {
			r.patchUtf8(c, func(field string) string { return r.m.MapField(r.owner, field) })
			r.patchUtf8(c, r.m.MapDescriptor)
			r.nestedAttributes(c)
		}
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		n := int(c.u2())
		for i := 0; i < n && c.err == nil; i++ {
			r.annotation(c)
		}
	case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
		params := int(c.u1())
		for p := 0; p < params && c.err == nil; p++ {
			n := int(c.u2())
			for i := 0; i < n && c.err == nil; i++ {
				r.annotation(c)
			}
		}
	case "AnnotationDefault":
		r.elementValue(c)
	default:
		return nil
	}
	return c.check(name)
}

func (r *classRemapper) nestedAttributes(c *cursor) {
	n := int(c.u2())
	for i := 0; i < n && c.err == nil; i++ {
		name := r.cf.Utf8(c.u2())
		length := int(c.u4())
		start := c.pos
		c.skip(length)
		if c.err != nil {
			return
		}
		if err := r.attribute(name, c.b[start:start+length]); err != nil {
			c.err = err
		}
	}
}

func (r *classRemapper) innerName(c *cursor, inner string) {
	at := c.pos
	idx := c.u2()
	if idx == 0 || inner == "" || c.err != nil {
		return
	}
	mapped := r.m.MapClass(inner)
	if mapped == inner {
		return
	}
	simple := mapped[strings.LastIndexAny(mapped, "$/")+1:]
	if simple != r.cf.Utf8(idx) {
		binary.BigEndian.PutUint16(c.b[at:], r.cf.AddUtf8(simple))
	}
}

func (r *classRemapper) annotation(c *cursor) {
	r.patchUtf8(c, r.m.MapDescriptor)
	pairs := int(c.u2())
	for i := 0; i < pairs && c.err == nil; i++ {
		c.skip(2)
		r.elementValue(c)
	}
}

func (r *classRemapper) elementValue(c *cursor) {
	switch tag := c.u1(); tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		c.skip(2)
	case 'e':
		enumDesc := r.cf.Utf8(c.peek2())
		r.patchUtf8(c, r.m.MapDescriptor)
		if strings.HasPrefix(enumDesc, "L") && strings.HasSuffix(enumDesc, ";") {
			owner := enumDesc[1 : len(enumDesc)-1]
			r.patchUtf8(c, func(constant string) string { return r.m.MapField(owner, constant) })
		} else {
			c.skip(2)
		}
	case 'c':
		r.patchUtf8(c, r.m.MapDescriptor)
	case '@':
		r.annotation(c)
	case '[':
		n := int(c.u2())
		for i := 0; i < n && c.err == nil; i++ {
			r.elementValue(c)
		}
	default:
		if c.err == nil {
			c.err = zerr.With(zerr.Wrap(domain.ErrClassFormat, "unknown element value tag"), "tag", string(rune(tag)))
		}
	}
}

// patchUtf8 reads a Utf8 index at the cursor and points it at the mapped string when it changes.
func (r *classRemapper) patchUtf8(c *cursor, mapString func(string) string) {
	at := c.pos
	idx := c.u2()
	if c.err != nil || idx == 0 {
		return
	}
	value := r.cf.Utf8(idx)
	if mapped := mapString(value); mapped != value {
		binary.BigEndian.PutUint16(c.b[at:], r.cf.AddUtf8(mapped))
	}
}

// cursor walks attribute bytes in place.
type cursor struct {
	b   []byte
	pos int
	err error
}

func (c *cursor) skip(n int) {
	if c.err != nil {
		return
	}
	if n < 0 || c.pos+n > len(c.b) {
		c.err = errTruncated
		return
	}
	c.pos += n
}

func (c *cursor) u1() uint8 {
	at := c.pos
	c.skip(1)
	if c.err != nil {
		return 0
	}
	return c.b[at]
}

func (c *cursor) u2() uint16 {
	at := c.pos
	c.skip(2)
	if c.err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(c.b[at:])
}

func (c *cursor) u4() uint32 {
	at := c.pos
	c.skip(4)
	if c.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(c.b[at:])
}

func (c *cursor) peek2() uint16 {
	if c.err != nil || c.pos+2 > len(c.b) {
		return 0
	}
	return binary.BigEndian.Uint16(c.b[c.pos:])
}

func (c *cursor) check(attribute string) error {
	if c.err == nil {
		return nil
	}
	if errors.Is(c.err, domain.ErrClassFormat) {
		return c.err
	}
	return zerr.With(zerr.Wrap(domain.ErrClassFormat, c.err.Error()), "attribute", attribute)
}
