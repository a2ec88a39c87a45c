// Package jvm decodes, rewrites and encodes JVM class files.
package jvm

import (
	"encoding/binary"
	"errors"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

const classMagic = 0xCAFEBABE

var errTruncated = errors.New("unexpected end of class file")

// Attribute is an undecoded attribute. Info is patched in place by the remapper.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Member is a field or method declaration.
type Member struct {
	Access     uint16
	NameIndex  uint16
	DescIndex  uint16
	Attributes []Attribute
}

// ClassFile is a decoded class file. Pool is indexed from 1; slot 0 is unused.
type ClassFile struct {
	Minor      uint16
	Major      uint16
	Pool       []Constant
	Access     uint16
	ThisClass  uint16
	SuperClass uint16
	Interfaces []uint16
	Fields     []Member
	Methods    []Member
	Attributes []Attribute

	utf8Index map[string]uint16
	natIndex  map[[2]uint16]uint16
	clsIndex  map[uint16]uint16
}

// NewClass creates an empty public class with the given name and superclass.
func NewClass(name, super string, interfaces ...string) *ClassFile {
	cf := &ClassFile{
		Major:  52,
		Pool:   []Constant{{}},
		Access: 0x0021,
	}
	cf.ThisClass = cf.AddClass(name)
	if super != "" {
		cf.SuperClass = cf.AddClass(super)
	}
	for _, iface := range interfaces {
		cf.Interfaces = append(cf.Interfaces, cf.AddClass(iface))
	}
	return cf
}

// Decode parses a class file.
func Decode(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}
	cf := &ClassFile{}

	if r.u4() != classMagic {
		if r.err != nil {
			return nil, zerr.Wrap(domain.ErrClassFormat, r.err.Error())
		}
		return nil, zerr.Wrap(domain.ErrClassFormat, "bad magic")
	}
	cf.Minor = r.u2()
	cf.Major = r.u2()

	count := int(r.u2())
	if count == 0 {
		return nil, zerr.Wrap(domain.ErrClassFormat, "empty constant pool")
	}
	cf.Pool = make([]Constant, count)
	for i := 1; i < count && r.err == nil; i++ {
		c := Constant{Tag: r.u1()}
		switch c.Tag {
		case TagUtf8:
			c.Bytes = r.bytes(int(r.u2()))
		case TagInteger, TagFloat:
			c.Bytes = r.bytes(4)
		case TagLong, TagDouble:
			c.Bytes = r.bytes(8)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.A = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			c.A = r.u2()
			c.B = r.u2()
		case TagMethodHandle:
			c.Kind = r.u1()
			c.A = r.u2()
		default:
			if r.err == nil {
				return nil, zerr.With(zerr.Wrap(domain.ErrClassFormat, "unknown constant tag"), "tag", c.Tag)
			}
		}
		cf.Pool[i] = c
		if c.wide() {
			i++
		}
	}

	cf.Access = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()
	cf.Interfaces = make([]uint16, r.u2())
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.u2()
	}
	cf.Fields = r.members()
	cf.Methods = r.members()
	cf.Attributes = r.attributes()

	if r.err != nil {
		return nil, zerr.Wrap(domain.ErrClassFormat, r.err.Error())
	}
	if r.pos != len(data) {
		return nil, zerr.Wrap(domain.ErrClassFormat, "trailing bytes after class file")
	}
	if err := cf.checkIndex(cf.ThisClass, TagClass); err != nil {
		return nil, err
	}
	return cf, nil
}

// Encode serializes the class file.
func (cf *ClassFile) Encode() ([]byte, error) {
	if len(cf.Pool) > maxPoolSize {
		return nil, zerr.With(zerr.Wrap(domain.ErrClassFormat, "constant pool overflow"), "size", len(cf.Pool))
	}

	w := &writer{}
	w.u4(classMagic)
	w.u2(cf.Minor)
	w.u2(cf.Major)
	w.u2(uint16(len(cf.Pool)))
	for _, c := range cf.Pool[1:] {
		if c.Tag == 0 {
			continue
		}
		w.u1(c.Tag)
		switch c.Tag {
		case TagUtf8:
			if len(c.Bytes) > 0xFFFF {
				return nil, zerr.Wrap(domain.ErrClassFormat, "utf8 constant too long")
			}
			w.u2(uint16(len(c.Bytes)))
			w.raw(c.Bytes)
		case TagInteger, TagFloat, TagLong, TagDouble:
			w.raw(c.Bytes)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.u2(c.A)
		case TagMethodHandle:
			w.u1(c.Kind)
			w.u2(c.A)
		default:
			w.u2(c.A)
			w.u2(c.B)
		}
	}

	w.u2(cf.Access)
	w.u2(cf.ThisClass)
	w.u2(cf.SuperClass)
	w.u2(uint16(len(cf.Interfaces)))
	for _, iface := range cf.Interfaces {
		w.u2(iface)
	}
	w.members(cf.Fields)
	w.members(cf.Methods)
	w.attributes(cf.Attributes)
	return w.buf, nil
}

// Utf8 returns the string held by a Utf8 constant, or "" for any other slot.
func (cf *ClassFile) Utf8(index uint16) string {
	if int(index) >= len(cf.Pool) || cf.Pool[index].Tag != TagUtf8 {
		return ""
	}
	return decodeModifiedUTF8(cf.Pool[index].Bytes)
}

// ClassName returns the internal name of the Class constant at index.
func (cf *ClassFile) ClassName(index uint16) string {
	if index == 0 || int(index) >= len(cf.Pool) || cf.Pool[index].Tag != TagClass {
		return ""
	}
	return cf.Utf8(cf.Pool[index].A)
}

// Name returns the internal name of this class.
func (cf *ClassFile) Name() string {
	return cf.ClassName(cf.ThisClass)
}

// SuperName returns the internal name of the superclass, or "" for java/lang/Object.
func (cf *ClassFile) SuperName() string {
	return cf.ClassName(cf.SuperClass)
}

// InterfaceNames returns the internal names of the directly implemented interfaces.
func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ClassName(idx)
	}
	return names
}

// AddUtf8 returns the index of a Utf8 constant holding s, appending one if needed.
func (cf *ClassFile) AddUtf8(s string) uint16 {
	if cf.utf8Index == nil {
		cf.utf8Index = make(map[string]uint16)
		for i, c := range cf.Pool {
			if c.Tag == TagUtf8 {
				str := decodeModifiedUTF8(c.Bytes)
				if _, ok := cf.utf8Index[str]; !ok {
					cf.utf8Index[str] = uint16(i)
				}
			}
		}
	}
	if idx, ok := cf.utf8Index[s]; ok {
		return idx
	}
	idx := cf.append(Constant{Tag: TagUtf8, Bytes: encodeModifiedUTF8(s)})
	cf.utf8Index[s] = idx
	return idx
}

// AddClass returns the index of a Class constant naming name, appending one if needed.
func (cf *ClassFile) AddClass(name string) uint16 {
	nameIdx := cf.AddUtf8(name)
	if cf.clsIndex == nil {
		cf.clsIndex = make(map[uint16]uint16)
		for i, c := range cf.Pool {
			if c.Tag == TagClass {
				if _, ok := cf.clsIndex[c.A]; !ok {
					cf.clsIndex[c.A] = uint16(i)
				}
			}
		}
	}
	if idx, ok := cf.clsIndex[nameIdx]; ok {
		return idx
	}
	idx := cf.append(Constant{Tag: TagClass, A: nameIdx})
	cf.clsIndex[nameIdx] = idx
	return idx
}

// AddNameAndType returns the index of a NameAndType constant, appending one if needed.
func (cf *ClassFile) AddNameAndType(name, desc string) uint16 {
	key := [2]uint16{cf.AddUtf8(name), cf.AddUtf8(desc)}
	if cf.natIndex == nil {
		cf.natIndex = make(map[[2]uint16]uint16)
		for i, c := range cf.Pool {
			if c.Tag == TagNameAndType {
				if _, ok := cf.natIndex[[2]uint16{c.A, c.B}]; !ok {
					cf.natIndex[[2]uint16{c.A, c.B}] = uint16(i)
				}
			}
		}
	}
	if idx, ok := cf.natIndex[key]; ok {
		return idx
	}
	idx := cf.append(Constant{Tag: TagNameAndType, A: key[0], B: key[1]})
	cf.natIndex[key] = idx
	return idx
}

// AddRef appends a member reference constant of the given tag.
func (cf *ClassFile) AddRef(tag uint8, owner, name, desc string) uint16 {
	return cf.append(Constant{Tag: tag, A: cf.AddClass(owner), B: cf.AddNameAndType(name, desc)})
}

// AddString appends a String constant.
func (cf *ClassFile) AddString(s string) uint16 {
	return cf.append(Constant{Tag: TagString, A: cf.AddUtf8(s)})
}

// AddMethodType appends a MethodType constant.
func (cf *ClassFile) AddMethodType(desc string) uint16 {
	return cf.append(Constant{Tag: TagMethodType, A: cf.AddUtf8(desc)})
}

// AddConstant appends an arbitrary constant and returns its index.
func (cf *ClassFile) AddConstant(c Constant) uint16 {
	return cf.append(c)
}

// AddField declares a field.
func (cf *ClassFile) AddField(access uint16, name, desc string, attrs ...Attribute) {
	cf.Fields = append(cf.Fields, Member{Access: access, NameIndex: cf.AddUtf8(name), DescIndex: cf.AddUtf8(desc), Attributes: attrs})
}

// AddMethod declares a method.
func (cf *ClassFile) AddMethod(access uint16, name, desc string, attrs ...Attribute) {
	cf.Methods = append(cf.Methods, Member{Access: access, NameIndex: cf.AddUtf8(name), DescIndex: cf.AddUtf8(desc), Attributes: attrs})
}

// AttributeName returns the name of an attribute.
func (cf *ClassFile) AttributeName(a Attribute) string {
	return cf.Utf8(a.NameIndex)
}

// FindAttribute returns the first attribute with the given name.
func (cf *ClassFile) FindAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if cf.AttributeName(a) == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (cf *ClassFile) append(c Constant) uint16 {
	cf.Pool = append(cf.Pool, c)
	idx := len(cf.Pool) - 1
	if c.wide() {
		cf.Pool = append(cf.Pool, Constant{})
	}
	return uint16(idx)
}

func (cf *ClassFile) checkIndex(index uint16, tag uint8) error {
	if index == 0 || int(index) >= len(cf.Pool) || cf.Pool[index].Tag != tag {
		return zerr.With(zerr.Wrap(domain.ErrClassFormat, "bad constant pool reference"), "index", index)
	}
	return nil
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = errTruncated
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v
}

func (r *reader) attributes() []Attribute {
	n := int(r.u2())
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		name := r.u2()
		length := r.u4()
		attrs = append(attrs, Attribute{NameIndex: name, Info: r.bytes(int(length))})
	}
	return attrs
}

func (r *reader) members() []Member {
	n := int(r.u2())
	members := make([]Member, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		m := Member{Access: r.u2(), NameIndex: r.u2(), DescIndex: r.u2()}
		m.Attributes = r.attributes()
		members = append(members, m)
	}
	return members
}

type writer struct {
	buf []byte
}

func (w *writer) u1(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u2(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *writer) u4(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) attributes(attrs []Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Info)))
		w.raw(a.Info)
	}
}

func (w *writer) members(members []Member) {
	w.u2(uint16(len(members)))
	for _, m := range members {
		w.u2(m.Access)
		w.u2(m.NameIndex)
		w.u2(m.DescIndex)
		w.attributes(m.Attributes)
	}
}
