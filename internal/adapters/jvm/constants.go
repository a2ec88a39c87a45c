package jvm

// Constant pool tags.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldref           uint8 = 9
	TagMethodref          uint8 = 10
	TagInterfaceMethodref uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// maxPoolSize is the largest constant_pool_count a class file can declare.
const maxPoolSize = 0xFFFF

// Constant is one constant pool slot. The slot following a Long or Double has tag 0.
type Constant struct {
	Tag uint8
	// Bytes holds the raw modified UTF-8 of a Utf8 entry, or the big-endian value of a numeric entry.
	Bytes []byte
	// A is the first index operand: name/class/descriptor/string/bootstrap/reference index.
	A uint16
	// B is the second index operand: name_and_type/descriptor index.
	B uint16
	// Kind is the reference kind of a MethodHandle.
	Kind uint8
}

// isMemberRef reports whether c is a field, method or interface method reference.
func (c Constant) isMemberRef() bool {
	return c.Tag == TagFieldref || c.Tag == TagMethodref || c.Tag == TagInterfaceMethodref
}

// wide reports whether c occupies two pool slots.
func (c Constant) wide() bool {
	return c.Tag == TagLong || c.Tag == TagDouble
}
