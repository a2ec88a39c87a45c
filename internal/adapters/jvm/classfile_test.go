package jvm_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/jvm"
	"go.trai.ch/anvil/internal/core/domain"
)

func u2s(values ...uint16) []byte {
	out := make([]byte, 0, 2*len(values))
	for _, v := range values {
		out = binary.BigEndian.AppendUint16(out, v)
	}
	return out
}

func encode(t *testing.T, cf *jvm.ClassFile) []byte {
	t.Helper()
	data, err := cf.Encode()
	require.NoError(t, err)
	return data
}

func nameAndType(cf *jvm.ClassFile, ref uint16) (string, string) {
	nat := cf.Pool[cf.Pool[ref].B]
	return cf.Utf8(nat.A), cf.Utf8(nat.B)
}

func TestDecode_RoundTrip(t *testing.T) {
	cf := jvm.NewClass("net/minecraft/A", "java/lang/Object", "java/lang/Runnable")
	cf.AddField(0x0002, "count", "I")
	cf.AddMethod(0x0001, "run", "()V")
	cf.AddString("hello")
	cf.AddConstant(jvm.Constant{Tag: jvm.TagLong, Bytes: []byte{0, 0, 0, 0, 0, 0, 0, 42}})
	cf.AddString("after long")

	data := encode(t, cf)
	decoded, err := jvm.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "net/minecraft/A", decoded.Name())
	assert.Equal(t, "java/lang/Object", decoded.SuperName())
	assert.Equal(t, []string{"java/lang/Runnable"}, decoded.InterfaceNames())
	require.Len(t, decoded.Fields, 1)
	assert.Equal(t, "count", decoded.Utf8(decoded.Fields[0].NameIndex))
	require.Len(t, decoded.Methods, 1)
	assert.Equal(t, "()V", decoded.Utf8(decoded.Methods[0].DescIndex))

	again := encode(t, decoded)
	assert.Equal(t, data, again)
}

func TestDecode_Invalid(t *testing.T) {
	valid := encode(t, jvm.NewClass("A", "java/lang/Object"))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52}},
		{"truncated", valid[:len(valid)-3]},
		{"trailing bytes", append(append([]byte{}, valid...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jvm.Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrClassFormat))
		})
	}
}

func TestReadInfo(t *testing.T) {
	data := encode(t, jvm.NewClass("b", "a", "c", "d"))

	info, err := jvm.ReadInfo(data)
	require.NoError(t, err)
	assert.Equal(t, "b", info.Name.String())
	assert.Equal(t, "a", info.Super.String())
	require.Len(t, info.Interfaces, 2)
	assert.Equal(t, "d", info.Interfaces[1].String())
}

func TestReadInfo_Object(t *testing.T) {
	data := encode(t, jvm.NewClass("java/lang/Object", ""))

	info, err := jvm.ReadInfo(data)
	require.NoError(t, err)
	assert.Empty(t, info.Super.String())
}

func TestEncode_PoolOverflow(t *testing.T) {
	cf := jvm.NewClass("a", "java/lang/Object")
	for i := 0; len(cf.Pool) < 0xFFFF; i++ {
		cf.AddUtf8(fmt.Sprintf("c%d", i))
	}
	data := encode(t, cf)

	table := domain.NewMappingTable()
	table.AddClass("a", "net/minecraft/Renamed")

	_, _, err := jvm.RemapClass(data, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrClassFormat))
}
