package jvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/adapters/jvm"
)

func TestRemapSignature(t *testing.T) {
	table := obfuscatedTable()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"field", "Ljava/util/List<La;>;", "Ljava/util/List<Lnet/minecraft/world/Entity;>;"},
		{"wildcards", "Ljava/util/Map<+La;*>;", "Ljava/util/Map<+Lnet/minecraft/world/Entity;*>;"},
		{"type parameters", "<T:La;U::Ld;>Ljava/lang/Object;", "<T:Lnet/minecraft/world/Entity;U::Lnet/minecraft/util/Callback;>Ljava/lang/Object;"},
		{"method", "<L:Ljava/lang/Object;>(TL;[La;I)TL;^La;", "<L:Ljava/lang/Object;>(TL;[Lnet/minecraft/world/Entity;I)TL;^Lnet/minecraft/world/Entity;"},
		{"void method", "(Ljava/util/List<La;>;)V", "(Ljava/util/List<Lnet/minecraft/world/Entity;>;)V"},
		{"inner class", "La<TT;>.b;", "Lnet/minecraft/world/Entity<TT;>.Removal;"},
		{"unmapped inner", "La.z;", "Lnet/minecraft/world/Entity.z;"},
		{"no classes", "TT;", "TT;"},
		{"malformed", "Ljava/util/List<La;", "Ljava/util/List<La;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jvm.RemapSignature(table, tt.in))
		})
	}
}
