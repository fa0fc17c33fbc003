package pagemap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaMapReturnsDereferenceableAlignedAddress(t *testing.T) {
	a := NewArena()

	p := a.Map(256, 64)
	require.NotZero(t, p)
	assert.Zero(t, p%64)
	assert.Equal(t, 1, a.MapCount())

	// the address must be writable: this is what distinguishes Arena from
	// a synthetic offset space.
	writeWord(p, 0xdeadbeef)
	assert.Equal(t, uintptr(0xdeadbeef), readWord(p))
}

func TestArenaReallocShrinksInPlace(t *testing.T) {
	a := NewArena()
	p := a.Map(64, 1)

	shrunk := a.Realloc(p, 64, 32, false)
	assert.Equal(t, p, shrunk, "shrinking never needs to move")
}

func TestArenaReallocMovesWhenPermitted(t *testing.T) {
	a := NewArena()
	p := a.Map(8, 1)
	writeWord(p, 0x42)

	moved := a.Realloc(p, 8, 1<<20, true)
	require.NotZero(t, moved)
	assert.Equal(t, uintptr(0x42), readWord(moved))
}

func TestArenaReallocFailsWithoutMovePermission(t *testing.T) {
	a := NewArena()
	p := a.Map(8, 1)

	blocked := a.Realloc(p, 8, 1<<20, false)
	assert.Zero(t, blocked)
}

func TestArenaUnmapForgetsMapping(t *testing.T) {
	a := NewArena()
	p := a.Map(64, 1)
	a.Unmap(p, 64)
	assert.Equal(t, 0, a.MapCount())
}

func writeWord(p uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(p)) = v
}

func readWord(p uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(p))
}
