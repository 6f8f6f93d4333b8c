package program

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(t *testing.T, id string) *Record {
	t.Helper()
	def := qaSignatureDef()
	sig, err := ParseSignature(def)
	require.NoError(t, err)
	rec, err := NewRecord(id, KindPredict, sig, def, "")
	require.NoError(t, err)
	return rec
}

func TestRegistryPutGet(t *testing.T) {
	reg, err := NewRegistry(8)
	require.NoError(t, err)

	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.List())

	rec := testRecord(t, "qa")
	reg.Put(rec)

	got, ok := reg.Get("qa")
	require.True(t, ok)
	assert.Same(t, rec, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistryPutOverwrites(t *testing.T) {
	reg, err := NewRegistry(8)
	require.NoError(t, err)

	reg.Put(testRecord(t, "qa"))
	replacement := testRecord(t, "qa")
	replacement.Instructions = "Answer at length."
	reg.Put(replacement)

	assert.Equal(t, 1, reg.Len())
	got, ok := reg.Get("qa")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	var removed []string
	reg, err := NewRegistry(2, WithRemoveHook(func(rec *Record) {
		removed = append(removed, rec.ID)
	}))
	require.NoError(t, err)

	reg.Put(testRecord(t, "a"))
	reg.Put(testRecord(t, "b"))

	// Touch "a" so "b" is the eviction candidate.
	_, ok := reg.Get("a")
	require.True(t, ok)

	reg.Put(testRecord(t, "c"))

	assert.Equal(t, []string{"b"}, removed)
	assert.Equal(t, 2, reg.Len())
	_, ok = reg.Get("b")
	assert.False(t, ok)
}

func TestRegistryHooks(t *testing.T) {
	inserted, removed := 0, 0
	reg, err := NewRegistry(4,
		WithInsertHook(func(*Record) { inserted++ }),
		WithRemoveHook(func(*Record) { removed++ }),
	)
	require.NoError(t, err)

	reg.Put(testRecord(t, "a"))
	reg.Put(testRecord(t, "a")) // overwrite, not an insert
	reg.Put(testRecord(t, "b"))
	assert.Equal(t, 2, inserted)
	assert.Zero(t, removed)

	assert.True(t, reg.Delete("a"))
	assert.False(t, reg.Delete("a"))
	assert.Equal(t, 1, removed)

	assert.Equal(t, 1, reg.Clear())
	assert.Equal(t, 2, removed)
	assert.Zero(t, reg.Len())

	// Clearing an already-empty registry removes nothing.
	assert.Zero(t, reg.Clear())
	assert.Equal(t, 2, removed)
}

func TestRegistryList(t *testing.T) {
	reg, err := NewRegistry(8)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		reg.Put(testRecord(t, fmt.Sprintf("p%d", i)))
	}

	ids := make([]string, 0, 3)
	for _, rec := range reg.List() {
		ids = append(ids, rec.ID)
	}
	assert.ElementsMatch(t, []string{"p0", "p1", "p2"}, ids)
}

func TestNewRegistryRejectsBadCapacity(t *testing.T) {
	_, err := NewRegistry(0)
	assert.Error(t, err)
	_, err = NewRegistry(-5)
	assert.Error(t, err)
}
