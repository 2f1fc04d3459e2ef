package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/value"
)

func TestAllocateTracksBytes(t *testing.T) {
	h := New(4096, 1024)
	obj := value.NewStringObject("hello")
	h.Allocate(obj, func() []value.Value { return nil })
	assert.Equal(t, obj.Bytes, h.AllocatedBytes())
	assert.Equal(t, 1, h.LiveObjects())
}

func TestCollectionFreesUnreferencedObjects(t *testing.T) {
	h := New(64, 16) // tiny threshold so a handful of allocations trigger a sweep
	var keep *value.Object

	for i := 0; i < 20; i++ {
		obj := value.NewStringObject("garbage")
		roots := func() []value.Value {
			if keep == nil {
				return nil
			}
			return []value.Value{value.String(keep)}
		}
		alloc := h.Allocate(obj, roots)
		if i == 0 {
			keep = alloc
		}
	}

	require.Greater(t, h.Stats.Collections, 0)
	assert.Greater(t, h.Stats.ObjectsFreed, 0)

	// the one rooted object must have survived every collection
	found := false
	for i := 0; i < h.LiveObjects(); i++ {
		if h.objects[i] == keep {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMarkIsRecursiveThroughLists(t *testing.T) {
	h := New(64, 16)
	inner := h.Allocate(value.NewStringObject("leaf"), func() []value.Value { return nil })
	outer := value.NewListObject(0, []value.Value{value.String(inner)})

	roots := func() []value.Value { return []value.Value{value.List(outer)} }
	for i := 0; i < 10; i++ {
		h.Allocate(value.NewStringObject("filler"), roots)
	}

	found := false
	for i := 0; i < h.LiveObjects(); i++ {
		if h.objects[i] == inner {
			found = true
		}
	}
	assert.True(t, found, "list element reachable only through the list must survive collection")
}
