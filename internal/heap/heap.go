// Package heap implements the mark-sweep collector of spec §4.6: objects
// are pinned allocations owned by the heap, collected opportunistically
// at allocation points once an allocated-bytes counter crosses a
// threshold.
package heap

import "github.com/solaeus/dust/internal/value"

// Stats are the collector's diagnostic counters (spec §4.6: "records
// counters for diagnostics but never alters program semantics").
type Stats struct {
	Collections   int
	ObjectsFreed  int
	BytesFreed    int
	LastAllocated int
}

// Heap owns every live Object and tracks the allocation-byte threshold
// that triggers a collection.
type Heap struct {
	objects []*value.Object

	allocatedBytes    int
	minimumHeapBytes  int
	minimumSweepBytes int
	nextSweepThreshold int

	Stats Stats
}

// New creates a heap using the given release/debug knobs (spec §6).
func New(minimumHeapBytes, minimumSweepBytes int) *Heap {
	return &Heap{
		minimumHeapBytes:   minimumHeapBytes,
		minimumSweepBytes:  minimumSweepBytes,
		nextSweepThreshold: minimumHeapBytes,
	}
}

// RootsFunc returns every Value currently reachable from live program
// state (the register stack of every call frame). The heap calls it
// lazily, only when a collection actually runs.
type RootsFunc func() []value.Value

// Allocate registers a freshly created object with the heap, triggering
// a collection first if the allocation would push allocated_bytes past
// the current threshold (spec §4.6's trigger rule runs "before the
// current allocation completes").
func (h *Heap) Allocate(obj *value.Object, roots RootsFunc) *value.Object {
	if h.allocatedBytes+obj.Bytes >= h.nextSweepThreshold {
		h.collect(roots)
	}
	h.objects = append(h.objects, obj)
	h.allocatedBytes += obj.Bytes
	h.Stats.LastAllocated = obj.Bytes
	return obj
}

func (h *Heap) collect(roots RootsFunc) {
	h.Stats.Collections++
	h.mark(roots())
	freedObjects, freedBytes := h.sweep()
	h.Stats.ObjectsFreed += freedObjects
	h.Stats.BytesFreed += freedBytes
	h.nextSweepThreshold = maxInt(h.minimumHeapBytes, h.allocatedBytes+h.minimumSweepBytes)
}

// mark walks every root and its transitive references, setting Mark on
// each reachable object. Recursion follows Object.References, so a LIST
// whose elements are themselves heap objects is marked through (§4.6).
func (h *Heap) mark(roots []value.Value) {
	visited := make(map[*value.Object]bool)
	var visit func(obj *value.Object)
	visit = func(obj *value.Object) {
		if obj == nil || visited[obj] {
			return
		}
		visited[obj] = true
		obj.Mark = true
		for _, ref := range obj.References() {
			visit(ref)
		}
	}
	for _, v := range roots {
		if v.IsHeap() {
			visit(v.Obj)
		}
	}
}

// sweep frees every unmarked object and clears the mark bit on every
// survivor, per spec §4.6.
func (h *Heap) sweep() (freedObjects, freedBytes int) {
	live := h.objects[:0]
	for _, obj := range h.objects {
		if !obj.Mark {
			freedObjects++
			freedBytes += obj.Bytes
			h.allocatedBytes -= obj.Bytes
			continue
		}
		obj.Mark = false
		live = append(live, obj)
	}
	h.objects = live
	return freedObjects, freedBytes
}

// AllocatedBytes reports the live heap's current byte count, exposed for
// diagnostics and tests.
func (h *Heap) AllocatedBytes() int { return h.allocatedBytes }

// LiveObjects reports how many objects currently survive, exposed for tests.
func (h *Heap) LiveObjects() int { return len(h.objects) }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
