package vm

// StructInstance is one heap-resident mutable (or non-isbits) struct
// (spec §3.3, §9 "Mutable struct graphs"). The VM owns a single growable
// Vec<StructInstance>; a StructRef(i) handle is a weak index into it —
// every alias observes the same Fields slice, so a write through any
// alias is visible through all of them (spec §8 "Struct aliasing").
type StructInstance struct {
	TypeID int
	Fields []Value
}

// Heap is the VM's global struct heap (spec §3.3 invariant (i): every
// StructRef(i) satisfies i < heap.len()). There is no reclamation: a
// slot lives for the process's lifetime once allocated (spec §9).
type Heap struct {
	instances []StructInstance
}

// Alloc appends a new instance and returns its StructRef index.
func (h *Heap) Alloc(typeID int, fields []Value) int {
	h.instances = append(h.instances, StructInstance{TypeID: typeID, Fields: fields})
	return len(h.instances) - 1
}

// Get returns the live instance at i. Callers mutate Fields in place
// through the returned pointer so the mutation is visible to every
// other StructRef(i) alias.
func (h *Heap) Get(i int) *StructInstance {
	return &h.instances[i]
}

func (h *Heap) Len() int { return len(h.instances) }
