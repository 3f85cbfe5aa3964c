package core

// TypeIndex is the abstract-type subtyping index built once at compile
// time (spec §4.1, §4.4) and consulted by both the inference engine and
// the VM's isa() builtin. It records, for every struct and abstract type
// name, its declared parent, so isa(value, T) can walk the chain
// struct -> declared parent -> its parent -> ... without re-walking the
// whole Program each time.
type TypeIndex struct {
	parentOf map[string]string // name -> immediate parent name ("" if none)
}

// NewTypeIndex builds the parent-chain index from a merged Program.
func NewTypeIndex(p *Program) *TypeIndex {
	idx := &TypeIndex{parentOf: make(map[string]string)}
	for _, s := range p.Structs {
		if s.Parent != "" {
			idx.parentOf[s.Name] = s.Parent
		}
	}
	for _, a := range p.Abstracts {
		if a.Parent != "" {
			idx.parentOf[a.Name] = a.Parent
		}
	}
	return idx
}

// IsA walks the parent chain starting at concreteName, returning true if
// targetName appears anywhere in it (including concreteName itself).
// Cycle-safe: a chain may not revisit a name already seen.
func (idx *TypeIndex) IsA(concreteName, targetName string) bool {
	seen := map[string]bool{}
	name := concreteName
	for name != "" {
		if name == targetName {
			return true
		}
		if seen[name] {
			return false
		}
		seen[name] = true
		name = idx.parentOf[name]
	}
	return false
}

// Parent returns the immediate declared parent of name, or "" if none.
func (idx *TypeIndex) Parent(name string) string {
	return idx.parentOf[name]
}

// Pairs returns every (name, parent) entry the index holds, for callers
// that need to persist the index outside a Program (internal/bcfile's
// bytecode round-trip).
func (idx *TypeIndex) Pairs() map[string]string {
	out := make(map[string]string, len(idx.parentOf))
	for k, v := range idx.parentOf {
		out[k] = v
	}
	return out
}

// NewTypeIndexFromPairs rebuilds an index from a flat (name, parent) map,
// the inverse of Pairs — used when loading a serialized bytecode file
// that has no live Program to re-derive the index from.
func NewTypeIndexFromPairs(pairs map[string]string) *TypeIndex {
	idx := &TypeIndex{parentOf: make(map[string]string, len(pairs))}
	for k, v := range pairs {
		idx.parentOf[k] = v
	}
	return idx
}
