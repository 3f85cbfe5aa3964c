package core

import "testing"

func TestNewTypeIndexWalksStructAndAbstractParents(t *testing.T) {
	prog := &Program{
		Structs: []*StructDef{
			{Name: "Dog", Parent: "Animal"},
		},
		Abstracts: []*AbstractTypeDef{
			{Name: "Animal", Parent: "LivingThing"},
			{Name: "LivingThing"},
		},
	}
	idx := NewTypeIndex(prog)

	if !idx.IsA("Dog", "Animal") {
		t.Errorf("Dog should be an Animal")
	}
	if !idx.IsA("Dog", "LivingThing") {
		t.Errorf("Dog should be a LivingThing transitively")
	}
	if idx.IsA("Dog", "Plant") {
		t.Errorf("Dog should not be a Plant")
	}
	if !idx.IsA("Dog", "Dog") {
		t.Errorf("IsA should include the name itself")
	}
}

func TestTypeIndexParentReturnsEmptyForRoot(t *testing.T) {
	idx := NewTypeIndex(&Program{})
	if got := idx.Parent("Nothing"); got != "" {
		t.Errorf("Parent(Nothing) = %q, want empty", got)
	}
}

func TestTypeIndexPairsRoundTripsThroughFromPairs(t *testing.T) {
	prog := &Program{
		Structs: []*StructDef{{Name: "Cat", Parent: "Animal"}},
	}
	idx := NewTypeIndex(prog)
	rebuilt := NewTypeIndexFromPairs(idx.Pairs())

	if !rebuilt.IsA("Cat", "Animal") {
		t.Errorf("rebuilt index lost the Cat -> Animal relationship")
	}
}
