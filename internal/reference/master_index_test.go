package reference

import (
	"reflect"
	"testing"
)

func TestBuildMasterIndex(t *testing.T) {
	records := []MasterRecord{
		{ID: 1, Variety: "Tango", Puc: "P2", Block: "Block 10"},
		{ID: 2, Variety: "Tango", Puc: "P2", Block: "Block 2"},
		{ID: 3, Variety: "Nadorcott", Puc: "P1", Block: "Block 1"},
		{ID: 4, Variety: "Nadorcott", Puc: "", Block: "Block 1"},
		{ID: 5, Variety: "Orri", Puc: "P9", Block: ""},
	}

	idx := BuildMasterIndex(records)

	if want := []string{"Nadorcott", "Tango"}; !reflect.DeepEqual(idx.Varieties, want) {
		t.Errorf("Varieties = %v, want %v", idx.Varieties, want)
	}
	if want := []string{"Block 2", "Block 10"}; !reflect.DeepEqual(idx.BlocksByVariety["Tango"], want) {
		t.Errorf("Tango blocks = %v, want %v", idx.BlocksByVariety["Tango"], want)
	}
	if want := []string{"Block 1", "Block 2", "Block 10"}; !reflect.DeepEqual(idx.AllBlocks, want) {
		t.Errorf("AllBlocks = %v, want %v", idx.AllBlocks, want)
	}
	// Orri has no block, so it is not a listed variety, but its PUC still counts.
	if want := []string{"P1", "P2", "P9"}; !reflect.DeepEqual(idx.Pucs, want) {
		t.Errorf("Pucs = %v, want %v", idx.Pucs, want)
	}
	if _, ok := idx.BlocksByVariety["Orri"]; ok {
		t.Error("variety without blocks should not be indexed")
	}
}

func TestBuildMasterIndex_Empty(t *testing.T) {
	idx := BuildMasterIndex(nil)
	if idx.Records == nil || len(idx.Varieties) != 0 {
		t.Errorf("expected empty, non-nil index, got %+v", idx)
	}
}
