package reference

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MasterIndex groups the master config for pickers and filters.
type MasterIndex struct {
	Records         []MasterRecord      `json:"records"`
	Varieties       []string            `json:"varieties"`
	BlocksByVariety map[string][]string `json:"blocksByVariety"`
	AllBlocks       []string            `json:"allBlocks"`
	Pucs            []string            `json:"pucs"`
	PucsByVariety   map[string][]string `json:"pucsByVariety"`
}

// naturalSort dedupes, drops blanks and sorts with numeric-aware, case
// insensitive ordering, so "Block 2" sorts before "block 10".
func naturalSort(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	collate.New(language.Und, collate.Numeric, collate.Loose).SortStrings(out)
	return out
}

// BuildMasterIndex derives the sorted variety, block and PUC lists. Only
// varieties with at least one block are listed.
func BuildMasterIndex(records []MasterRecord) MasterIndex {
	blocks := make(map[string][]string)
	pucs := make(map[string][]string)
	var allBlocks, allPucs []string

	for _, rec := range records {
		variety := strings.TrimSpace(rec.Variety)
		if variety == "" {
			continue
		}
		if block := strings.TrimSpace(rec.Block); block != "" {
			blocks[variety] = append(blocks[variety], block)
			allBlocks = append(allBlocks, block)
		}
		if puc := strings.TrimSpace(rec.Puc); puc != "" {
			pucs[variety] = append(pucs[variety], puc)
			allPucs = append(allPucs, puc)
		}
	}

	varietyNames := make([]string, 0, len(blocks))
	for v := range blocks {
		varietyNames = append(varietyNames, v)
	}

	idx := MasterIndex{
		Records:         records,
		Varieties:       naturalSort(varietyNames),
		BlocksByVariety: make(map[string][]string, len(blocks)),
		AllBlocks:       naturalSort(allBlocks),
		Pucs:            naturalSort(allPucs),
		PucsByVariety:   make(map[string][]string, len(blocks)),
	}
	if idx.Records == nil {
		idx.Records = []MasterRecord{}
	}
	for _, v := range idx.Varieties {
		idx.BlocksByVariety[v] = naturalSort(blocks[v])
		idx.PucsByVariety[v] = naturalSort(pucs[v])
	}
	return idx
}
