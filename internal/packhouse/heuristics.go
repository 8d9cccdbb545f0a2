package packhouse

import (
	"strconv"
	"strings"

	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"
)

const heuristicAny = "*"

// WeightKind selects one of the per-pack weight tables.
type WeightKind int

const (
	Gross WeightKind = iota
	Net
	Packaging
)

type weightStats struct {
	totalWeightKg float64
	totalPacks    float64
}

// Heuristics holds average weight-per-pack tables keyed by
// client|packType|count, with "*" standing in for any missing part.
type Heuristics struct {
	tables [3]map[string]*weightStats
}

// HeuristicKeys returns the lookup keys for a row, most specific first.
// Duplicates produced by already-wildcarded parts are dropped.
func HeuristicKeys(row teamdesk.Row) []string {
	client := row.Client.Key()
	if client == "" {
		client = heuristicAny
	}
	packType := row.PackType.Key()
	if packType == "" {
		packType = heuristicAny
	}
	count := heuristicAny
	if n, ok := row.CountSize.Float(); ok && n > 0 {
		count = strconv.Itoa(reference.RoundCount(n))
	}

	combos := [8][3]string{
		{client, packType, count},
		{client, packType, heuristicAny},
		{heuristicAny, packType, count},
		{heuristicAny, packType, heuristicAny},
		{client, heuristicAny, count},
		{client, heuristicAny, heuristicAny},
		{heuristicAny, heuristicAny, count},
		{heuristicAny, heuristicAny, heuristicAny},
	}

	keys := make([]string, 0, len(combos))
	seen := make(map[string]struct{}, len(combos))
	for _, c := range combos {
		key := strings.Join(c[:], "|")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// BuildHeuristics scans rows once. Rows without a positive Pack QTY are
// ignored.
func BuildHeuristics(rows []teamdesk.Row) *Heuristics {
	h := &Heuristics{}
	for i := range h.tables {
		h.tables[i] = make(map[string]*weightStats)
	}

	for _, row := range rows {
		packQty, ok := row.PackQty.Float()
		if !ok || packQty <= 0 {
			continue
		}
		keys := HeuristicKeys(row)

		packaging := row.PackagingWeight.FloatOr(0)
		pallet := row.PalletWeight.FloatOr(0)
		weight := row.Weight.FloatOr(0)

		var gross float64
		switch {
		case pallet > 0:
			gross = pallet
		case weight > 0:
			gross = weight + packaging
		}

		var net float64
		if gross > 0 {
			net = max(gross-packaging, 0)
		}
		if net <= 0 && weight > 0 {
			net = weight
		}

		h.observe(Gross, keys, gross, packQty)
		h.observe(Net, keys, net, packQty)
		h.observe(Packaging, keys, packaging, packQty)
	}
	return h
}

func (h *Heuristics) observe(kind WeightKind, keys []string, weightKg, packs float64) {
	if !(weightKg > 0) || !(packs > 0) {
		return
	}
	table := h.tables[kind]
	for _, key := range keys {
		stats, ok := table[key]
		if !ok {
			stats = &weightStats{}
			table[key] = stats
		}
		stats.totalWeightKg += weightKg
		stats.totalPacks += packs
	}
}

// AveragePerPack returns the average of the first key with data.
func (h *Heuristics) AveragePerPack(kind WeightKind, keys []string) (float64, bool) {
	if h == nil {
		return 0, false
	}
	table := h.tables[kind]
	for _, key := range keys {
		if stats, ok := table[key]; ok && stats.totalPacks > 0 && stats.totalWeightKg > 0 {
			return stats.totalWeightKg / stats.totalPacks, true
		}
	}
	return 0, false
}

// Estimate scales the per-pack average by packQty.
func (h *Heuristics) Estimate(kind WeightKind, keys []string, packQty float64) (float64, bool) {
	if !(packQty > 0) {
		return 0, false
	}
	avg, ok := h.AveragePerPack(kind, keys)
	if !ok {
		return 0, false
	}
	return avg * packQty, true
}
