package packhouse

import (
	"math"
	"slices"
	"time"

	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const maxPackPercentage = 1.5

type bucketKey struct {
	variety, season, block, date string
}

type bucket struct {
	key bucketKey

	tonsTipped  float64
	packagingKg float64
	bins        map[string]struct{}
	classes     map[string]float64

	spreads      *tally
	distributors *tally
	markets      *tally
	pucVotes     *tally

	crossTab     map[string]*tally
	crossTabKeys []string
}

func newBucket(key bucketKey) *bucket {
	return &bucket{
		key:          key,
		bins:         make(map[string]struct{}),
		classes:      make(map[string]float64, 3),
		spreads:      newTally(),
		distributors: newTally(),
		markets:      newTally(),
		pucVotes:     newTally(),
		crossTab:     make(map[string]*tally),
	}
}

func (b *bucket) addCross(distributor, spread string, v float64) {
	if distributor == "" || spread == "" {
		return
	}
	inner, ok := b.crossTab[distributor]
	if !ok {
		inner = newTally()
		b.crossTab[distributor] = inner
		b.crossTabKeys = append(b.crossTabKeys, distributor)
	}
	inner.add(spread, v)
}

type rowWeights struct {
	grossKg     float64
	packagingKg float64
}

// resolveWeights applies the gross/net/packaging precedence for one row:
// explicit pallet weight, then weight plus packaging, then the heuristic
// gross estimate, then the net weight plus packaging.
func resolveWeights(row teamdesk.Row, h *Heuristics, keys []string, packQty float64) rowWeights {
	rawPackaging := row.PackagingWeight.FloatOr(0)
	pallet := row.PalletWeight.FloatOr(0)
	weight := row.Weight.FloatOr(0)

	var gross float64
	if pallet > 0 {
		gross = pallet
	}
	if gross <= 0 && weight > 0 && rawPackaging >= 0 {
		gross = weight + rawPackaging
	}

	var net float64
	if gross > 0 {
		net = max(gross-rawPackaging, 0)
	}
	if net <= 0 && weight > 0 {
		net = weight
	}

	if gross <= 0 && packQty > 0 {
		if est, ok := h.Estimate(Gross, keys, packQty); ok {
			gross = est
		}
	}
	if net <= 0 && packQty > 0 {
		if est, ok := h.Estimate(Net, keys, packQty); ok {
			net = est
		}
	}

	packaging := rawPackaging
	if !(packaging > 0) && packQty > 0 {
		if avg, ok := h.AveragePerPack(Packaging, keys); ok {
			packaging = avg * packQty
		}
	}

	if gross <= 0 && net > 0 {
		gross = net + max(packaging, 0)
	}

	return rowWeights{
		grossKg:     max(gross, 0),
		packagingKg: max(packaging, 0),
	}
}

// Aggregate groups rows into (variety, season, block, date) buckets and
// returns one record per bucket, sorted by timestamp. Rows without a
// parseable date are dropped.
func Aggregate(rows []teamdesk.Row, cfg *reference.ServerConfig) []Record {
	start := time.Now()
	h := BuildHeuristics(rows)

	buckets := make(map[bucketKey]*bucket)
	var order []*bucket
	dropped := 0

	for _, row := range rows {
		date, ok := ResolveDate(row)
		if !ok {
			dropped++
			continue
		}

		block := ResolveBlock(row, cfg)
		key := bucketKey{
			variety: ResolveVariety(row),
			season:  ResolveSeason(row, date),
			block:   block,
			date:    date,
		}
		b, ok := buckets[key]
		if !ok {
			b = newBucket(key)
			buckets[key] = b
			order = append(order, b)
		}

		packQty := row.PackQty.FloatOr(0)
		if puc, ok := ResolvePuc(row, cfg, block); ok {
			vote := 1.0
			if packQty > 0 {
				vote = packQty
			}
			b.pucVotes.add(puc, vote)
		}

		w := resolveWeights(row, h, HeuristicKeys(row), packQty)
		b.tonsTipped += w.grossKg / 1000
		b.packagingKg += w.packagingKg

		if packQty > 0 {
			if class, ok := ResolveGradeClass(row, cfg); ok {
				b.classes[class] += packQty
			}
			spread, hasSpread := ResolveSpread(row, cfg)
			if hasSpread {
				b.spreads.add(spread, packQty)
			}
			distributor := ResolveDistributor(row, cfg)
			b.distributors.add(distributor, packQty)
			if hasSpread {
				b.addCross(distributor, spread, packQty)
			}
			if market, ok := ResolveMarket(row, cfg); ok {
				b.markets.add(market, packQty)
			}
		}

		if pallet := row.PalletValue().String(); pallet != "" {
			b.bins[pallet] = struct{}{}
		}
	}

	records := make([]Record, 0, len(order))
	for _, b := range order {
		records = append(records, finalize(b, cfg))
	}
	slices.SortStableFunc(records, func(a, b Record) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})

	log.Debug().
		Str("client", cfg.Slug).
		Int("rows", len(rows)).
		Int("dropped", dropped).
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("Aggregation complete")

	return records
}

// round reports non-finite values as 0.
func round(v float64, places int32) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func finalize(b *bucket, cfg *reference.ServerConfig) Record {
	var timestamp int64
	if day, err := time.Parse(time.DateOnly, b.key.date); err == nil {
		timestamp = day.UnixMilli()
	}

	// Packaging is divided by 100, not 1000; downstream charts are calibrated
	// against this value.
	packagingTons := b.packagingKg / 100
	ratio := 0.0
	if b.tonsTipped > 0 {
		if r := packagingTons / b.tonsTipped; isFinite(r) {
			ratio = min(max(r, 0), maxPackPercentage)
		}
	}

	rec := Record{
		Variety:         b.key.variety,
		Season:          b.key.season,
		Block:           b.key.block,
		Date:            b.key.date,
		Timestamp:       timestamp,
		TonsTipped:      round(b.tonsTipped, 3),
		CtnWeight:       round(packagingTons, 3),
		BinsTipped:      len(b.bins),
		ClassI:          reference.RoundCount(b.classes[reference.ClassI]),
		ClassII:         reference.RoundCount(b.classes[reference.ClassII]),
		ClassIII:        reference.RoundCount(b.classes[reference.ClassIII]),
		PackPercentage:  round(ratio, 4),
		PackingProgress: packingProgress(b, cfg),
	}

	for _, distributor := range b.crossTabKeys {
		spreads := b.crossTab[distributor]
		for _, spread := range spreads.keys {
			if v := spreads.get(spread); v > 0 {
				rec.DistributorSpreads = append(rec.DistributorSpreads, DistributorSpreadTotal{
					Distributor: distributor,
					Spread:      spread,
					Value:       reference.RoundCount(v),
				})
			}
		}
	}

	if puc, ok := topVote(b.pucVotes); ok {
		rec.Puc = puc
	} else if puc, ok := cfg.BlockToPuc.Lookup(b.key.block); ok {
		rec.Puc = puc
	}

	return rec
}

// topVote returns the highest-voted key; ties go to the earliest key.
func topVote(t *tally) (string, bool) {
	best, found := "", false
	var bestVotes float64
	for _, k := range t.keys {
		if v := t.get(k); !found || v > bestVotes {
			best, bestVotes, found = k, v, true
		}
	}
	return best, found
}

// packingProgress lists spreads, distributors and markets. Each group starts
// with the configured keys, zero-valued when unobserved, followed by any
// observed keys missing from the config.
func packingProgress(b *bucket, cfg *reference.ServerConfig) []PackingProgressMetric {
	size := len(cfg.SpreadOrder) + len(cfg.DistributorOrder) + len(cfg.MarketOrder) +
		b.spreads.len() + b.distributors.len() + b.markets.len()
	out := make([]PackingProgressMetric, 0, size)
	included := make(map[string]struct{}, size)

	emit := func(configured []string, observed *tally) {
		for _, key := range configured {
			out = append(out, PackingProgressMetric{Key: key, Label: key, Value: finiteOrZero(observed.get(key))})
			included[key] = struct{}{}
		}
		for _, key := range observed.keys {
			if _, ok := included[key]; ok {
				continue
			}
			out = append(out, PackingProgressMetric{Key: key, Label: key, Value: finiteOrZero(observed.get(key))})
			included[key] = struct{}{}
		}
	}

	emit(cfg.SpreadOrder, b.spreads)
	emit(cfg.DistributorOrder, b.distributors)
	emit(cfg.MarketOrder, b.markets)
	return out
}
