package packhouse

import (
	"math"
	"strconv"
	"strings"
	"time"

	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"
)

const (
	// Unassigned is the distributor for rows without a brand.
	Unassigned = "Unassigned"
	// AllBlocks is the block for rows without a block value.
	AllBlocks = "all"
	// UnknownVariety is the variety for rows without cultivar or variety.
	UnknownVariety = "Unknown"
)

// ResolveDate returns the UTC calendar day of the first parseable date
// column, checked in Timestamp, Date Modified, Date Completed, Date Created
// order.
func ResolveDate(row teamdesk.Row) (string, bool) {
	for _, v := range []teamdesk.Value{row.Timestamp, row.DateModified, row.DateCompleted, row.DateCreated} {
		if t, ok := v.Time(); ok {
			return t.UTC().Format(time.DateOnly), true
		}
	}
	return "", false
}

// ResolveSeason prefers the Seasons column. Numeric seasons outside
// 1900..3000 fall back to the year of isoDate; non-numeric text is kept.
func ResolveSeason(row teamdesk.Row, isoDate string) string {
	fallback := isoDate
	if len(fallback) >= 4 {
		fallback = fallback[:4]
	}

	explicit := row.Seasons.String()
	if explicit == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(explicit, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return explicit
	}
	year := math.Trunc(n)
	if year >= 1900 && year <= 3000 {
		return strconv.Itoa(int(year))
	}
	return fallback
}

func ResolveVariety(row teamdesk.Row) string {
	if v := row.Cultivar.String(); v != "" {
		return v
	}
	if v := row.Variety.String(); v != "" {
		return v
	}
	return UnknownVariety
}

// ResolveBlock maps the row's block to its canonical name. Unknown blocks
// keep their display value.
func ResolveBlock(row teamdesk.Row, cfg *reference.ServerConfig) string {
	display := row.BlockValue().String()
	if display == "" {
		return AllBlocks
	}
	if canonical, ok := cfg.BlockLookup.Lookup(display); ok {
		return canonical
	}
	if n, ok := teamdesk.Text(display).Float(); ok {
		if canonical, ok := cfg.BlockLookup.Lookup(strconv.Itoa(reference.RoundCount(n))); ok {
			return canonical
		}
	}
	return display
}

// ResolvePuc prefers an explicit production-unit column, mapped through the
// block PUC index when possible. Without one, the resolved block and the
// row's identity columns are tried against the index.
func ResolvePuc(row teamdesk.Row, cfg *reference.ServerConfig, block string) (string, bool) {
	if direct := row.DirectPuc().String(); direct != "" {
		if puc, ok := cfg.BlockToPuc.Lookup(direct); ok {
			return puc, true
		}
		return direct, true
	}

	candidates := []string{block, row.Block.String(), row.BlockNo.String(), row.ID.String(), row.RowID.String()}
	for _, c := range candidates {
		if puc, ok := cfg.BlockToPuc.Lookup(c); ok {
			return puc, true
		}
	}
	return "", false
}

func ResolveGradeClass(row teamdesk.Row, cfg *reference.ServerConfig) (string, bool) {
	grade := row.Grade.Key()
	if grade == "" {
		grade = row.Class.Key()
	}
	if grade == "" {
		return "", false
	}
	if class, ok := cfg.GradeToClass.Get(grade); ok {
		return class, true
	}
	sanitized := reference.SanitizeKey(grade)
	if sanitized == "" || sanitized == grade {
		return "", false
	}
	return cfg.GradeToClass.Get(sanitized)
}

func ResolveSpread(row teamdesk.Row, cfg *reference.ServerConfig) (string, bool) {
	n, ok := row.CountSize.Float()
	if !ok {
		return "", false
	}
	label, ok := cfg.SpreadLookup[reference.RoundCount(n)]
	return label, ok
}

// resolveDistributorAlias tries exact aliases before substring patterns.
// Patterns are scanned in declaration order against the sanitized needle
// first, then the normalized one.
func resolveDistributorAlias(v teamdesk.Value, cfg *reference.ServerConfig) (string, bool) {
	normalized := v.Key()
	if normalized == "" {
		return "", false
	}
	if canonical, ok := cfg.DistributorAliases.Get(normalized); ok {
		return canonical, true
	}

	if sanitized := reference.SanitizeKey(normalized); sanitized != "" {
		if canonical, ok := cfg.DistributorAliases.Get(sanitized); ok {
			return canonical, true
		}
		if canonical, ok := matchPattern(cfg.DistributorPatterns, sanitized); ok {
			return canonical, true
		}
	}
	return matchPattern(cfg.DistributorPatterns, normalized)
}

func matchPattern(patterns []reference.Pattern, needle string) (string, bool) {
	for _, p := range patterns {
		if p.Pattern != "" && strings.Contains(needle, p.Pattern) {
			return p.Canonical, true
		}
	}
	return "", false
}

// ResolveDistributor resolves the brand, then the client, order, pack type
// and market columns as alias candidates. An unmatched brand is kept as-is.
func ResolveDistributor(row teamdesk.Row, cfg *reference.ServerConfig) string {
	brand := row.Brand.String()
	if brand == "" {
		return Unassigned
	}
	candidates := []teamdesk.Value{row.Brand, row.Client, row.ClientOrder, row.PackType, row.TargetMarket, row.TargetCountry}
	for _, c := range candidates {
		if canonical, ok := resolveDistributorAlias(c, cfg); ok {
			return canonical
		}
	}
	return brand
}

func ResolveMarket(row teamdesk.Row, cfg *reference.ServerConfig) (string, bool) {
	for _, c := range []teamdesk.Value{row.TargetCountry, row.TargetMarket, row.Client, row.Brand} {
		normalized := c.Key()
		if normalized == "" {
			continue
		}
		if code, ok := cfg.MarketAliases.Get(normalized); ok {
			return code, true
		}
		if sanitized := reference.SanitizeKey(normalized); sanitized != "" {
			if code, ok := cfg.MarketAliases.Get(sanitized); ok {
				return code, true
			}
		}
	}
	return "", false
}
