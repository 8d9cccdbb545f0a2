package rollup

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"packhouse-temporal/internal/packhouse"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

var ErrGranularity = errors.New("granularity must be daily, weekly or monthly")

// ParseGranularity defaults an empty value to daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrGranularity, s)
}

// Period is the sum of all records falling into one day, ISO week or month.
type Period struct {
	Key              string    `json:"key"`
	Year             int       `json:"year"`
	PeriodIdentifier string    `json:"periodIdentifier"`
	Label            string    `json:"label"`
	Tooltip          string    `json:"tooltip"`
	Start            time.Time `json:"start"`

	TonsTipped     float64 `json:"tonsTipped"`
	CtnWeight      float64 `json:"ctnWeight"`
	BinsTipped     int     `json:"binsTipped"`
	PackPercentage float64 `json:"packPercentage"`
	ClassI         int     `json:"classI"`
	ClassII        int     `json:"classII"`
	ClassIII       int     `json:"classIII"`

	PackingProgress   map[string]float64 `json:"packingProgress"`
	DistributorTotals map[string]int     `json:"distributorTotals"`
	DistributorLabels map[string]string  `json:"distributorLabels"`
}

type accumulator struct {
	Period
	tons, ctn decimal.Decimal
	packSum   float64
	packCount int
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// distributorIdentity slugs a distributor label so near-identical names
// share one total.
func distributorIdentity(name string) (key, label string) {
	label = strings.TrimSpace(name)
	if label == "" {
		label = packhouse.Unassigned
	}
	key = nonAlnum.ReplaceAllString(strings.ToLower(label), "-")
	if key == "" {
		key = "unassigned"
	}
	return key, label
}

func periodFor(day time.Time, g Granularity) Period {
	switch g {
	case Weekly:
		year, week := day.ISOWeek()
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Period{
			Key:              fmt.Sprintf("%d-W%02d", year, week),
			Year:             year,
			PeriodIdentifier: fmt.Sprintf("W%02d", week),
			Label:            fmt.Sprintf("Week %d", week),
			Tooltip:          fmt.Sprintf("Week %d, %d", week, year),
			Start:            start,
		}
	case Monthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Key:              start.Format("2006-01"),
			Year:             day.Year(),
			PeriodIdentifier: "M" + start.Format("01"),
			Label:            start.Format("Jan"),
			Tooltip:          start.Format("Jan 2006"),
			Start:            start,
		}
	default:
		return Period{
			Key:              day.Format(time.DateOnly),
			Year:             day.Year(),
			PeriodIdentifier: "D" + day.Format("01-02"),
			Label:            day.Format("Jan 2"),
			Tooltip:          day.Format("Jan 2, 2006"),
			Start:            day,
		}
	}
}

// Rollup groups records by period, sorted by period start. Quantities are
// summed; packPercentage is the mean over the member records. Records with
// an unparseable date are skipped.
func Rollup(records []packhouse.Record, g Granularity) []Period {
	groups := make(map[string]*accumulator)
	var order []*accumulator

	for _, rec := range records {
		day, err := time.Parse(time.DateOnly, rec.Date)
		if err != nil {
			continue
		}
		p := periodFor(day, g)

		acc, ok := groups[p.Key]
		if !ok {
			p.PackingProgress = make(map[string]float64)
			p.DistributorTotals = make(map[string]int)
			p.DistributorLabels = make(map[string]string)
			acc = &accumulator{Period: p}
			groups[p.Key] = acc
			order = append(order, acc)
		}

		acc.tons = acc.tons.Add(decimal.NewFromFloat(rec.TonsTipped))
		acc.ctn = acc.ctn.Add(decimal.NewFromFloat(rec.CtnWeight))
		acc.BinsTipped += rec.BinsTipped
		acc.ClassI += rec.ClassI
		acc.ClassII += rec.ClassII
		acc.ClassIII += rec.ClassIII
		acc.packSum += rec.PackPercentage
		acc.packCount++

		for _, m := range rec.PackingProgress {
			acc.PackingProgress[m.Key] += m.Value
		}
		for _, ds := range rec.DistributorSpreads {
			if ds.Value <= 0 {
				continue
			}
			key, label := distributorIdentity(ds.Distributor)
			acc.DistributorTotals[key] += ds.Value
			if _, ok := acc.DistributorLabels[key]; !ok {
				acc.DistributorLabels[key] = label
			}
		}
	}

	slices.SortStableFunc(order, func(a, b *accumulator) int {
		return a.Start.Compare(b.Start)
	})

	out := make([]Period, 0, len(order))
	for _, acc := range order {
		p := acc.Period
		p.TonsTipped = finiteOrZero(acc.tons.InexactFloat64())
		p.CtnWeight = finiteOrZero(acc.ctn.InexactFloat64())
		for k, v := range p.PackingProgress {
			p.PackingProgress[k] = finiteOrZero(v)
		}
		if acc.packCount > 0 {
			p.PackPercentage = decimal.NewFromFloat(acc.packSum / float64(acc.packCount)).Round(4).InexactFloat64()
		}
		out = append(out, p)
	}
	return out
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
