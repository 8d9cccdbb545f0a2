package rollup

import (
	"errors"
	"math"
	"testing"

	"packhouse-temporal/internal/packhouse"
)

func rec(date string, tons float64, pack float64, classI int) packhouse.Record {
	return packhouse.Record{
		Date:           date,
		TonsTipped:     tons,
		CtnWeight:      tons / 10,
		BinsTipped:     1,
		ClassI:         classI,
		PackPercentage: pack,
		PackingProgress: []packhouse.PackingProgressMetric{
			{Key: "Large", Label: "Large", Value: float64(classI)},
		},
		DistributorSpreads: []packhouse.DistributorSpreadTotal{
			{Distributor: "Fresh Co", Spread: "Large", Value: classI},
			{Distributor: "fresh-co", Spread: "Small", Value: 1},
		},
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in   string
		want Granularity
		err  bool
	}{
		{"", Daily, false},
		{"Weekly", Weekly, false},
		{" monthly ", Monthly, false},
		{"yearly", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGranularity(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseGranularity(%q) = (%q, %v)", tt.in, got, err)
		}
		if tt.err && !errors.Is(err, ErrGranularity) {
			t.Errorf("expected ErrGranularity, got %v", err)
		}
	}
}

func TestRollup_Weekly(t *testing.T) {
	records := []packhouse.Record{
		rec("2024-03-06", 0.1, 0.2, 10), // Wednesday, week 10
		rec("2024-01-01", 1, 0.5, 5),    // Monday, week 1
		rec("2024-03-04", 0.2, 0.4, 20), // Monday, week 10
		rec("2024-03-10", 0.3, 0.3, 1),  // Sunday, week 10
		rec("garbage", 9, 9, 9),
	}

	periods := Rollup(records, Weekly)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d: %+v", len(periods), periods)
	}

	first, second := periods[0], periods[1]
	if first.Key != "2024-W01" || second.Key != "2024-W10" {
		t.Errorf("keys = %s, %s", first.Key, second.Key)
	}
	if got := second.Start.Format("2006-01-02"); got != "2024-03-04" {
		t.Errorf("week start = %s, want 2024-03-04", got)
	}
	if second.TonsTipped != 0.6 {
		t.Errorf("TonsTipped = %v, want 0.6", second.TonsTipped)
	}
	if second.BinsTipped != 3 || second.ClassI != 31 {
		t.Errorf("bins/classI = %d/%d, want 3/31", second.BinsTipped, second.ClassI)
	}
	if second.PackPercentage != 0.3 {
		t.Errorf("PackPercentage = %v, want mean 0.3", second.PackPercentage)
	}
	if second.PackingProgress["Large"] != 31 {
		t.Errorf("packing Large = %v, want 31", second.PackingProgress["Large"])
	}
	// "Fresh Co" and "fresh-co" share the slug key; the first label wins.
	if second.DistributorTotals["fresh-co"] != 34 || second.DistributorLabels["fresh-co"] != "Fresh Co" {
		t.Errorf("distributor totals = %v, labels = %v", second.DistributorTotals, second.DistributorLabels)
	}
}

func TestRollup_ISOWeekCrossesYear(t *testing.T) {
	periods := Rollup([]packhouse.Record{rec("2024-12-30", 1, 0, 0)}, Weekly)
	if len(periods) != 1 || periods[0].Key != "2025-W01" || periods[0].Year != 2025 {
		t.Errorf("expected 2025-W01, got %+v", periods)
	}
}

func TestRollup_MonthlyAndDaily(t *testing.T) {
	records := []packhouse.Record{
		rec("2024-02-29", 1, 0, 0),
		rec("2024-03-01", 1, 0, 0),
		rec("2024-03-31", 1, 0, 0),
	}

	monthly := Rollup(records, Monthly)
	if len(monthly) != 2 || monthly[0].Key != "2024-02" || monthly[1].Key != "2024-03" {
		t.Fatalf("unexpected monthly periods: %+v", monthly)
	}
	if monthly[1].Label != "Mar" || monthly[1].PeriodIdentifier != "M03" || monthly[1].TonsTipped != 2 {
		t.Errorf("unexpected March period: %+v", monthly[1])
	}

	daily := Rollup(records, Daily)
	if len(daily) != 3 || daily[0].Label != "Feb 29" || daily[0].PeriodIdentifier != "D02-29" {
		t.Errorf("unexpected daily periods: %+v", daily)
	}
}

func TestRollup_OverflowingSumsReportZero(t *testing.T) {
	a := rec("2024-03-04", math.MaxFloat64, 0.5, 1)
	b := rec("2024-03-05", math.MaxFloat64, 0.5, 1)
	a.PackingProgress[0].Value = math.MaxFloat64
	b.PackingProgress[0].Value = math.MaxFloat64

	periods := Rollup([]packhouse.Record{a, b}, Weekly)
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	p := periods[0]
	if p.TonsTipped != 0 {
		t.Errorf("TonsTipped = %v, want 0 on overflow", p.TonsTipped)
	}
	if got := p.PackingProgress["Large"]; got != 0 {
		t.Errorf("PackingProgress[Large] = %v, want 0 on overflow", got)
	}
	if p.PackPercentage != 0.5 {
		t.Errorf("PackPercentage = %v, want 0.5", p.PackPercentage)
	}
}
