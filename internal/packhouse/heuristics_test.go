package packhouse

import (
	"math"
	"reflect"
	"testing"

	"packhouse-temporal/internal/teamdesk"
)

func TestHeuristicKeys(t *testing.T) {
	tests := []struct {
		name string
		row  teamdesk.Row
		want []string
	}{
		{
			name: "FullySpecified",
			row: teamdesk.Row{
				Client:    teamdesk.Text(" ACME "),
				PackType:  teamdesk.Text("CTN"),
				CountSize: teamdesk.Number(71.6),
			},
			want: []string{
				"acme|ctn|72", "acme|ctn|*", "*|ctn|72", "*|ctn|*",
				"acme|*|72", "acme|*|*", "*|*|72", "*|*|*",
			},
		},
		{
			name: "ClientOnly",
			row:  teamdesk.Row{Client: teamdesk.Text("ACME"), CountSize: teamdesk.Number(0)},
			want: []string{"acme|*|*", "*|*|*"},
		},
		{
			name: "Empty",
			row:  teamdesk.Row{},
			want: []string{"*|*|*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeuristicKeys(tt.row); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeuristicKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildHeuristics(t *testing.T) {
	rows := []teamdesk.Row{
		{
			Client: teamdesk.Text("ACME"), PackType: teamdesk.Text("CTN"), CountSize: teamdesk.Number(72),
			PackQty: teamdesk.Number(10), Weight: teamdesk.Number(100), PackagingWeight: teamdesk.Number(5),
		},
		{
			Client: teamdesk.Text("Other"), PackType: teamdesk.Text("CTN"), CountSize: teamdesk.Number(72),
			PackQty: teamdesk.Text("20"), PalletWeight: teamdesk.Number(400), PackagingWeight: teamdesk.Number(40),
		},
		// No pack quantity: ignored.
		{Client: teamdesk.Text("ACME"), Weight: teamdesk.Number(9999)},
	}
	h := BuildHeuristics(rows)

	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	acme := HeuristicKeys(rows[0])
	if got, ok := h.AveragePerPack(Gross, acme); !ok || !near(got, 10.5) {
		t.Errorf("acme gross per pack = %v (%v), want 10.5", got, ok)
	}
	if got, ok := h.AveragePerPack(Net, acme); !ok || !near(got, 10) {
		t.Errorf("acme net per pack = %v (%v), want 10", got, ok)
	}

	// Only the wildcarded keys see both rows: (105 + 400) / 30.
	if got, ok := h.AveragePerPack(Gross, []string{"*|ctn|72"}); !ok || !near(got, 505.0/30) {
		t.Errorf("*|ctn|72 gross per pack = %v, want %v", got, 505.0/30)
	}
	if got, ok := h.AveragePerPack(Packaging, []string{"*|*|*"}); !ok || !near(got, 45.0/30) {
		t.Errorf("packaging per pack = %v, want %v", got, 45.0/30)
	}

	unknown := HeuristicKeys(teamdesk.Row{Client: teamdesk.Text("Nobody"), PackType: teamdesk.Text("BIN")})
	if got, ok := h.Estimate(Gross, unknown, 2); !ok || !near(got, 2*505.0/30) {
		t.Errorf("estimate should fall back to the full wildcard, got %v (%v)", got, ok)
	}
	if _, ok := h.Estimate(Gross, unknown, 0); ok {
		t.Error("estimate with zero packs should report no value")
	}
	if _, ok := BuildHeuristics(nil).AveragePerPack(Gross, acme); ok {
		t.Error("empty heuristics should report no value")
	}
}
