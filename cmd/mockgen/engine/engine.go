package engine

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"packhouse-temporal/internal/teamdesk"
)

// Scenarios understood by Generate.
const (
	Clean  = "clean"
	Sparse = "sparse"
	Messy  = "messy"
)

type GeneratorConfig struct {
	Scenario   string
	Client     string
	Days       int
	RowsPerDay int
	Now        time.Time
	Seed       int64
}

type block struct {
	id      int
	name    string
	variety string
	puc     string
	area    float64
}

var blocks = []block{
	{1, "A1", "Nadorcott", "P1001", 2.4},
	{2, "A2", "Nadorcott", "P1001", 1.8},
	{3, "B10", "Valencia", "P1002", 3.1},
	{4, "B2", "Valencia", "P1002", 2.2},
	{5, "C1", "Navel", "P1003", 4.0},
}

var (
	grades  = []string{"1", "1X", "2", "3"}
	counts  = []int{48, 56, 64, 72, 88, 105}
	brands  = []string{"Fresh Co", "FC", "Sun Fruit", "sunfruit intl"}
	markets = []string{"UK", "GB", "EU", "ME", "FE"}
)

// Generate produces palletizing rows for cfg.Days days ending at cfg.Now.
// Rows per pallet share a Pallet ID so bin counts stay below row counts.
func Generate(cfg GeneratorConfig) []teamdesk.Row {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	if cfg.RowsPerDay <= 0 {
		cfg.RowsPerDay = 40
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	start := time.Date(cfg.Now.Year(), cfg.Now.Month(), cfg.Now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -cfg.Days+1)
	season := strconv.Itoa(start.Year())

	var rows []teamdesk.Row
	id := 0
	for d := 0; d < cfg.Days; d++ {
		day := start.AddDate(0, 0, d)
		for i := 0; i < cfg.RowsPerDay; i++ {
			id++
			b := blocks[rng.Intn(len(blocks))]
			packQty := float64(40 + rng.Intn(80))
			perPack := 15.0 + rng.Float64()*3
			packaging := 0.6 * packQty
			ts := day.Add(time.Duration(6*60+rng.Intn(12*60)) * time.Minute)

			row := teamdesk.Row{
				Timestamp:       teamdesk.Text(ts.Format(time.RFC3339)),
				Seasons:         teamdesk.Text(season),
				Cultivar:        teamdesk.Text(b.variety),
				Block:           teamdesk.Text(b.name),
				ProductionUnit:  teamdesk.Text(b.puc),
				Grade:           teamdesk.Text(grades[rng.Intn(len(grades))]),
				CountSize:       teamdesk.Number(float64(counts[rng.Intn(len(counts))])),
				Brand:           teamdesk.Text(brands[rng.Intn(len(brands))]),
				TargetMarket:    teamdesk.Text(markets[rng.Intn(len(markets))]),
				PackQty:         teamdesk.Number(packQty),
				Weight:          teamdesk.Number(round2(perPack * packQty)),
				PackagingWeight: teamdesk.Number(round2(packaging)),
				PalletID:        teamdesk.Text(fmt.Sprintf("PAL-%05d", 1+(id-1)/3)),
				ID:              teamdesk.Number(float64(id)),
			}

			switch cfg.Scenario {
			case Sparse:
				// Drop weights so the heuristics have to fill them in.
				if rng.Float64() < 0.4 {
					row.Weight = teamdesk.Value{}
					row.PackagingWeight = teamdesk.Value{}
				}
				if rng.Float64() < 0.2 {
					row.PackQty = teamdesk.Value{}
				}
			case Messy:
				mess(rng, &row, b, ts)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// mess perturbs a row the way hand-entered TeamDesk data tends to look.
func mess(rng *rand.Rand, row *teamdesk.Row, b block, ts time.Time) {
	switch rng.Intn(8) {
	case 0:
		row.Block = teamdesk.Value{}
		row.BlockNo = teamdesk.Text(strconv.Itoa(b.id))
	case 1:
		row.Block = teamdesk.Text(" " + b.name + " ")
	case 2:
		row.Timestamp = teamdesk.Value{}
		row.DateCreated = teamdesk.Text(ts.Format("2006-01-02 15:04"))
	case 3:
		row.Grade = teamdesk.Text("Class 9")
	case 4:
		kg := int(row.Weight.FloatOr(0))
		row.Weight = teamdesk.Text(fmt.Sprintf("%d,%03d", kg/1000, kg%1000))
	case 5:
		row.Cultivar = teamdesk.Value{}
		row.Variety = teamdesk.Text(b.variety)
	case 6:
		row.ProductionUnit = teamdesk.Value{}
	case 7:
		row.Timestamp = teamdesk.Value{}
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

type member struct {
	key   string
	value any
}

// object marshals its members in declaration order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// referenceFiles returns the tenant reference documents keyed by path
// relative to the tenant directory.
func referenceFiles() map[string]any {
	return map[string]any{
		"packhouse/packhouse-class.json": object{{"classes", object{
			{"Class I", []string{"1", "1X"}},
			{"Class II", []string{"2"}},
			{"Class III", []string{"3"}},
		}}},
		"packhouse/packhouse-spread.json": object{{"spreads", object{
			{"Large", []int{48, 56}},
			{"Medium", []int{64, 72}},
			{"Small", []int{88, 105}},
		}}},
		"packhouse/packhouse-distributors.json": object{{"distributors", object{
			{"Fresh Co", []string{"FC", "Fresh Co Ltd"}},
			{"Sun Fruit", []string{"Sunfruit Intl"}},
		}}},
		"packhouse/packhouse-markets.json": object{{"markets", []string{"UK", "EU", "ME", "FE"}}},
	}
}

func masterCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Variety", "PUC", "Block", "Area", "Description"})
	for _, b := range blocks {
		_ = w.Write([]string{
			strconv.Itoa(b.id), b.variety, b.puc, b.name,
			strconv.FormatFloat(b.area, 'f', 1, 64), b.variety + " block " + b.name,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func blockExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Block No", "Id", "@row.id", "Production Unit Name"})
	for _, b := range blocks {
		_ = w.Write([]string{b.name, strconv.Itoa(100 + b.id), strconv.Itoa(9000 + b.id), b.puc})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Save writes rows.json under outDir and the tenant reference files under
// outDir/{client}.
func Save(outDir, client string, rows []teamdesk.Row) error {
	tenant := filepath.Join(outDir, client)
	for _, dir := range []string{filepath.Join(tenant, "packhouse"), filepath.Join(tenant, "api")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := teamdesk.WriteRowsFile(filepath.Join(outDir, "rows.json"), rows); err != nil {
		return err
	}

	for rel, doc := range referenceFiles() {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", rel, err)
		}
		if err := os.WriteFile(filepath.Join(tenant, rel), data, 0644); err != nil {
			return err
		}
	}

	master, err := masterCSV()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tenant, "master-config.csv"), master, 0644); err != nil {
		return err
	}

	export, err := blockExportCSV()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(tenant, "api", "teamdesk_block_power_bi.csv"), export, 0644)
}
