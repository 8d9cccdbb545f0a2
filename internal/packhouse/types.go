package packhouse

// PackingProgressMetric is one spread, distributor or market pack total.
type PackingProgressMetric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DistributorSpreadTotal is one cell of the distributor by spread cross-tab.
type DistributorSpreadTotal struct {
	Distributor string `json:"distributor"`
	Spread      string `json:"spread"`
	Value       int    `json:"value"`
}

// Record is the aggregate for one (variety, season, block, date) bucket.
type Record struct {
	Variety            string                   `json:"variety"`
	Season             string                   `json:"season"`
	Block              string                   `json:"block"`
	Date               string                   `json:"date"`
	Timestamp          int64                    `json:"timestamp"`
	TonsTipped         float64                  `json:"tonsTipped"`
	CtnWeight          float64                  `json:"ctnWeight"`
	BinsTipped         int                      `json:"binsTipped"`
	ClassI             int                      `json:"classI"`
	ClassII            int                      `json:"classII"`
	ClassIII           int                      `json:"classIII"`
	PackPercentage     float64                  `json:"packPercentage"`
	PackingProgress    []PackingProgressMetric  `json:"packingProgress"`
	Puc                string                   `json:"puc,omitempty"`
	DistributorSpreads []DistributorSpreadTotal `json:"distributorSpreads,omitempty"`
}

// tally is an insertion-ordered running total.
type tally struct {
	keys   []string
	values map[string]float64
}

func newTally() *tally {
	return &tally{values: make(map[string]float64)}
}

func (t *tally) add(key string, v float64) {
	if key == "" {
		return
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] += v
}

func (t *tally) get(key string) float64 {
	return t.values[key]
}

func (t *tally) len() int {
	return len(t.keys)
}
