package packhouse

import (
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"
)

// testConfig mirrors what the loader builds for a small tenant.
func testConfig() *reference.ServerConfig {
	cfg := reference.NewServerConfig("test")

	cfg.GradeToClass.Put("1a", reference.ClassI)
	cfg.GradeToClass.Put("export-1", reference.ClassI)
	cfg.GradeToClass.Put("export 1", reference.ClassI)
	cfg.GradeToClass.Put("2a", reference.ClassII)
	cfg.GradeToClass.Put("juice", reference.ClassIII)

	cfg.SpreadOrder = []string{"Large", "Small"}
	cfg.SpreadLookup[48] = "Large"
	cfg.SpreadLookup[72] = "Small"

	cfg.DistributorOrder = []string{"ACME", "Fresh Co"}
	cfg.DistributorAliases.Put("acme", "ACME")
	cfg.DistributorAliases.Put("acme corp", "ACME")
	cfg.DistributorAliases.Put("fresh co", "Fresh Co")
	cfg.DistributorPatterns = []reference.Pattern{
		{Pattern: "acme", Canonical: "ACME"},
		{Pattern: "acme corp", Canonical: "ACME"},
		{Pattern: "fresh co", Canonical: "Fresh Co"},
	}

	cfg.MarketOrder = []string{"uk", "za"}
	cfg.MarketAliases.Put("uk", "uk")
	cfg.MarketAliases.Put("za", "za")
	cfg.MarketAliases.Override("gb", "uk")

	cfg.BlockLookup.Add("A1", "A1")
	cfg.BlockLookup.Add("7", "A1")
	cfg.BlockLookup.Add("Block B-2", "B2")
	cfg.BlockToPuc.Add("A1", "P100")
	cfg.BlockToPuc.Add("7", "P100")
	cfg.BlockToPuc.Add("Farm North", "P-North")

	return cfg
}

func baseRow() teamdesk.Row {
	return teamdesk.Row{
		Timestamp: teamdesk.Text("2024-03-01T10:00:00Z"),
		Cultivar:  teamdesk.Text("Valencia"),
		Seasons:   teamdesk.Text("2024"),
		Block:     teamdesk.Text("A1"),
	}
}
