package reference

// Grade classes a grade alias can map to.
const (
	ClassI   = "Class I"
	ClassII  = "Class II"
	ClassIII = "Class III"
)

// Pattern is a substring fallback for distributor resolution.
type Pattern struct {
	Pattern   string
	Canonical string
}

// ServerConfig is the immutable reference data for one tenant.
type ServerConfig struct {
	Slug string

	GradeToClass *KeyIndex

	SpreadOrder  []string
	SpreadLookup map[int]string

	DistributorOrder    []string
	DistributorAliases  *KeyIndex
	DistributorPatterns []Pattern

	MarketOrder   []string
	MarketAliases *KeyIndex

	BlockLookup *KeyIndex
	BlockToPuc  *KeyIndex

	Master []MasterRecord
}

// marketOverrides are applied after the configured market codes and replace
// any alias with the same key.
var marketOverrides = map[string]string{
	"gb": "uk",
}

// NewServerConfig returns an empty config with initialised indexes.
func NewServerConfig(slug string) *ServerConfig {
	return &ServerConfig{
		Slug:               slug,
		GradeToClass:       NewKeyIndex(),
		SpreadLookup:       make(map[int]string),
		DistributorAliases: NewKeyIndex(),
		MarketAliases:      NewKeyIndex(),
		BlockLookup:        NewKeyIndex(),
		BlockToPuc:         NewKeyIndex(),
	}
}

func isClass(name string) bool {
	switch name {
	case ClassI, ClassII, ClassIII:
		return true
	}
	return false
}
