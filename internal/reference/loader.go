package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	classFile       = "packhouse-class.json"
	spreadFile      = "packhouse-spread.json"
	distributorFile = "packhouse-distributors.json"
	marketFile      = "packhouse-markets.json"
	masterFile      = "master-config.csv"
	blockExportFile = "teamdesk_block_power_bi.csv"
)

// ErrInvalidSlug is returned for client slugs that would escape the data root.
var ErrInvalidSlug = errors.New("invalid client slug")

// ValidateSlug rejects empty slugs and anything containing a path element.
func ValidateSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// Loader builds and caches ServerConfig per client slug. Entries live until
// they are invalidated explicitly.
type Loader struct {
	root string

	mu    sync.Mutex
	cache map[string]*ServerConfig
}

func NewLoader(root string) *Loader {
	return &Loader{
		root:  root,
		cache: make(map[string]*ServerConfig),
	}
}

// Root is the directory that holds one sub-directory per client.
func (l *Loader) Root() string {
	return l.root
}

// Load returns the cached config for slug, building it on first use. Missing
// files produce empty sections; malformed JSON is an error.
func (l *Loader) Load(slug string) (*ServerConfig, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg, ok := l.cache[slug]; ok {
		log.Debug().Str("client", slug).Msg("Reference config cache hit")
		return cfg, nil
	}

	start := time.Now()
	cfg, err := Build(filepath.Join(l.root, slug), slug)
	if err != nil {
		return nil, err
	}
	l.cache[slug] = cfg

	log.Info().
		Str("client", slug).
		Int("grades", cfg.GradeToClass.Len()).
		Int("spreads", len(cfg.SpreadOrder)).
		Int("distributors", len(cfg.DistributorOrder)).
		Int("markets", len(cfg.MarketOrder)).
		Int("blockKeys", cfg.BlockLookup.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Reference config loaded")

	return cfg, nil
}

// Invalidate drops the cached config for slug.
func (l *Loader) Invalidate(slug string) {
	l.mu.Lock()
	delete(l.cache, slug)
	l.mu.Unlock()
}

// InvalidateAll drops every cached config.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	clear(l.cache)
	l.mu.Unlock()
}

func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

// Build reads the reference files under dir without caching.
func Build(dir, slug string) (*ServerConfig, error) {
	cfg := NewServerConfig(slug)
	packhouseDir := filepath.Join(dir, "packhouse")

	steps := []struct {
		name  string
		apply func(path string, data []byte) error
	}{
		{classFile, cfg.applyClasses},
		{spreadFile, cfg.applySpreads},
		{distributorFile, cfg.applyDistributors},
		{marketFile, cfg.applyMarkets},
	}
	for _, step := range steps {
		path := filepath.Join(packhouseDir, step.name)
		data, ok, err := readOptional(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug().Str("client", slug).Str("file", step.name).Msg("Reference file absent")
			continue
		}
		lintReference(slug, step.name, data)
		if err := step.apply(path, data); err != nil {
			return nil, err
		}
	}

	// Market overrides apply even without a markets file.
	for raw, canonical := range marketOverrides {
		cfg.MarketAliases.Override(NormalizeKey(raw), NormalizeKey(canonical))
	}

	if err := cfg.applyBlocks(dir); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ServerConfig) applyClasses(path string, data []byte) error {
	var doc struct {
		Classes json.RawMessage `json:"classes"`
	}
	if err := unmarshalReference(path, data, &doc); err != nil {
		return err
	}
	entries, err := decodeOrdered(doc.Classes)
	if err != nil {
		return fmt.Errorf("malformed reference file %s: %w", path, err)
	}

	for _, e := range entries {
		className := strings.TrimSpace(e.Key)
		if !isClass(className) {
			log.Warn().Str("client", c.Slug).Str("class", className).Msg("Ignoring unknown grade class")
			continue
		}
		for _, alias := range decodeScalars(e.Value) {
			key := NormalizeKey(alias.String())
			if key == "" {
				continue
			}
			c.GradeToClass.Put(key, className)
			if sanitized := SanitizeKey(key); sanitized != "" && sanitized != key {
				c.GradeToClass.Put(sanitized, className)
			}
		}
	}
	return nil
}

func (c *ServerConfig) applySpreads(path string, data []byte) error {
	var doc struct {
		Spreads json.RawMessage `json:"spreads"`
	}
	if err := unmarshalReference(path, data, &doc); err != nil {
		return err
	}
	entries, err := decodeOrdered(doc.Spreads)
	if err != nil {
		return fmt.Errorf("malformed reference file %s: %w", path, err)
	}

	for _, e := range entries {
		c.SpreadOrder = append(c.SpreadOrder, e.Key)
		for _, v := range decodeScalars(e.Value) {
			f, ok := v.Float()
			if !ok {
				continue
			}
			count := RoundCount(f)
			if _, taken := c.SpreadLookup[count]; !taken {
				c.SpreadLookup[count] = e.Key
			}
		}
	}
	return nil
}

func (c *ServerConfig) applyDistributors(path string, data []byte) error {
	var doc struct {
		Distributors json.RawMessage `json:"distributors"`
	}
	if err := unmarshalReference(path, data, &doc); err != nil {
		return err
	}
	entries, err := decodeOrdered(doc.Distributors)
	if err != nil {
		return fmt.Errorf("malformed reference file %s: %w", path, err)
	}

	for _, e := range entries {
		canonical := e.Key
		if normalized := NormalizeKey(canonical); normalized != "" {
			c.DistributorOrder = append(c.DistributorOrder, canonical)
			c.DistributorAliases.Put(normalized, canonical)
			sanitized := SanitizeKey(normalized)
			if sanitized != "" && sanitized != normalized {
				c.DistributorAliases.Put(sanitized, canonical)
			}
			pattern := sanitized
			if pattern == "" {
				pattern = normalized
			}
			c.DistributorPatterns = append(c.DistributorPatterns, Pattern{Pattern: pattern, Canonical: canonical})
		}

		for _, alias := range decodeScalars(e.Value) {
			key := NormalizeKey(alias.String())
			if key == "" {
				continue
			}
			c.DistributorAliases.Put(key, canonical)
			if sanitized := SanitizeKey(key); sanitized != "" && sanitized != key {
				c.DistributorAliases.Put(sanitized, canonical)
				c.DistributorPatterns = append(c.DistributorPatterns, Pattern{Pattern: sanitized, Canonical: canonical})
			} else {
				c.DistributorPatterns = append(c.DistributorPatterns, Pattern{Pattern: key, Canonical: canonical})
			}
		}
	}
	return nil
}

func (c *ServerConfig) applyMarkets(path string, data []byte) error {
	var doc struct {
		Markets json.RawMessage `json:"markets"`
	}
	if err := unmarshalReference(path, data, &doc); err != nil {
		return err
	}
	if len(bytes.TrimSpace(doc.Markets)) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	for _, v := range decodeScalars(doc.Markets) {
		code := NormalizeKey(v.String())
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		c.MarketOrder = append(c.MarketOrder, code)
		c.MarketAliases.Put(code, code)
		if sanitized := SanitizeKey(code); sanitized != "" && sanitized != code {
			c.MarketAliases.Put(sanitized, code)
		}
	}
	return nil
}

func (c *ServerConfig) addBlock(raw, canonical, puc string) {
	for _, variant := range Variants(raw) {
		c.BlockLookup.Put(variant, canonical)
		if puc != "" {
			c.BlockToPuc.Put(variant, puc)
		}
	}
}

// applyBlocks merges the master config and the block export into the block
// and PUC indexes. The master config is registered first, so it wins any key
// both sources produce.
func (c *ServerConfig) applyBlocks(dir string) error {
	masterPath := filepath.Join(dir, masterFile)
	if data, ok, err := readOptional(masterPath); err != nil {
		return err
	} else if ok {
		records, err := ParseMasterConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", masterPath, err)
		}
		c.Master = records
		for _, rec := range records {
			canonical := strings.TrimSpace(rec.Block)
			if canonical == "" {
				continue
			}
			puc := strings.TrimSpace(rec.Puc)
			c.addBlock(canonical, canonical, puc)
			c.addBlock(strconv.Itoa(rec.ID), canonical, puc)
		}
	}

	exportPath := filepath.Join(dir, "api", blockExportFile)
	data, ok, err := readOptional(exportPath)
	if err != nil || !ok {
		return err
	}
	records, err := ParseBlockExport(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", exportPath, err)
	}
	for _, rec := range records {
		c.addBlock(rec.BlockNo, rec.BlockNo, rec.ProductionUnit)
		for _, id := range []string{rec.ID, rec.RowID} {
			if id == "" {
				continue
			}
			c.addBlock(id, rec.BlockNo, rec.ProductionUnit)
			if n, ok := parseLeadingInt(id); ok {
				c.addBlock(strconv.Itoa(n), rec.BlockNo, rec.ProductionUnit)
			}
		}
	}
	return nil
}
