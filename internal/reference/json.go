package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"packhouse-temporal/internal/teamdesk"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

type entry struct {
	Key   string
	Value json.RawMessage
}

// decodeOrdered walks a JSON object and keeps its keys in declaration order.
// A missing or null object yields no entries.
func decodeOrdered(raw json.RawMessage) ([]entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var out []entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, entry{Key: key, Value: value})
	}
	return out, nil
}

// decodeScalars decodes an array of strings/numbers. Anything that is not an
// array yields nil so the entry is skipped rather than failing the load.
func decodeScalars(raw json.RawMessage) []teamdesk.Value {
	var values []teamdesk.Value
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

func scalarArray() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Types: []string{"string", "number"}},
	}
}

func mapOfArrays() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: scalarArray(),
	}
}

var referenceSchemas = sync.OnceValue(func() map[string]*jsonschema.Resolved {
	raw := map[string]*jsonschema.Schema{
		classFile: {
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"classes": mapOfArrays()},
		},
		spreadFile: {
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"spreads": mapOfArrays()},
		},
		distributorFile: {
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"distributors": mapOfArrays()},
		},
		marketFile: {
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"markets": scalarArray()},
		},
	}

	resolved := make(map[string]*jsonschema.Resolved, len(raw))
	for name, schema := range raw {
		rs, err := schema.Resolve(nil)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("Invalid reference schema")
			continue
		}
		resolved[name] = rs
	}
	return resolved
})

// lintReference reports schema violations as warnings. Loading stays
// tolerant: malformed entries are skipped by the parsers.
func lintReference(slug, name string, data []byte) {
	rs, ok := referenceSchemas()[name]
	if !ok {
		return
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return
	}
	if err := rs.Validate(instance); err != nil {
		log.Warn().Err(err).Str("client", slug).Str("file", name).Msg("Reference file does not match expected shape")
	}
}

func unmarshalReference(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed reference file %s: %w", path, err)
	}
	return nil
}
