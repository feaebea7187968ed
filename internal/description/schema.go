package description

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// documentSchema validates the structural shape of a description document
// on load. Unknown fields are deliberately permitted everywhere
// (additionalProperties stays open): external tools may annotate the
// document and those annotations must survive a load/save round-trip.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["meta", "defaults", "nodes", "rules"],
  "properties": {
    "meta": {
      "type": "object",
      "required": ["name", "source", "version"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "generated_at": {"type": "string"},
        "source": {"enum": ["generation", "inference", "manual"]},
        "version": {"type": "integer", "minimum": 1}
      }
    },
    "defaults": {
      "type": "object",
      "properties": {
        "initial_activation": {"type": "number", "minimum": 0, "maximum": 1},
        "default_rule": {"type": "string"},
        "damping_coefficient": {"type": "number", "minimum": 0, "maximum": 1},
        "inheritance_mode": {"type": "string"}
      }
    },
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "path": {"type": "string"},
          "kind": {"type": "string"},
          "stability": {"type": "number", "minimum": 0, "maximum": 1},
          "rule": {"type": "string"},
          "payload": {"type": "object"},
          "inheritance_mode": {"type": "string"},
          "local_rules": {"type": "object"}
        }
      }
    },
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"enum": ["builtin", "llm", "composite"]},
          "system_prompt": {"type": "string"},
          "params": {"type": "object"}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("description.schema.json", documentSchema)

// Parse validates raw against the description document schema and
// unmarshals it. Schema or JSON failures surface as ErrStoreCorrupted so
// a corrupt description.json reads the same as any other damaged
// artifact.
func Parse(raw []byte) (AutomatonDescription, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return AutomatonDescription{}, fmt.Errorf("%w: parsing description: %v", domain.ErrStoreCorrupted, err)
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return AutomatonDescription{}, fmt.Errorf("%w: description schema: %v", domain.ErrStoreCorrupted, err)
	}

	var desc AutomatonDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return AutomatonDescription{}, fmt.Errorf("%w: parsing description: %v", domain.ErrStoreCorrupted, err)
	}
	return desc, nil
}
