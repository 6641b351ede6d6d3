// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/validate"
)

// SchemaID identifies the generated config schema.
const SchemaID = "https://github.com/ManuGH/reelgen/config.schema.json"

// Schema returns the JSON Schema describing the YAML config file.
// Property names follow the yaml tags so the schema matches what the loader accepts.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&AppConfig{})
	s.ID = SchemaID
	s.Title = "reelgen configuration"

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}

// JSONSchemaExtend takes the content enums and bounds from the generation client.
func (ContentConfig) JSONSchemaExtend(s *jsonschema.Schema) {
	setEnum(s, "variant", Variants())
	setEnum(s, "genre", Genres())
	if p, ok := s.Properties.Get("iterations"); ok {
		p.Maximum = json.Number(strconv.Itoa(genapi.MaxIterations))
	}
}

// JSONSchemaExtend lists the accepted log levels.
func (AppConfig) JSONSchemaExtend(s *jsonschema.Schema) {
	setEnum(s, "log_level", validate.LogLevels)
}

func setEnum(s *jsonschema.Schema, prop string, values []string) {
	p, ok := s.Properties.Get(prop)
	if !ok {
		return
	}
	p.Enum = make([]any, len(values))
	for i, v := range values {
		p.Enum[i] = v
	}
}
