package itembank

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const importSchemaURL = "schema://item-import.json"

// importSchema accepts either a bare array of candidate records or an
// object wrapping them under "items". Candidates are only required to be
// objects; field-level repair is the normalizer's job.
var importSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"$defs": map[string]any{
		"candidates": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
	"oneOf": []any{
		map[string]any{"$ref": "#/$defs/candidates"},
		map[string]any{
			"type":     "object",
			"required": []any{"items"},
			"properties": map[string]any{
				"items": map[string]any{"$ref": "#/$defs/candidates"},
			},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledImport *jsonschema.Schema
	compileErr     error
)

// ImportError describes an import document that could not be accepted.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid import document: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ValidateImportDocument parses and schema-checks an import document and
// returns its candidate records, ready for NormalizeBatch.
func ValidateImportDocument(data []byte) ([]any, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &ImportError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := compiledImportSchema()
	if err != nil {
		return nil, &ImportError{Err: fmt.Errorf("compile schema: %w", err)}
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, &ImportError{Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	switch doc := parsed.(type) {
	case []any:
		return doc, nil
	case map[string]any:
		items, _ := doc["items"].([]any)
		return items, nil
	}
	return nil, &ImportError{Err: fmt.Errorf("unexpected document type %T", parsed)}
}

func compiledImportSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(importSchemaURL, importSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledImport, compileErr = c.Compile(importSchemaURL)
	})
	return compiledImport, compileErr
}
