package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaURL = "reflex-emulator-settings.json"

// recordSchema describes a backup record. Unknown keys are allowed so
// records written by newer versions still restore. Every field may be null,
// which Restore treats like a missing field.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "color": {"type": "string", "pattern": "^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6})?$"}
  },
  "properties": {
    "BACKUP_TIMESTAMP": {"type": ["string", "null"]},
    "amountProjectionLayers": {"type": ["integer", "null"], "minimum": 1},
    "amountTouchPoints": {"type": ["integer", "null"], "minimum": 0},
    "backgroundImage": {"type": ["string", "null"]},
    "backgroundSources": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "path": {"type": "string"}
        }
      }
    },
    "camera": {
      "type": ["object", "null"],
      "required": ["model"],
      "properties": {
        "model": {"type": "string", "minLength": 1},
        "resolution": {"type": "string"},
        "version": {"type": ["integer", "null"], "minimum": 0}
      }
    },
    "circleSize": {
      "type": ["object", "null"],
      "required": ["min", "max"],
      "properties": {
        "min": {"type": "integer", "minimum": 0},
        "max": {"type": "integer", "minimum": 0}
      }
    },
    "layers": {
      "type": ["object", "null"],
      "required": ["up", "down"],
      "properties": {
        "up": {"type": "integer", "minimum": 0},
        "down": {"type": "integer", "minimum": 0},
        "colorUp": {"$ref": "#/definitions/color"},
        "colorDown": {"$ref": "#/definitions/color"}
      }
    },
    "normalizedPoints": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {
          "x": {"type": "number"},
          "y": {"type": "number"}
        }
      }
    },
    "sendInterval": {"type": ["integer", "null"], "exclusiveMinimum": 0},
    "serverConnection": {"type": ["string", "null"], "minLength": 1},
    "viewOptions": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["option", "active"],
        "properties": {
          "option": {"type": "string", "minLength": 1},
          "active": {"type": "boolean"}
        }
      }
    },
    "viewPort": {
      "type": ["object", "null"],
      "required": ["width", "height"],
      "properties": {
        "width": {"type": "integer", "exclusiveMinimum": 0},
        "height": {"type": "integer", "exclusiveMinimum": 0}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(recordSchemaURL, recordSchema)
	})
	return compiledSchema, schemaErr
}

// validateRecord checks a record against the backup schema. Violations are
// reported as ErrMalformedRecord.
func validateRecord(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrMalformedRecord, firstCause(ve))
		}
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

// firstCause returns the innermost message of the first failing branch.
func firstCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return loc + ": " + ve.Message
}
