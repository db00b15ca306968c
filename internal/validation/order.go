// Copyright 2025 James Ross
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// orderSchema describes the POST /receive request body (spec §6): an
// Order with one or more Drinks. Validation failure must not mutate any
// engine state (spec §7 kind (a)).
const orderSchema = `{
	"type": "object",
	"required": ["orderID", "customer", "drinks"],
	"properties": {
		"orderID": {"type": "integer"},
		"customer": {"type": "string", "minLength": 1},
		"drinks": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["drink"],
				"properties": {
					"drink": {"type": "string", "minLength": 1},
					"milk": {"type": "string"},
					"milk_volume": {"type": "number", "minimum": 0},
					"shots": {"type": "integer", "minimum": 0},
					"temperature": {"type": "string"},
					"texture": {"type": "string"},
					"options": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(orderSchema)

// ValidateOrder checks raw against the inbound-order schema and returns a
// human-readable error describing every violation, or nil if valid.
func ValidateOrder(raw []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var messages []string
	for _, e := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("invalid order: %s", strings.Join(messages, "; "))
}

// ValidateOrderValue marshals v and validates it, for callers that already
// have a decoded struct rather than the raw request body.
func ValidateOrderValue(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for validation: %w", err)
	}
	return ValidateOrder(raw)
}
