package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const assessmentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["assessmentId"],
  "properties": {
    "assessmentId":   {"type": "string", "minLength": 1, "maxLength": 128},
    "taxpayerId":     {"type": "string", "maxLength": 64},
    "taxType":        {"type": "string", "maxLength": 64},
    "status":         {"type": "string", "maxLength": 64},
    "amount":         {"type": ["number", "string"], "pattern": "^-?[0-9]+(\\.[0-9]+)?$"},
    "dueDate":        {"type": "string", "minLength": 10},
    "blockchainHash": {"type": "string", "maxLength": 130}
  }
}`

const patchSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "taxpayerId": {"type": "string", "maxLength": 64},
    "taxType":    {"type": "string", "maxLength": 64},
    "status":     {"type": "string", "maxLength": 64},
    "amount":     {"type": ["number", "string"], "pattern": "^-?[0-9]+(\\.[0-9]+)?$"},
    "dueDate":    {"type": "string", "minLength": 10}
  }
}`

const adjustmentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["reason", "amount"],
  "properties": {
    "reason":    {"type": "string", "minLength": 1, "maxLength": 256},
    "amount":    {"type": ["number", "string"], "pattern": "^-?[0-9]+(\\.[0-9]+)?$"},
    "type":      {"type": "string", "maxLength": 64},
    "reference": {"type": "string", "maxLength": 128}
  }
}`

var (
	assessmentSchema = mustSchema(assessmentSchemaJSON)
	patchSchema      = mustSchema(patchSchemaJSON)
	adjustmentSchema = mustSchema(adjustmentSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("validation: bad embedded schema: %v", err))
	}
	return s
}

// validate checks doc against schema and joins every violation into one message.
func validate(schema *gojsonschema.Schema, doc map[string]interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("payload failed schema validation: %s", strings.Join(msgs, "; "))
}
