package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const checklistSchemaJSON = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "version": {"type": ["string", "number"]},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "text"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "text": {"type": "string"},
          "category": {"type": "string"},
          "subcategory": {"type": "string"},
          "severity": {"type": "string"},
          "waf": {"type": "string"},
          "service": {"type": "string"},
          "link": {"type": "string"},
          "training": {"type": "string"},
          "guid": {"type": "string"}
        }
      }
    }
  }
}`

const progressItemSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "id": {"type": "string"},
    "status": {"type": "string"},
    "comment": {"type": ["string", "null"]},
    "comments": {"type": ["string", "null"]}
  }
}`

// An upload is either a full export document or a bare array of items.
var progressSchemaJSON = `{
  "oneOf": [
    {
      "type": "object",
      "required": ["assessmentType", "items"],
      "properties": {
        "assessmentType": {"type": "string"},
        "items": {"type": "array", "items": ` + progressItemSchema + `}
      }
    },
    {
      "type": "array",
      "minItems": 1,
      "items": ` + progressItemSchema + `
    }
  ]
}`

var (
	checklistSchemaLoader = gojsonschema.NewStringLoader(checklistSchemaJSON)
	progressSchemaLoader  = gojsonschema.NewStringLoader(progressSchemaJSON)
)

// ErrInvalidDocument wraps schema violations of checklist or progress files.
var ErrInvalidDocument = errors.New("invalid document")

// ValidateChecklistJSON checks raw checklist JSON against the checklist schema.
func ValidateChecklistJSON(data []byte) error {
	return validate(checklistSchemaLoader, data)
}

// ValidateUpload checks that raw JSON is an export document or an array of
// items carrying a status.
func ValidateUpload(data []byte) error {
	return validate(progressSchemaLoader, data)
}

func validate(schema gojsonschema.JSONLoader, data []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(issues, "; "))
}
