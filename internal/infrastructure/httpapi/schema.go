package httpapi

import (
	"fmt"

	"github.com/portfoliohq/portfolio/pkg/domain/project"
	"github.com/xeipuuv/gojsonschema"
)

// draftSchemaJSON checks value types only. Required fields are reported by
// Draft.Validate so that every missing field is listed together.
const draftSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "id": { "type": "string" },
    "name": { "type": "string" },
    "type": { "type": ["string", "null"] },
    "employees": { "type": ["array", "null"], "items": { "type": "string" } },
    "goals": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": { "type": "string" },
          "deadline": { "type": ["string", "null"] },
          "status": { "type": ["string", "null"] },
          "rating": { "type": ["number", "null"] }
        }
      }
    },
    "dependencies": { "type": ["array", "null"], "items": { "type": "string" } },
    "startDate": { "type": ["string", "null"] },
    "endDate": { "type": ["string", "null"] },
    "deadline": { "type": ["string", "null"] },
    "status": { "type": ["string", "null"] }
  }
}`

var draftSchemaLoader = gojsonschema.NewStringLoader(draftSchemaJSON)

// checkDraftShape validates the raw create payload against the draft
// schema and reports type mismatches as invalid fields.
func checkDraftShape(body []byte) error {
	result, err := gojsonschema.Validate(draftSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", project.ErrInvalidInput, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &project.ValidationError{}
	for _, desc := range result.Errors() {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s (%s)", desc.Field(), desc.Description()))
	}
	return verr
}
