// internal/workers/mock/generate-response/validation.go
package generateresponse

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// selectionsSchema: a non-empty object whose values are non-empty strings.
var selectionsSchema = mustSchema(map[string]interface{}{
	"type":          "object",
	"minProperties": 1,
	"additionalProperties": map[string]interface{}{
		"type":      "string",
		"minLength": 1,
	},
})

func mustSchema(doc map[string]interface{}) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile selections schema: %v", err))
	}
	return schema
}

func validateSelections(selections interface{}) error {
	if selections == nil {
		return fmt.Errorf("request body must be an object with service selections")
	}
	result, err := selectionsSchema.Validate(gojsonschema.NewGoLoader(selections))
	if err != nil {
		return fmt.Errorf("request body must be an object with service selections: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return fmt.Errorf("request body must be an object with service selections: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// toSelections converts a validated selections object.
func toSelections(v interface{}) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]interface{}:
		for k, raw := range m {
			out[k], _ = raw.(string)
		}
	case map[string]string:
		for k, s := range m {
			out[k] = s
		}
	}
	return out
}
