package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func oauthSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"client_id":     {Type: "string", MinLength: 3},
			"response_type": {Type: "string", Enum: []string{"code", "token", "id_token"}},
			"redirect_uri":  {Type: "string", Pattern: `^[a-z][a-z0-9+.-]*:`},
		},
		Required:             []string{"client_id", "response_type", "redirect_uri"},
		AdditionalProperties: true,
	}
}

func TestValidateInput_MissingFieldsInSchemaOrder(t *testing.T) {
	result := ValidateInput(map[string]interface{}{"response_type": "code"}, oauthSchema())

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"client_id", "redirect_uri"}, result.MissingFields())
	assert.True(t, result.HasErrors("client_id"))
}

func TestValidateInput_EnumAndType(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"client_id":     42,
		"response_type": "password",
		"redirect_uri":  "https://app.example/cb",
	}, oauthSchema())

	assert.False(t, result.Valid)
	assert.Empty(t, result.MissingFields())
	assert.Len(t, result.GetErrorsForField("client_id"), 1)
	assert.Equal(t, CodeInvalidValue, result.GetErrorsForField("response_type")[0].Code)
	assert.Equal(t, []string{
		"client_id: expected string, got int",
		"response_type: value must be one of [code token id_token]",
	}, result.GetErrorMessages())
}

func TestValidateInput_LengthAndPattern(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"client_id":     "ab",
		"response_type": "code",
		"redirect_uri":  "/relative/cb",
	}, oauthSchema())

	assert.Equal(t, CodeMinLength, result.GetErrorsForField("client_id")[0].Code)
	assert.Equal(t, CodePattern, result.GetErrorsForField("redirect_uri")[0].Code)
}

func TestValidateInput_ExtraFields(t *testing.T) {
	schema := oauthSchema()
	schema.AdditionalProperties = false

	result := ValidateInput(map[string]interface{}{
		"client_id":     "app",
		"response_type": "code",
		"redirect_uri":  "https://app.example/cb",
		"prompt":        "login",
	}, schema)

	assert.False(t, result.Valid)
	assert.Equal(t, CodeExtraField, result.GetErrorsForField("prompt")[0].Code)
}

func TestValidateStrings_BlankCountsAsMissing(t *testing.T) {
	result := ValidateStrings(map[string]string{
		"client_id":     "   ",
		"response_type": "code",
		"redirect_uri":  "",
	}, oauthSchema())

	assert.Equal(t, []string{"client_id", "redirect_uri"}, result.MissingFields())
}

func TestValidateInput_Valid(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"client_id":     "app",
		"response_type": "code",
		"redirect_uri":  "https://app.example/cb",
		"state":         "xyz",
	}, oauthSchema())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateIdentifier(t *testing.T) {
	assert.True(t, ValidateIdentifier("okta"))
	assert.True(t, ValidateIdentifier("auth_error_generic"))
	assert.False(t, ValidateIdentifier("Okta"))
	assert.False(t, ValidateIdentifier(""))
	assert.False(t, ValidateIdentifier("-okta"))
}
