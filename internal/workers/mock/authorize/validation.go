// internal/workers/mock/authorize/validation.go
package authorize

import (
	"fmt"
	"net/url"

	"mock-response-service/internal/common/validation"
)

var paramsSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"client_id":     {Type: "string", Description: "OAuth client identifier"},
		"response_type": {Type: "string", Description: "Requested response type"},
		"redirect_uri":  {Type: "string", Description: "Absolute redirect target"},
		"state":         {Type: "string"},
		"scope":         {Type: "string"},
		"nonce":         {Type: "string"},
		"userId":        {Type: "string"},
	},
	Required:             []string{"client_id", "response_type", "redirect_uri"},
	AdditionalProperties: false,
}

// missingParams returns the required parameters that are absent or blank.
func missingParams(p Params) []string {
	return validation.ValidateStrings(map[string]string{
		"client_id":     p.ClientID,
		"response_type": p.ResponseType,
		"redirect_uri":  p.RedirectURI,
		"state":         p.State,
		"scope":         p.Scope,
		"nonce":         p.Nonce,
		"userId":        p.UserID,
	}, paramsSchema).MissingFields()
}

// parseRedirectURI accepts any absolute URI, custom app schemes included.
func parseRedirectURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("redirect_uri must be absolute")
	}
	return u, nil
}
