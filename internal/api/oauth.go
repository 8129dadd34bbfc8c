package api

import (
	"encoding/json"
	stderrors "errors"

	"mock-response-service/internal/codestore"
	"mock-response-service/internal/common/errors"
	"mock-response-service/internal/workers/mock/authorize"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

const tokenTTLSeconds = 3600

var authorizeFields = []string{
	"client_id", "response_type", "redirect_uri", "state", "scope", "nonce",
	"userId", "user_id", "sessionId",
}

func (s *Server) handleAuthorize(c *fiber.Ctx) error {
	if s.deps.Authorize == nil {
		return errors.NewStoreNotConfiguredError("authorize")
	}
	sess := s.deps.Authorize.Begin(c.UserContext(), authorize.ParamsFromMap(c.Queries()))
	return s.respondSession(c, sess)
}

// handleAuthorizeSubmit accepts either {sessionId, userId} to resume a parked
// request or a full parameter set, as a form or JSON.
func (s *Server) handleAuthorizeSubmit(c *fiber.Ctx) error {
	if s.deps.Authorize == nil {
		return errors.NewStoreNotConfiguredError("authorize")
	}
	values, err := requestValues(c, authorizeFields)
	if err != nil {
		return err
	}

	params := authorize.ParamsFromMap(values)
	if sessionID := values["sessionId"]; sessionID != "" {
		sess, err := s.deps.Authorize.Resume(c.UserContext(), sessionID, params.UserID)
		if err != nil {
			return err
		}
		return s.respondSession(c, sess)
	}
	return s.respondSession(c, s.deps.Authorize.Begin(c.UserContext(), params))
}

func (s *Server) respondSession(c *fiber.Ctx, sess *authorize.Session) error {
	switch sess.State {
	case authorize.StateRedirecting:
		return c.Redirect(sess.RedirectURL, fiber.StatusFound)
	case authorize.StateAwaitingUserKey:
		return c.JSON(fiber.Map{
			"state":      sess.State,
			"sessionId":  sess.ID,
			"message":    "Enter a userId to continue",
			"diagnostic": sess.Diagnostic(),
		})
	default:
		return sess.Err
	}
}

// handleToken redeems a one-time mock code. Errors use the OAuth error body.
func (s *Server) handleToken(c *fiber.Ctx) error {
	if s.deps.Codes == nil {
		return errors.NewStoreNotConfiguredError("token")
	}
	values, err := requestValues(c, []string{"grant_type", "code", "client_id", "redirect_uri"})
	if err != nil {
		return err
	}

	if values["grant_type"] != "authorization_code" {
		return oauthError(c, "unsupported_grant_type", "grant_type must be authorization_code")
	}
	if values["code"] == "" {
		return oauthError(c, "invalid_request", "code is required")
	}

	grant, err := s.deps.Codes.Consume(c.UserContext(), values["code"])
	if stderrors.Is(err, codestore.ErrCodeNotFound) {
		return grantError(c, errors.NewInvalidGrantError("unknown, expired or already redeemed code"))
	}
	if err != nil {
		return errors.NewCodeStoreFailedError(err)
	}
	if grant.ClientID != values["client_id"] || grant.RedirectURI != values["redirect_uri"] {
		return grantError(c, errors.NewInvalidGrantError("client_id or redirect_uri does not match the authorization request"))
	}

	return c.JSON(s.tokenBody(grant))
}

// tokenBody renders the outcome flavor's token template when it has one.
func (s *Server) tokenBody(grant *codestore.Grant) interface{} {
	base := map[string]interface{}{
		"access_token": "mock_access_" + uuid.NewString(),
		"token_type":   "Bearer",
		"expires_in":   tokenTTLSeconds,
		"scope":        grant.Scope,
	}

	outcome := cast.ToString(grant.Context["outcome"])
	flavor, ok := s.deps.Catalog.Catalog().Flavor(s.config.Authorize.OutcomeService, outcome)
	if !ok || flavor.Token == nil {
		return base
	}

	ctx := map[string]interface{}{}
	for k, v := range grant.UniqueKeys {
		ctx[k] = v
	}
	ctx["uniqueKeys"] = grant.UniqueKeys
	ctx["userId"] = grant.UserID
	ctx["clientId"] = grant.ClientID
	ctx["scope"] = grant.Scope
	ctx["nonce"] = grant.Nonce
	ctx["code"] = grant.Code
	ctx["accessToken"] = base["access_token"]

	rendered := s.deps.Renderer.Render(flavor.Token, ctx)
	if m, ok := rendered.(map[string]interface{}); ok {
		for k, v := range base {
			if _, set := m[k]; !set {
				m[k] = v
			}
		}
		return m
	}
	return rendered
}

func oauthError(c *fiber.Ctx, code, description string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":             code,
		"error_description": description,
	})
}

func grantError(c *fiber.Ctx, err *errors.StandardError) error {
	return oauthError(c, "invalid_grant", err.Message+": "+err.Details)
}

// requestValues reads the named fields from a JSON, urlencoded or multipart body.
func requestValues(c *fiber.Ctx, fields []string) (map[string]string, error) {
	values := make(map[string]string, len(fields))
	if c.Is("json") {
		var body map[string]interface{}
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return nil, errors.NewInvalidInputError("request body must be a JSON object")
		}
		for _, f := range fields {
			if v, ok := body[f]; ok && v != nil {
				values[f] = cast.ToString(v)
			}
		}
		return values, nil
	}
	for _, f := range fields {
		if v := c.FormValue(f); v != "" {
			values[f] = v
		}
	}
	return values, nil
}
