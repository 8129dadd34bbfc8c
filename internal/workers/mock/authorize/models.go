// internal/workers/mock/authorize/models.go
package authorize

import (
	"time"

	"mock-response-service/internal/common/errors"

	"github.com/spf13/cast"
)

type State string

const (
	StateAwaitingUserKey State = "awaiting_user_key"
	StateResolving       State = "resolving"
	StateRedirecting     State = "redirecting"
	StateFailed          State = "failed"
)

// Flavor ids of the outcome service that change the redirect.
const (
	OutcomeSuccess         = "auth_success"
	OutcomeUserNotAssigned = "auth_error_user_not_assigned"
)

const (
	ErrorAccessDenied           = "access_denied"
	DescriptionUserNotAssigned  = "User is not assigned to the client application"
	DescriptionGenericAuthError = "Authentication failed"
)

// Params is the authorization request as received on the authorize endpoint.
type Params struct {
	ClientID     string `json:"client_id"`
	ResponseType string `json:"response_type"`
	RedirectURI  string `json:"redirect_uri"`
	State        string `json:"state,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// ParamsFromMap reads query or form values. userId falls back to user_id.
func ParamsFromMap(m map[string]string) Params {
	p := Params{
		ClientID:     m["client_id"],
		ResponseType: m["response_type"],
		RedirectURI:  m["redirect_uri"],
		State:        m["state"],
		Scope:        m["scope"],
		Nonce:        m["nonce"],
		UserID:       m["userId"],
	}
	if p.UserID == "" {
		p.UserID = m["user_id"]
	}
	return p
}

// ParamsFromVariables reads decoded job variables.
func ParamsFromVariables(vars map[string]interface{}) Params {
	m := make(map[string]string, len(vars))
	for k, v := range vars {
		if v == nil {
			continue
		}
		m[k] = cast.ToString(v)
	}
	return ParamsFromMap(m)
}

// Session is one authorization request moving through the state machine.
type Session struct {
	ID          string
	State       State
	Params      Params
	UserID      string
	DocumentID  string
	Outcome     string
	Code        string
	RedirectURL string
	Err         *errors.StandardError
	CreatedAt   time.Time
}

// Terminal reports whether the session has reached Redirecting or Failed.
func (s *Session) Terminal() bool {
	return s.State == StateRedirecting || s.State == StateFailed
}

// Diagnostic is the human-readable reason attached to a failed or parked session.
func (s *Session) Diagnostic() string {
	if s.Err == nil {
		return ""
	}
	if s.Err.Details != "" {
		return s.Err.Message + ": " + s.Err.Details
	}
	return s.Err.Message
}

// Input is the job payload: either a fresh request or a resumption of a parked session.
type Input struct {
	Params    Params `json:"params"`
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	SessionID   string `json:"sessionId"`
	State       State  `json:"state"`
	UserID      string `json:"userId,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Code        string `json:"code,omitempty"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

func outputFromSession(s *Session) *Output {
	return &Output{
		SessionID:   s.ID,
		State:       s.State,
		UserID:      s.UserID,
		Outcome:     s.Outcome,
		RedirectURL: s.RedirectURL,
		Code:        s.Code,
		Diagnostic:  s.Diagnostic(),
	}
}
