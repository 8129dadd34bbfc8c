// internal/workers/mock/authorize/service.go
package authorize

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"mock-response-service/internal/codestore"
	"mock-response-service/internal/common/errors"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/common/metrics"
	"mock-response-service/internal/common/observability"
	"mock-response-service/internal/storage"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Service runs the simulated authorize flow against stored responses.
type Service struct {
	config   *Config
	store    storage.Store
	codes    codestore.Store
	logger   logger.Logger
	obs      *observability.Observability
	clock    func() time.Time
	mu       sync.Mutex
	sessions *cache.Cache // parked sessions by id
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = now }
}

func WithObservability(obs *observability.Observability) ServiceOption {
	return func(s *Service) { s.obs = obs }
}

func NewService(cfg *Config, store storage.Store, codes codestore.Store, log logger.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if store == nil {
		return nil, errors.NewStoreNotConfiguredError(TaskType)
	}
	if codes == nil {
		codes = codestore.NewMemoryStore(0)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	expiry := cache.NoExpiration
	cleanup := time.Duration(0)
	if cfg.ParkedTTL > 0 {
		expiry = cfg.ParkedTTL
		cleanup = 2 * cfg.ParkedTTL
	}

	s := &Service{
		config:   cfg,
		store:    store,
		codes:    codes,
		logger:   log.WithFields(map[string]interface{}{"flow": "authorize"}),
		clock:    time.Now,
		sessions: cache.New(expiry, cleanup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Begin validates the request and either parks it awaiting a userId or
// resolves it straight away when one was supplied.
func (s *Service) Begin(ctx context.Context, p Params) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Params:    p,
		CreatedAt: s.clock(),
	}

	if missing := missingParams(p); len(missing) > 0 {
		return s.fail(ctx, sess, errors.NewMissingOAuthParamsError(missing))
	}
	if _, err := parseRedirectURI(p.RedirectURI); err != nil {
		return s.fail(ctx, sess, errors.NewInvalidRedirectURIError(p.RedirectURI, err))
	}

	sess.State = StateAwaitingUserKey
	if strings.TrimSpace(p.UserID) == "" {
		s.park(sess)
		return sess
	}
	return s.resolve(ctx, sess, strings.TrimSpace(p.UserID))
}

// SupplyUserID moves a parked session to Resolving. Sessions in any other
// state are returned unchanged; a blank id keeps the session parked.
func (s *Service) SupplyUserID(ctx context.Context, sess *Session, userID string) *Session {
	if sess == nil || sess.State != StateAwaitingUserKey {
		return sess
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		sess.Err = errors.NewInvalidInputError("userId is required to continue authorization")
		return sess
	}

	s.mu.Lock()
	s.sessions.Delete(sess.ID)
	s.mu.Unlock()

	sess.Err = nil
	return s.resolve(ctx, sess, userID)
}

// Resume continues a parked session by id. A non-blank userId claims the
// session so concurrent resumptions cannot both resolve it.
func (s *Service) Resume(ctx context.Context, sessionID, userID string) (*Session, error) {
	s.mu.Lock()
	v, ok := s.sessions.Get(sessionID)
	if ok && strings.TrimSpace(userID) != "" {
		s.sessions.Delete(sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, errors.NewNotFoundError("Authorization session not found", fmt.Sprintf("sessionId: %s", sessionID))
	}
	return s.SupplyUserID(ctx, v.(*Session), userID), nil
}

// Pending returns a parked session.
func (s *Service) Pending(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

func (s *Service) park(sess *Session) {
	s.mu.Lock()
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	s.mu.Unlock()

	s.logger.Info("authorization parked awaiting userId", map[string]interface{}{
		"sessionId": sess.ID,
		"clientId":  sess.Params.ClientID,
	})
}

func (s *Service) resolve(ctx context.Context, sess *Session, userID string) *Session {
	ctx, span := s.obs.StartSpan(ctx, "authorize.resolve")
	defer span.End()

	sess.State = StateResolving
	sess.UserID = userID

	docs := s.store.FindByUniqueKey(s.config.Collection, "userId", userID)
	if len(docs) == 0 {
		return s.fail(ctx, sess, errors.NewNotFoundError(
			"No responses found for this identifier", fmt.Sprintf("userId: %s", userID)))
	}

	for _, doc := range docs {
		if outcome, ok := outcomeOf(doc, s.config.OutcomeService); ok {
			sess.DocumentID = doc.ID
			sess.Outcome = outcome
			return s.redirect(ctx, sess, doc)
		}
	}
	return s.fail(ctx, sess, errors.NewNoAuthOutcomeError(userID))
}

func (s *Service) redirect(ctx context.Context, sess *Session, doc storage.Document) *Session {
	target, err := parseRedirectURI(sess.Params.RedirectURI)
	if err != nil {
		return s.fail(ctx, sess, errors.NewInvalidRedirectURIError(sess.Params.RedirectURI, err))
	}

	var extra []string
	switch sess.Outcome {
	case OutcomeSuccess:
		code, err := s.issueCode(ctx, sess, doc)
		if err != nil {
			return s.fail(ctx, sess, errors.NewCodeStoreFailedError(err))
		}
		sess.Code = code
		extra = append(extra, "code", code)
	case OutcomeUserNotAssigned:
		extra = append(extra, "error", ErrorAccessDenied, "error_description", DescriptionUserNotAssigned)
	default:
		extra = append(extra, "error", ErrorAccessDenied, "error_description", DescriptionGenericAuthError)
	}
	if sess.Params.State != "" {
		extra = append(extra, "state", sess.Params.State)
	}
	target.RawQuery = appendQuery(target.RawQuery, extra...)

	sess.State = StateRedirecting
	sess.RedirectURL = target.String()
	s.finish(ctx, sess)
	return sess
}

// issueCode mints mock_code_<userId>_<unixMillis>_<rand> and records the grant.
func (s *Service) issueCode(ctx context.Context, sess *Session, doc storage.Document) (string, error) {
	now := s.clock()
	code := fmt.Sprintf("mock_code_%s_%d_%s", sess.UserID, now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	grant := codestore.Grant{
		Code:        code,
		ClientID:    sess.Params.ClientID,
		RedirectURI: sess.Params.RedirectURI,
		UserID:      sess.UserID,
		Scope:       sess.Params.Scope,
		Nonce:       sess.Params.Nonce,
		UniqueKeys:  doc.UniqueKeys(),
		Context: map[string]interface{}{
			"documentId": doc.ID,
			"outcome":    sess.Outcome,
		},
		IssuedAt: now.UTC(),
	}
	if err := s.codes.Save(ctx, grant); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Service) fail(ctx context.Context, sess *Session, err *errors.StandardError) *Session {
	sess.State = StateFailed
	sess.Err = err
	s.finish(ctx, sess)
	return sess
}

func (s *Service) finish(ctx context.Context, sess *Session) {
	outcome := sess.Outcome
	if outcome == "" {
		outcome = "none"
	}
	metrics.AuthorizeOutcomes.WithLabelValues(string(sess.State), outcome).Inc()
	s.obs.RecordFlow(ctx, "authorize", string(sess.State), s.clock().Sub(sess.CreatedAt))

	fields := map[string]interface{}{
		"sessionId": sess.ID,
		"state":     string(sess.State),
		"userId":    sess.UserID,
		"outcome":   sess.Outcome,
	}
	if sess.Err != nil {
		fields["error"] = sess.Err
		s.logger.Warn("authorization failed", fields)
		return
	}
	s.logger.Info("authorization redirecting", fields)
}

// outcomeOf reads the outcome service's flavor from a document's selections.
func outcomeOf(doc storage.Document, service string) (string, bool) {
	switch responses := doc.Fields["responses"].(type) {
	case map[string]interface{}:
		v, ok := responses[service].(string)
		return v, ok && v != ""
	case map[string]string:
		v, ok := responses[service]
		return v, ok && v != ""
	}
	return "", false
}

// appendQuery adds key/value pairs after the caller's query, leaving its
// existing parameters and their order untouched.
func appendQuery(raw string, pairs ...string) string {
	var b strings.Builder
	b.WriteString(raw)
	for i := 0; i+1 < len(pairs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pairs[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pairs[i+1]))
	}
	return b.String()
}
