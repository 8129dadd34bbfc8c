package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mock-response-service/internal/codestore"
	"mock-response-service/internal/common/config"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/keys"
	"mock-response-service/internal/storage"
	"mock-response-service/internal/synthetic"
	"mock-response-service/internal/template"
	"mock-response-service/internal/workers/mock/authorize"
	generateresponse "mock-response-service/internal/workers/mock/generate-response"
	"mock-response-service/pkg/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

const redirectURI = "https://app.example.com/callback"

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "mock-response-service"},
		Server: config.ServerConfig{
			Address:        ":0",
			AllowedOrigins: "*",
			BodyLimit:      1024 * 1024,
			ReadTimeout:    5000,
			WriteTimeout:   5000,
		},
		Authorize: config.AuthorizeConfig{OutcomeService: "okta"},
		Logging:   config.LoggingConfig{Level: "info"},
	}
}

func testCatalog() *registry.Catalog {
	return &registry.Catalog{Services: map[string]registry.Service{
		"okta": {
			Name:            "Okta",
			DefaultResponse: "auth_success",
			Responses: []registry.Flavor{
				{
					ID:       "auth_success",
					Template: map[string]interface{}{"sub": "{{ userId }}", "given_name": "{{ faker.person.firstName() }}"},
					Token:    map[string]interface{}{"id_token": "mock.{{ userId }}.{{ clientId }}", "token_type": "Bearer"},
				},
				{ID: "auth_error_user_not_assigned"},
				{ID: "auth_error_generic"},
			},
		},
		"payments": {DefaultResponse: "ok", Responses: []registry.Flavor{{ID: "ok"}}},
	}}
}

func createTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := storage.NewMemoryStore()
	cat := registry.NewStaticRegistry(testCatalog())

	reg := synthetic.NewRegistry()
	reg.Register("faker.person.firstName", func(args []interface{}) (interface{}, error) { return "Ada", nil })
	renderer := template.NewRenderer(reg, log)

	gen, err := keys.NewGenerator(keys.DefaultSchema())
	require.NoError(t, err)
	generator, err := generateresponse.NewHandler(nil, generateresponse.Dependencies{
		Store:    store,
		Keys:     gen,
		Renderer: renderer,
		Catalog:  cat,
	}, log)
	require.NoError(t, err)

	codes := codestore.NewMemoryStore(time.Minute)
	authz, err := authorize.NewService(nil, store, codes, log)
	require.NoError(t, err)

	return NewServer(testConfig(), Dependencies{
		Store:     store,
		Catalog:   cat,
		Generator: generator,
		Authorize: authz,
		Codes:     codes,
		Renderer:  renderer,
	}, log), store
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, raw := doRequest(t, app, req)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, raw := doRequest(t, app, req)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func getJSON(t *testing.T, app *fiber.App, path string, out interface{}) *http.Response {
	t.Helper()
	resp, raw := doRequest(t, app, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp
}

func generate(t *testing.T, app *fiber.App, selections string) string {
	t.Helper()
	resp, body := postJSON(t, app, "/api/generate-response", selections)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	uniqueKeys := body["uniqueKeys"].(map[string]interface{})
	return uniqueKeys["userId"].(string)
}

func authorizeURL(params url.Values) string {
	return "/oauth2/v1/authorize?" + params.Encode()
}

func baseParams() url.Values {
	return url.Values{
		"client_id":     {"web-app"},
		"response_type": {"code"},
		"redirect_uri":  {redirectURI},
		"state":         {"st-1"},
	}
}

// ==========================
// Health and Catalog Tests
// ==========================

func TestServer_Health(t *testing.T) {
	s, _ := createTestServer(t)

	var health map[string]interface{}
	resp := getJSON(t, s.App(), "/health", &health)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])

	generate(t, s.App(), `{"okta":"auth_success"}`)
	var ready map[string]interface{}
	resp = getJSON(t, s.App(), "/ready", &ready)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"responses": float64(1)}, ready["collections"])
	assert.Equal(t, float64(2), ready["services"])
}

func TestServer_Services(t *testing.T) {
	s, _ := createTestServer(t)

	var services map[string]registry.Service
	resp := getJSON(t, s.App(), "/api/services", &services)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, services, "okta")
	assert.Equal(t, "auth_success", services["okta"].DefaultResponse)
	assert.Len(t, services["okta"].Responses, 3)
}

func TestServer_UnknownRoute(t *testing.T) {
	s, _ := createTestServer(t)

	var body ErrorResponse
	resp := getJSON(t, s.App(), "/api/nope", &body)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body.Error)
}

// ==========================
// Response Generation Tests
// ==========================

func TestServer_GenerateResponse(t *testing.T) {
	s, _ := createTestServer(t)

	resp, body := postJSON(t, s.App(), "/api/generate-response", `{"okta":"auth_success","payments":"ok"}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"okta": "auth_success", "payments": "ok"}, body["responses"])
	assert.NotEmpty(t, body["id"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, body["timestamp"])
	uniqueKeys := body["uniqueKeys"].(map[string]interface{})
	for _, name := range []string{"userId", "sessionId", "tenantId", "deviceId"} {
		assert.NotEmpty(t, uniqueKeys[name], name)
	}
}

func TestServer_GenerateResponse_InvalidBody(t *testing.T) {
	bodies := []string{`[1,2]`, `"okta"`, `42`, `null`, `{}`, `not json`, `{"okta":5}`}

	for _, b := range bodies {
		t.Run(b, func(t *testing.T) {
			s, store := createTestServer(t)

			resp, body := postJSON(t, s.App(), "/api/generate-response", b)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Invalid request body", body["error"])
			assert.Equal(t, "INVALID_INPUT", body["code"])
			assert.Equal(t, 0, store.Count(storage.ResponsesCollection))
		})
	}
}

func TestServer_ResponsesByUser(t *testing.T) {
	s, _ := createTestServer(t)

	var notFound ErrorResponse
	resp := getJSON(t, s.App(), "/api/responses/1000", &notFound)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No responses found for this userId", notFound.Error)

	userID := generate(t, s.App(), `{"okta":"auth_success"}`)
	generate(t, s.App(), `{"okta":"auth_error_generic"}`)

	var docs []map[string]interface{}
	resp = getJSON(t, s.App(), "/api/responses/"+userID, &docs)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, docs, 1)
	assert.Equal(t, "auth_success", docs[0]["responses"].(map[string]interface{})["okta"])
	assert.NotEmpty(t, docs[0]["id"])
	assert.NotEmpty(t, docs[0]["createdAt"])
}

func TestServer_MockPayload(t *testing.T) {
	s, _ := createTestServer(t)
	userID := generate(t, s.App(), `{"okta":"auth_success","payments":"ok"}`)

	var payload map[string]interface{}
	resp := getJSON(t, s.App(), "/api/mocks/okta/"+userID, &payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"sub": userID, "given_name": "Ada"}, payload)

	var plain map[string]interface{}
	resp = getJSON(t, s.App(), "/api/mocks/payments/"+userID, &plain)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", plain["flavor"])

	resp = getJSON(t, s.App(), "/api/mocks/stripe/"+userID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServer_MockPayload_RendersWhenNotStored(t *testing.T) {
	s, store := createTestServer(t)
	store.Insert(storage.ResponsesCollection, map[string]interface{}{
		"responses":  map[string]interface{}{"okta": "auth_success"},
		"uniqueKeys": map[string]interface{}{"userId": "77"},
	})

	var payload map[string]interface{}
	resp := getJSON(t, s.App(), "/api/mocks/okta/77", &payload)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "77", payload["sub"])
}

// ==========================
// OAuth Tests
// ==========================

func TestServer_Authorize_MissingParams(t *testing.T) {
	s, _ := createTestServer(t)
	params := baseParams()
	params.Del("redirect_uri")
	params.Set("userId", "1000")

	var body ErrorResponse
	resp := getJSON(t, s.App(), authorizeURL(params), &body)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_OAUTH_PARAMS", body.Code)
	assert.Contains(t, body.Details, "redirect_uri")
}

func TestServer_Authorize_UnknownUser(t *testing.T) {
	s, _ := createTestServer(t)
	params := baseParams()
	params.Set("user_id", "424242")

	var body ErrorResponse
	resp := getJSON(t, s.App(), authorizeURL(params), &body)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestServer_Authorize_UserNotAssigned(t *testing.T) {
	s, _ := createTestServer(t)
	userID := generate(t, s.App(), `{"okta":"auth_error_user_not_assigned"}`)
	params := baseParams()
	params.Set("userId", userID)

	resp, _ := doRequest(t, s.App(), httptest.NewRequest(http.MethodGet, authorizeURL(params), nil))

	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", location.Query().Get("error"))
	assert.Contains(t, location.Query().Get("error_description"), "not assigned")
	assert.Equal(t, "st-1", location.Query().Get("state"))
}

func TestServer_Authorize_ParkResumeAndExchange(t *testing.T) {
	s, _ := createTestServer(t)
	app := s.App()
	userID := generate(t, app, `{"okta":"auth_success"}`)

	var parked map[string]interface{}
	resp := getJSON(t, app, authorizeURL(baseParams()), &parked)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "awaiting_user_key", parked["state"])
	sessionID := parked["sessionId"].(string)

	resp, _ = postForm(t, app, "/oauth2/v1/authorize", url.Values{"sessionId": {sessionID}, "userId": {userID}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	assert.True(t, strings.HasPrefix(code, "mock_code_"+userID+"_"), code)
	assert.Equal(t, "st-1", location.Query().Get("state"))

	exchange := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"web-app"},
		"redirect_uri": {redirectURI},
	}
	resp, token := postForm(t, app, "/oauth2/v1/token", exchange)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "mock."+userID+".web-app", token["id_token"])
	assert.Equal(t, "Bearer", token["token_type"])
	assert.Equal(t, float64(3600), token["expires_in"])
	assert.True(t, strings.HasPrefix(token["access_token"].(string), "mock_access_"))

	resp, body := postForm(t, app, "/oauth2/v1/token", exchange)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", body["error"])
}

func otherClientParams(i int) url.Values {
	return url.Values{
		"client_id":     {fmt.Sprintf("client-bbb%d", i)},
		"response_type": {"code"},
		"redirect_uri":  {fmt.Sprintf("https://bbbb%d.example.com/cb", i)},
		"state":         {fmt.Sprintf("state-bbb%d", i)},
	}
}

func TestServer_Authorize_ParkedSessionSurvivesOtherRequests(t *testing.T) {
	s, _ := createTestServer(t)
	app := s.App()
	userID := generate(t, app, `{"okta":"auth_success"}`)

	own := url.Values{
		"client_id":     {"client-aaaa"},
		"response_type": {"code"},
		"redirect_uri":  {"https://aaaa.example.com/cb"},
		"state":         {"state-aaaa"},
	}
	var parked map[string]interface{}
	resp := getJSON(t, app, authorizeURL(own), &parked)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sessionID := parked["sessionId"].(string)

	for i := 0; i < 5; i++ {
		resp := getJSON(t, app, authorizeURL(otherClientParams(i)), nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		resp, _ = postForm(t, app, "/oauth2/v1/authorize", otherClientParams(i))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, _ = postJSON(t, app, "/oauth2/v1/authorize", `{"sessionId":"`+sessionID+`","userId":"`+userID+`"}`)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "aaaa.example.com", location.Host)
	assert.Equal(t, "state-aaaa", location.Query().Get("state"))

	resp, token := postForm(t, app, "/oauth2/v1/token", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {location.Query().Get("code")},
		"client_id":    {"client-aaaa"},
		"redirect_uri": {"https://aaaa.example.com/cb"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, token)
	assert.Equal(t, "mock."+userID+".client-aaaa", token["id_token"])
}

func TestServer_Token_RedeemAfterOtherAuthorizeTraffic(t *testing.T) {
	s, _ := createTestServer(t)
	app := s.App()
	userID := generate(t, app, `{"okta":"auth_success"}`)

	own := url.Values{
		"client_id":     {"client-aaaa"},
		"response_type": {"code"},
		"redirect_uri":  {"https://aaaa.example.com/cb"},
		"state":         {"state-aaaa"},
		"userId":        {userID},
	}
	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, authorizeURL(own), nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	for i := 0; i < 3; i++ {
		other := otherClientParams(i)
		other.Set("userId", userID)
		resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, authorizeURL(other), nil))
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
	}

	resp, token := postForm(t, app, "/oauth2/v1/token", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"client-aaaa"},
		"redirect_uri": {"https://aaaa.example.com/cb"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, token)
	assert.Equal(t, "Bearer", token["token_type"])
}

func TestServer_Token_Errors(t *testing.T) {
	s, _ := createTestServer(t)
	app := s.App()
	userID := generate(t, app, `{"okta":"auth_success"}`)

	params := baseParams()
	params.Set("userId", userID)
	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, authorizeURL(params), nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, _ := url.Parse(resp.Header.Get("Location"))
	code := location.Query().Get("code")

	resp, body := postForm(t, app, "/oauth2/v1/token", url.Values{"grant_type": {"password"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported_grant_type", body["error"])

	resp, body = postForm(t, app, "/oauth2/v1/token", url.Values{"grant_type": {"authorization_code"}})
	assert.Equal(t, "invalid_request", body["error"])

	resp, body = postJSON(t, app, "/oauth2/v1/token", `{"grant_type":"authorization_code","code":"`+code+`","client_id":"other","redirect_uri":"`+redirectURI+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestServer_AuthorizeSubmit_FullParamsAsJSON(t *testing.T) {
	s, _ := createTestServer(t)
	userID := generate(t, s.App(), `{"okta":"auth_error_generic"}`)

	resp, _ := postJSON(t, s.App(), "/oauth2/v1/authorize",
		`{"client_id":"web-app","response_type":"code","redirect_uri":"`+redirectURI+`","userId":"`+userID+`"}`)

	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Authentication failed", location.Query().Get("error_description"))
}
