package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/kv/memory"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/questionnaire"
	"github.com/mycelian/nurture-tracker/internal/services"
	"github.com/mycelian/nurture-tracker/internal/session"
	"github.com/mycelian/nurture-tracker/internal/store/kvstore"
)

const adminPassword = "admin-password"

type fakeHealth struct{ healthy bool }

func (f fakeHealth) IsHealthy() bool { return f.healthy }
func (f fakeHealth) Components() map[string]bool {
	return map[string]bool{"store": f.healthy}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	st := kvstore.New(memory.New())
	q, err := questionnaire.Default()
	require.NoError(t, err)
	reg := session.NewRegistry(st.Sessions(), log)
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	customers := services.NewCustomerService(st, log)
	directory := services.NewDirectoryService(st, log, services.WithPasswordCost(bcrypt.MinCost))
	authSvc := services.NewAuthService(st, reg, tokens, directory, session.DefaultMaxAge, log)
	require.NoError(t, authSvc.Bootstrap(context.Background(), adminPassword))

	r := NewRouter(Deps{
		Auth:          authSvc,
		Authenticator: auth.NewAuthenticator(tokens, reg, st.Users()),
		Customers:     customers,
		Forms:         services.NewFormService(st, customers, q, log),
		Documents:     services.NewDocumentService(st, customers, log),
		Directory:     directory,
		Backup:        services.NewBackupService(st, log),
		Health:        fakeHealth{healthy: true},
		Log:           log,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&rd).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		if len(raw) > 0 && raw[0] == '{' {
			require.NoError(t, json.Unmarshal(raw, &out))
		} else {
			out = map[string]interface{}{"items": raw}
		}
	}
	return resp, out
}

func login(t *testing.T, srv *httptest.Server, username, password, screen string) (int, string) {
	t.Helper()
	resp, out := call(t, srv, http.MethodPost, "/api/login", "", map[string]interface{}{
		"username": username,
		"password": password,
		"device":   map[string]string{"userAgent": "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0", "screen": screen},
	})
	tok, _ := out["token"].(string)
	return resp.StatusCode, tok
}

func TestLogin_ResponseShape(t *testing.T) {
	srv := newServer(t)
	resp, out := call(t, srv, http.MethodPost, "/api/login", "", map[string]interface{}{
		"username": "admin",
		"password": adminPassword,
		"device":   map[string]string{"userAgent": "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"token", "deviceId", "user"}, keys)
	assert.NotEmpty(t, out["deviceId"])
	assert.Equal(t, "admin", out["user"].(map[string]interface{})["username"])
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	srv := newServer(t)

	resp, out := call(t, srv, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", out["status"])

	m, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	m.Body.Close()
	assert.Equal(t, http.StatusOK, m.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newServer(t)

	resp, out := call(t, srv, http.MethodGet, "/api/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", out["error"])

	resp, _ = call(t, srv, http.MethodGet, "/api/customers", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newServer(t)
	code, tok := login(t, srv, "admin", "wrong-password", "a")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, tok)
}

func TestDayCompletionOverHTTP(t *testing.T) {
	srv := newServer(t)
	code, tok := login(t, srv, "admin", adminPassword, "a")
	require.Equal(t, http.StatusOK, code)

	resp, c := call(t, srv, http.MethodPost, "/api/customers", tok, map[string]string{"name": "Mai"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := c["id"].(string)
	assert.Equal(t, float64(1), c["currentDay"])

	// one answer short
	for q := 0; q < model.QuestionsPerDay-1; q++ {
		resp, _ = call(t, srv, http.MethodPut, fmt.Sprintf("/api/customers/%s/days/1/answers/%d", id, q), tok, map[string]string{"answer": "ok"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, out := call(t, srv, http.MethodPost, "/api/customers/"+id+"/days/1/complete", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	details := out["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(8)}, details["missing"])

	resp, _ = call(t, srv, http.MethodPut, "/api/customers/"+id+"/days/1/answers/8", tok, map[string]string{"answer": "last"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, p := call(t, srv, http.MethodGet, "/api/customers/"+id+"/days/1/progress", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, p["complete"])

	resp, c = call(t, srv, http.MethodPost, "/api/customers/"+id+"/days/1/complete", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{float64(1)}, c["completedDays"])
	assert.Equal(t, float64(2), c["currentDay"])
	assert.Equal(t, "active", c["status"])
	assert.InDelta(t, 14.2857, c["totalProgress"], 0.001)
}

func TestOutOfGridAnswerRejected(t *testing.T) {
	srv := newServer(t)
	_, tok := login(t, srv, "admin", adminPassword, "a")
	_, c := call(t, srv, http.MethodPost, "/api/customers", tok, map[string]string{"name": "Mai"})
	id := c["id"].(string)

	resp, _ := call(t, srv, http.MethodPut, "/api/customers/"+id+"/days/8/answers/0", tok, map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = call(t, srv, http.MethodPut, "/api/customers/"+id+"/days/1/answers/abc", tok, map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEmployeeCannotManageUsers(t *testing.T) {
	srv := newServer(t)
	_, admin := login(t, srv, "admin", adminPassword, "a")

	resp, _ := call(t, srv, http.MethodPost, "/api/users", admin, map[string]string{
		"username": "emp1", "password": "employee-pass", "fullName": "Emp One", "role": "employee",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	code, emp := login(t, srv, "emp1", "employee-pass", "b")
	require.Equal(t, http.StatusOK, code)

	resp, _ = call(t, srv, http.MethodGet, "/api/users", emp, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the employee cannot see the manager's customers
	_, c := call(t, srv, http.MethodPost, "/api/customers", admin, map[string]string{"name": "Mai"})
	resp, _ = call(t, srv, http.MethodGet, "/api/customers/"+c["id"].(string), emp, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFourthDeviceRejectedAndLogoutFreesSlot(t *testing.T) {
	srv := newServer(t)
	var first string
	for i, screen := range []string{"d1", "d2", "d3"} {
		code, tok := login(t, srv, "admin", adminPassword, screen)
		require.Equal(t, http.StatusOK, code)
		if i == 0 {
			first = tok
		}
	}
	code, _ := login(t, srv, "admin", adminPassword, "d4")
	assert.Equal(t, http.StatusTooManyRequests, code)

	resp, _ := call(t, srv, http.MethodPost, "/api/logout", first, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the logged out token no longer authenticates
	resp, _ = call(t, srv, http.MethodGet, "/api/devices", first, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	code, _ = login(t, srv, "admin", adminPassword, "d4")
	assert.Equal(t, http.StatusOK, code)
}

func TestValidationErrorsAreBadRequests(t *testing.T) {
	srv := newServer(t)
	_, tok := login(t, srv, "admin", adminPassword, "a")

	resp, out := call(t, srv, http.MethodPost, "/api/customers", tok, map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "name is required")

	resp, _ = call(t, srv, http.MethodPost, "/api/customers", tok, map[string]string{"nom": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteCustomerCascadesOverHTTP(t *testing.T) {
	srv := newServer(t)
	_, tok := login(t, srv, "admin", adminPassword, "a")
	_, c := call(t, srv, http.MethodPost, "/api/customers", tok, map[string]string{"name": "Mai"})
	id := c["id"].(string)

	resp, _ := call(t, srv, http.MethodPost, "/api/customers/"+id+"/notes", tok, map[string]string{"content": "call back"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodDelete, "/api/customers/"+id, tok, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodGet, "/api/customers/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = call(t, srv, http.MethodGet, "/api/customers/"+id+"/notes", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
