// ABOUTME: End-to-end handler tests exercising the full HTTP surface
// ABOUTME: Uses a real SQLite store with a fake provider behind the agents service

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/voicegate/internal/agents"
	"github.com/2389/voicegate/internal/auth"
	"github.com/2389/voicegate/internal/scheduler"
	"github.com/2389/voicegate/internal/store"
)

// fakeProvider stands in for the remote conversational-AI provider.
type fakeProvider struct {
	createCalls int
	deleteCalls int
	createErr   error
	deleteErr   error
}

func (f *fakeProvider) CreateAgent(ctx context.Context, name, systemPrompt string) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return fmt.Sprintf("ag_%03d", f.createCalls), nil
}

func (f *fakeProvider) DeleteAgent(ctx context.Context, agentID string) error {
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeProvider) StartOutboundCall(ctx context.Context, agentID string) error {
	return nil
}

type testEnv struct {
	mux      *http.ServeMux
	store    *store.SQLiteStore
	provider *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	provider := &fakeProvider{}
	svc := agents.NewService(st, provider, nil)
	sched := scheduler.New(st, provider, time.Minute)
	verifier := auth.NewJWTVerifier([]byte("test-secret"))

	server := NewServer(st, svc, sched, verifier, time.Hour)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	return &testEnv{mux: mux, store: st, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and logs them in, returning a bearer token.
func (e *testEnv) signup(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":      email,
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRec := httptest.NewRecorder()
	e.mux.ServeHTTP(loginRec, req)
	require.Equal(t, http.StatusOK, loginRec.Code, loginRec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotEmpty(t, body["id"])

	// Same email again conflicts.
	rec = env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    "ada@example.com",
		"password": "different",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "hunter22"}},
		{"missing password", map[string]string{"email": "ada@example.com"}},
		{"malformed email", map[string]string{"email": "not-an-address", "password": "hunter22"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ada@example.com", "hunter22")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "ada@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"username": {tt.username}, "password": {tt.password}}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Equal(t, "Ada", body["first_name"])

	rec = env.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListAgents(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{
		"name":          "Receptionist",
		"system_prompt": "You answer the phone.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "ag_001", body["agent_id"])
	assert.Equal(t, "Receptionist", body["name"])

	rec = env.do(t, http.MethodGet, "/agents", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)["agents"].([]any)
	require.Len(t, list, 1)
	agent := list[0].(map[string]any)
	assert.Equal(t, "ag_001", agent["id"])
	assert.Equal(t, "Receptionist", agent["name"])
	assert.Nil(t, agent["phone_number"])
}

func TestCreateAgentDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "Receptionist"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The pre-check catches the duplicate before the provider is contacted.
	assert.Equal(t, 1, env.provider.createCalls)
}

func TestCreateAgentValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.provider.createCalls)
}

func TestDeleteAgent(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)
	agentID := decodeBody(t, rec)["agent_id"].(string)

	rec = env.do(t, http.MethodDelete, "/agents/"+agentID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Contains(t, body["message"], agentID)

	// Gone now.
	rec = env.do(t, http.MethodDelete, "/agents/"+agentID, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAgentWrongOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "ada@example.com", "hunter22")
	other := env.signup(t, "bob@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", owner, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)
	agentID := decodeBody(t, rec)["agent_id"].(string)

	deletesBefore := env.provider.deleteCalls
	rec = env.do(t, http.MethodDelete, "/agents/"+agentID, other, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, deletesBefore, env.provider.deleteCalls)

	// Owner still sees the agent.
	rec = env.do(t, http.MethodGet, "/agents", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["agents"], 1)
}

func TestScheduleLead(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)
	agentID := decodeBody(t, rec)["agent_id"].(string)

	when := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	rec = env.do(t, http.MethodPost, "/leads/analyze-and-schedule", token, map[string]any{
		"conversation":   "Caller wants a quote tomorrow afternoon.",
		"scheduled_time": when,
		"agent_id":       agentID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["call_id"])
	assert.Equal(t, agentID, data["agent_id"])

	// The call is persisted as pending.
	calls, err := env.store.ListCallsByUser(context.Background(), callerID(t, env, token))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, store.CallStatusPending, calls[0].Status)
	assert.True(t, calls[0].ScheduledAt.Equal(when))
}

// callerID resolves the user id behind a bearer token via /me.
func callerID(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)["id"].(string)
}

func TestScheduleLeadValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", token, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)
	agentID := decodeBody(t, rec)["agent_id"].(string)

	future := time.Now().Add(time.Hour)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing conversation", map[string]any{"scheduled_time": future, "agent_id": agentID}},
		{"missing agent", map[string]any{"conversation": "hi", "scheduled_time": future}},
		{"past time", map[string]any{"conversation": "hi", "scheduled_time": time.Now().Add(-time.Hour), "agent_id": agentID}},
		{"unknown agent", map[string]any{"conversation": "hi", "scheduled_time": future, "agent_id": "ag_missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/leads/analyze-and-schedule", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestScheduleLeadOtherUsersAgent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "ada@example.com", "hunter22")
	other := env.signup(t, "bob@example.com", "hunter22")

	rec := env.do(t, http.MethodPost, "/agents", owner, map[string]any{"name": "Receptionist"})
	require.Equal(t, http.StatusOK, rec.Code)
	agentID := decodeBody(t, rec)["agent_id"].(string)

	rec = env.do(t, http.MethodPost, "/leads/analyze-and-schedule", other, map[string]any{
		"conversation":   "hi",
		"scheduled_time": time.Now().Add(time.Hour),
		"agent_id":       agentID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/agents"},
		{http.MethodPost, "/agents"},
		{http.MethodDelete, "/agents/ag_001"},
		{http.MethodPost, "/leads/analyze-and-schedule"},
	} {
		rec := env.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}
