package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"securegate.org/internal/auth"
	"securegate.org/internal/emergency"
	"securegate.org/internal/feedback"
	"securegate.org/internal/report"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("SECUREGATE_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	accounts := auth.NewService(auth.NewInMemoryUsers())
	api := New(ReadyProbe{}, "test",
		accounts,
		report.NewInMemory(),
		emergency.NewInMemory(),
		feedback.NewInMemory(),
		WithRateLimit(1000, 1000),
	)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) patch(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPatch, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// register creates an account and returns its bearer header plus user id.
func (c *apiClient) register(name, email, role string) (map[string]string, string) {
	c.t.Helper()
	resp := c.post("/v1/auth/register", map[string]any{
		"name":     name,
		"email":    email,
		"password": "correct horse battery",
		"role":     role,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("register %s: unexpected status %d", email, resp.StatusCode)
	}
	session := decode[map[string]any](c.t, resp)
	token, _ := session["token"].(string)
	if token == "" {
		c.t.Fatalf("register %s: empty token", email)
	}
	user := session["user"].(map[string]any)
	return map[string]string{"Authorization": "Bearer " + token}, user["id"].(string)
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestReportLifecycleFlow(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")
	admin, _ := api.register("Ana", "ana@example.com", "admin")

	// Resident files a theft report.
	resp := api.post("/v1/report", map[string]any{
		"category":    "theft",
		"title":       "Bike stolen",
		"description": "Taken from the garage overnight",
		"location":    "Garage level 2",
	}, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create report: unexpected status %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)
	if created["status"] != "pending" {
		t.Fatalf("new report not pending: %v", created["status"])
	}

	// It shows up in the author's own list.
	resp = api.get("/v1/report/user", nil, resident)
	own := decode[map[string]any](t, resp)
	if len(own["items"].([]any)) != 1 {
		t.Fatalf("expected one own report, got %v", own["items"])
	}

	// Resident cannot approve it.
	resp = api.patch("/v1/report/"+id, map[string]any{"status": "approved"}, resident)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for resident transition, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin approves with a response, then resolves.
	resp = api.patch("/v1/report/"+id, map[string]any{
		"status":         "approved",
		"admin_response": "patrol dispatched",
	}, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: unexpected status %d", resp.StatusCode)
	}
	approved := decode[map[string]any](t, resp)
	if approved["status"] != "approved" || approved["admin_response"] != "patrol dispatched" {
		t.Fatalf("unexpected approved payload: %v", approved)
	}

	resp = api.patch("/v1/report/"+id, map[string]any{"status": "resolved"}, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: unexpected status %d", resp.StatusCode)
	}
	resolved := decode[map[string]any](t, resp)
	if resolved["admin_response"] != "patrol dispatched" {
		t.Fatalf("admin response lost on resolve: %v", resolved)
	}

	// Resolved is terminal.
	resp = api.patch("/v1/report/"+id, map[string]any{"status": "approved"}, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for transition out of resolved, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Any authenticated user can read it by id.
	resp = api.get("/v1/report/"+id, nil, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by id: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReportValidation(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")

	resp := api.post("/v1/report", map[string]any{
		"category":    "conspiracy",
		"title":       "x",
		"description": "y",
		"location":    "z",
	}, resident)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/report", map[string]any{"category": "theft"}, resident)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEmergencyResponseFlow(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")
	adminX, adminXID := api.register("Xavier", "x@example.com", "admin")
	adminY, _ := api.register("Yusuf", "y@example.com", "admin")

	resp := api.post("/v1/emergency", map[string]any{
		"type":     "fire",
		"location": "Block C stairwell",
	}, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create emergency: unexpected status %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)
	if created["status"] != "active" {
		t.Fatalf("new emergency not active: %v", created["status"])
	}

	// Active queue is admin-only and contains the alert.
	resp = api.get("/v1/emergency/admin", nil, resident)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for resident on admin queue, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/v1/emergency/admin", nil, adminX)
	queue := decode[map[string]any](t, resp)
	if len(queue["items"].([]any)) != 1 {
		t.Fatalf("expected one active emergency, got %v", queue["items"])
	}

	// Admin X responds; the responder binding is theirs.
	resp = api.patch("/v1/emergency/"+id, map[string]any{
		"status":         "responded",
		"response_notes": "on the way",
	}, adminX)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("respond: unexpected status %d", resp.StatusCode)
	}
	responded := decode[map[string]any](t, resp)
	if responded["responding_admin_id"] != adminXID {
		t.Fatalf("responder not bound to admin X: %v", responded)
	}

	// Admin Y resolves; the binding does not move.
	resp = api.patch("/v1/emergency/"+id, map[string]any{"status": "resolved"}, adminY)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: unexpected status %d", resp.StatusCode)
	}
	resolved := decode[map[string]any](t, resp)
	if resolved["responding_admin_id"] != adminXID {
		t.Fatalf("responder binding overwritten: %v", resolved)
	}
	if resolved["resolved_at"] == nil {
		t.Fatalf("resolved_at not stamped: %v", resolved)
	}

	// Queue is empty again; the full list still shows it.
	resp = api.get("/v1/emergency/admin", nil, adminX)
	queue = decode[map[string]any](t, resp)
	if len(queue["items"].([]any)) != 0 {
		t.Fatalf("resolved emergency still in active queue: %v", queue["items"])
	}
	resp = api.get("/v1/admin/emergencies", nil, adminX)
	all := decode[map[string]any](t, resp)
	if len(all["items"].([]any)) != 1 {
		t.Fatalf("expected one emergency overall, got %v", all["items"])
	}

	// Any authenticated user can read a single alert by id.
	resp = api.get("/v1/emergency/"+id, nil, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by id: unexpected status %d", resp.StatusCode)
	}
	fetched := decode[map[string]any](t, resp)
	if fetched["status"] != "resolved" {
		t.Fatalf("unexpected emergency payload: %v", fetched)
	}
}

func TestEmergencySkipRejected(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")
	admin, _ := api.register("Ana", "ana@example.com", "admin")

	resp := api.post("/v1/emergency", map[string]any{
		"type":     "medical",
		"location": "Unit 4A",
	}, resident)
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)

	resp = api.patch("/v1/emergency/"+id, map[string]any{"status": "resolved"}, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for active->resolved, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHistoryPerRole(t *testing.T) {
	api := newTestAPI(t)
	rita, _ := api.register("Rita", "rita@example.com", "resident")
	marco, _ := api.register("Marco", "marco@example.com", "resident")
	admin, _ := api.register("Ana", "ana@example.com", "admin")

	resp := api.post("/v1/report", map[string]any{
		"category":    "noise",
		"title":       "Loud music",
		"description": "Every night past midnight",
		"location":    "Unit 7B",
	}, rita)
	created := decode[map[string]any](t, resp)
	reportID := created["id"].(string)

	resp = api.post("/v1/emergency", map[string]any{
		"type":     "general",
		"location": "Front gate",
	}, rita)
	created = decode[map[string]any](t, resp)
	emergencyID := created["id"].(string)

	// Another resident sees nothing of Rita's.
	resp = api.get("/v1/history", nil, marco)
	view := decode[map[string]any](t, resp)
	if len(view["reports"].([]any)) != 0 || len(view["emergencies"].([]any)) != 0 {
		t.Fatalf("history leaked across residents: %v", view)
	}

	// Rita sees both of her items.
	resp = api.get("/v1/history", nil, rita)
	view = decode[map[string]any](t, resp)
	if len(view["reports"].([]any)) != 1 || len(view["emergencies"].([]any)) != 1 {
		t.Fatalf("resident history incomplete: %v", view)
	}

	// Admin history: approved reports plus personally handled emergencies.
	resp = api.get("/v1/history", nil, admin)
	view = decode[map[string]any](t, resp)
	if len(view["reports"].([]any)) != 0 || len(view["emergencies"].([]any)) != 0 {
		t.Fatalf("admin history should start empty: %v", view)
	}

	api.patch("/v1/report/"+reportID, map[string]any{"status": "approved"}, admin).Body.Close()
	api.patch("/v1/emergency/"+emergencyID, map[string]any{"status": "responded"}, admin).Body.Close()

	resp = api.get("/v1/history", nil, admin)
	view = decode[map[string]any](t, resp)
	if len(view["reports"].([]any)) != 1 || len(view["emergencies"].([]any)) != 1 {
		t.Fatalf("admin history incomplete after handling: %v", view)
	}
}

func TestFeedbackFlow(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")
	admin, _ := api.register("Ana", "ana@example.com", "admin")

	resp := api.post("/v1/feedback", map[string]any{
		"message": "More lighting near the gate",
		"rating":  4,
	}, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create feedback: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/feedback", map[string]any{
		"message": "x",
		"rating":  9,
	}, resident)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating out of range, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/v1/feedback", nil, resident)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for resident feedback list, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/v1/feedback", nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list feedback: unexpected status %d", resp.StatusCode)
	}
	items := decode[map[string]any](t, resp)
	if len(items["items"].([]any)) != 1 {
		t.Fatalf("expected one feedback entry, got %v", items["items"])
	}
}

func TestRegisterConflictAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register("Rita", "rita@example.com", "resident")

	resp := api.post("/v1/auth/register", map[string]any{
		"name":     "Other Rita",
		"email":    "rita@example.com",
		"password": "another password",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/auth/login", map[string]any{
		"email":    "rita@example.com",
		"password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/auth/login", map[string]any{
		"email":    "Rita@Example.com",
		"password": "correct horse battery",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status %d", resp.StatusCode)
	}
	session := decode[map[string]any](t, resp)
	if session["token"] == "" {
		t.Fatalf("empty session token")
	}
}

func TestProfileUpdate(t *testing.T) {
	api := newTestAPI(t)
	resident, _ := api.register("Rita", "rita@example.com", "resident")

	resp := api.patch("/v1/profile", map[string]any{
		"name":        "Rita M.",
		"unit_number": "7B",
	}, resident)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile: unexpected status %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["name"] != "Rita M." || updated["unit_number"] != "7B" {
		t.Fatalf("profile update not applied: %v", updated)
	}
	if updated["email"] != "rita@example.com" || updated["role"] != "resident" {
		t.Fatalf("immutable fields changed: %v", updated)
	}

	resp = api.get("/v1/auth/me", nil, resident)
	me := decode[map[string]any](t, resp)
	if me["name"] != "Rita M." {
		t.Fatalf("me endpoint stale: %v", me)
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/report", map[string]any{
		"category":    "theft",
		"title":       "x",
		"description": "y",
		"location":    "z",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestHealthAndInfo(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := api.get(path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}
