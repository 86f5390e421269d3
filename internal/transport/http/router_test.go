package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ivey1207/supperapp/internal/config"
	"github.com/ivey1207/supperapp/internal/core/services"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/events"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/memory"
	httpmw "github.com/ivey1207/supperapp/internal/transport/http/middleware"
	"github.com/shopspring/decimal"
)

const (
	testSecret     = "router-test-secret"
	testAgentToken = "router-agent-token"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Auth:    config.AuthConfig{JWTSecret: testSecret, AgentToken: testAgentToken},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	store := memory.NewStore()
	hub := events.NewHub()
	set := services.Build(services.Dependencies{
		Kiosks:      store.Kiosks(),
		Programs:    store.Programs(),
		Controllers: store.Controllers(),
		Commands:    store.Commands(),
		Sessions:    store.WashSessions(),
		Payments:    store.Payments(),
		Timeline:    store.Timeline(),
		Tx:          store.Transactor(),
		Broadcaster: hub,
		Logger:      logger.NewNop(),
		Now:         stepClock(),
		EnableLocks: true,
	})

	ctx := context.Background()
	if err := store.Kiosks().Create(ctx, &domain.Kiosk{
		KioskID:  "K1",
		MacID:    "AA:BB:CC:00:00:01",
		Name:     "Bay 1",
		Status:   domain.KioskStatusActive,
		BranchID: "B1",
		Balance:  decimal.NewFromInt(1000),
	}); err != nil {
		t.Fatalf("seed kiosk: %v", err)
	}
	if err := store.Programs().Create(ctx, &domain.Program{ID: "P1", BranchID: "B1", Name: "Foam", RelayBits: "0011", Active: true}); err != nil {
		t.Fatalf("seed program: %v", err)
	}

	app := fiber.New()
	SetupRoutes(app, RouterConfig{Logger: logger.NewNop(), Config: cfg, Services: set, Hub: hub})
	return &testServer{app: app, store: store}
}

// stepClock advances one second per call so command ordering is stable.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func mustToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := httpmw.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// do sends a request and decodes a JSON body into out when out is non-nil.
func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestSessionDispatchOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	user := mustToken(t, "U1", httpmw.RoleUser)

	var session map[string]interface{}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", user, map[string]interface{}{"amount": 50000}, &session); code != stdhttp.StatusOK {
		t.Fatalf("start-session: %d", code)
	}
	if session["status"] != "ACTIVE" || session["user_id"] != "U1" {
		t.Fatalf("unexpected session %v", session)
	}

	var hb struct {
		Status       string                   `json:"status"`
		ControllerID string                   `json:"controller_id"`
		Commands     []map[string]interface{} `json:"commands"`
		ServerTime   string                   `json:"server_time"`
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/heartbeat/K1", testAgentToken, nil, &hb); code != stdhttp.StatusOK {
		t.Fatalf("heartbeat: %d", code)
	}
	if hb.Status != "ok" || hb.ControllerID != "K1" || len(hb.Commands) != 1 || hb.ServerTime == "" {
		t.Fatalf("unexpected heartbeat %+v", hb)
	}
	cmd := hb.Commands[0]
	if cmd["type"] != "session_started" || cmd["id"] != session["command_id"] {
		t.Fatalf("unexpected command %v", cmd)
	}

	path := "/api/v1/controller/command/" + cmd["id"].(string) + "/executed?executionResult=started"
	if code := srv.do(t, stdhttp.MethodPost, path, testAgentToken, nil, nil); code != stdhttp.StatusOK {
		t.Fatalf("executed: %d", code)
	}
	// Repeated acknowledgements succeed.
	if code := srv.do(t, stdhttp.MethodPost, path, testAgentToken, nil, nil); code != stdhttp.StatusOK {
		t.Fatalf("repeated executed: %d", code)
	}

	hb.Commands = nil
	srv.do(t, stdhttp.MethodPost, "/api/v1/controller/heartbeat/K1", testAgentToken, nil, &hb)
	if len(hb.Commands) != 0 {
		t.Fatalf("expected empty command list, got %v", hb.Commands)
	}

	var stopped map[string]interface{}
	stopPath := "/api/v1/app/wash-sessions/" + session["id"].(string) + "/stop"
	if code := srv.do(t, stdhttp.MethodPost, stopPath, user, nil, &stopped); code != stdhttp.StatusOK {
		t.Fatalf("stop: %d", code)
	}
	if stopped["status"] != "FINISHED" || stopped["finish_reason"] != domain.FinishReasonUserStop {
		t.Fatalf("unexpected stop result %v", stopped)
	}
	if code := srv.do(t, stdhttp.MethodPost, stopPath, user, nil, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("stopping a finished session should be 400, got %d", code)
	}
}

func TestStartSessionRejections(t *testing.T) {
	srv := newTestServer(t)
	user := mustToken(t, "U1", httpmw.RoleUser)

	for _, amount := range []interface{}{0, -5, "abc", nil} {
		if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", user, map[string]interface{}{"amount": amount}, nil); code != stdhttp.StatusBadRequest {
			t.Fatalf("amount %v: expected 400, got %d", amount, code)
		}
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", user, map[string]interface{}{"amount": "100"}, nil); code != stdhttp.StatusOK {
		t.Fatalf("string amount: %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", user, map[string]interface{}{"amount": 100}, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("second session should conflict, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K9/start-session", user, map[string]interface{}{"amount": 100}, nil); code != stdhttp.StatusNotFound {
		t.Fatalf("unknown kiosk should be 404, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", "", map[string]interface{}{"amount": 100}, nil); code != stdhttp.StatusUnauthorized {
		t.Fatalf("anonymous start should be 401, got %d", code)
	}
}

func TestKioskInfoIsPublic(t *testing.T) {
	srv := newTestServer(t)

	var info map[string]interface{}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/app/kiosk/K1", "", nil, &info); code != stdhttp.StatusOK {
		t.Fatalf("kiosk info: %d", code)
	}
	if info["kiosk_id"] != "K1" || info["session_active"] != false {
		t.Fatalf("unexpected info %v", info)
	}
	if programs, ok := info["programs"].([]interface{}); !ok || len(programs) != 1 {
		t.Fatalf("expected one program, got %v", info["programs"])
	}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/app/kiosk/nope", "", nil, nil); code != stdhttp.StatusNotFound {
		t.Fatalf("unknown kiosk: expected 404, got %d", code)
	}
}

func TestSessionOwnership(t *testing.T) {
	srv := newTestServer(t)
	owner := mustToken(t, "U1", httpmw.RoleUser)
	other := mustToken(t, "U2", httpmw.RoleUser)
	admin := mustToken(t, "op", httpmw.RoleAdmin)

	var session map[string]interface{}
	srv.do(t, stdhttp.MethodPost, "/api/v1/app/kiosk/K1/start-session", owner, map[string]interface{}{"amount": 10}, &session)
	id := session["id"].(string)

	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/wash-sessions/"+id+"/pause", other, map[string]interface{}{"pause": true}, nil); code != stdhttp.StatusForbidden {
		t.Fatalf("foreign pause: expected 403, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/wash-sessions/"+id+"/pause", owner, map[string]interface{}{}, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("missing pause flag: expected 400, got %d", code)
	}

	var paused map[string]interface{}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/app/wash-sessions/"+id+"/pause", owner, map[string]interface{}{"pause": true}, &paused); code != stdhttp.StatusOK {
		t.Fatalf("pause: %d", code)
	}
	if paused["status"] != "PAUSED" {
		t.Fatalf("expected PAUSED, got %v", paused["status"])
	}

	var active map[string]interface{}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/app/wash-sessions/active", owner, nil, &active); code != stdhttp.StatusOK || active["id"] != id {
		t.Fatalf("active session: %d %v", code, active)
	}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/app/wash-sessions/active", other, nil, nil); code != stdhttp.StatusNotFound {
		t.Fatalf("no active session: expected 404, got %d", code)
	}

	var stopped map[string]interface{}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/admin/wash-sessions/"+id+"/stop", admin, nil, &stopped); code != stdhttp.StatusOK {
		t.Fatalf("admin stop: %d", code)
	}
	if stopped["finish_reason"] != domain.FinishReasonAdminStop {
		t.Fatalf("unexpected reason %v", stopped["finish_reason"])
	}

	var history []map[string]interface{}
	srv.do(t, stdhttp.MethodGet, "/api/v1/app/wash-sessions", owner, nil, &history)
	if len(history) != 1 || history[0]["id"] != id {
		t.Fatalf("unexpected history %v", history)
	}
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	admin := mustToken(t, "op", httpmw.RoleAdmin)
	user := mustToken(t, "U1", httpmw.RoleUser)

	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/admin/kiosks/K1/top-up", user, map[string]interface{}{"amount": 5}, nil); code != stdhttp.StatusForbidden {
		t.Fatalf("user top-up: expected 403, got %d", code)
	}

	var kiosk map[string]interface{}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/admin/kiosks/K1/top-up", admin, map[string]interface{}{"amount": 500}, &kiosk); code != stdhttp.StatusOK {
		t.Fatalf("top-up: %d", code)
	}
	if kiosk["balance"] != float64(1500) {
		t.Fatalf("expected balance 1500, got %v", kiosk["balance"])
	}

	var created map[string]interface{}
	body := map[string]interface{}{"command_type": "set_light", "payload": map[string]string{"frame": "01"}, "priority": 3}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/admin/controllers/K1/commands", admin, body, &created); code != stdhttp.StatusCreated {
		t.Fatalf("enqueue: %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/admin/controllers/K1/commands", admin, map[string]interface{}{"priority": 1}, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("missing command_type: expected 400, got %d", code)
	}

	var cmds []map[string]interface{}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/admin/controllers/K1/commands?status=pending", admin, nil, &cmds); code != stdhttp.StatusOK {
		t.Fatalf("list commands: %d", code)
	}
	if len(cmds) != 2 || cmds[0]["id"] != created["id"] {
		t.Fatalf("unexpected ledger %v", cmds)
	}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/admin/controllers/K1/commands?status=bogus", admin, nil, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/admin/wash-sessions?status=bogus", admin, nil, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("bad session status: expected 400, got %d", code)
	}

	srv.do(t, stdhttp.MethodPost, "/api/v1/controller/heartbeat/K1", testAgentToken, nil, nil)
	var controllers []map[string]interface{}
	srv.do(t, stdhttp.MethodGet, "/api/v1/admin/controllers", admin, nil, &controllers)
	if len(controllers) != 1 || controllers[0]["controller_id"] != "K1" {
		t.Fatalf("unexpected controllers %v", controllers)
	}

	var timeline []map[string]interface{}
	if code := srv.do(t, stdhttp.MethodGet, "/api/v1/admin/timeline?resource_type=kiosk&resource_id=K1", admin, nil, &timeline); code != stdhttp.StatusOK {
		t.Fatalf("timeline: %d", code)
	}
	if len(timeline) == 0 {
		t.Fatalf("expected balance events on the kiosk timeline")
	}
}

func TestControllerRoutes(t *testing.T) {
	srv := newTestServer(t)

	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/heartbeat/K1", "", nil, nil); code != stdhttp.StatusUnauthorized {
		t.Fatalf("missing agent token: expected 401, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/heartbeat/ghost", testAgentToken, nil, nil); code != stdhttp.StatusNotFound {
		t.Fatalf("unknown controller: expected 404, got %d", code)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/command/missing/failed", testAgentToken, map[string]string{"errorMessage": "x"}, nil); code != stdhttp.StatusNotFound {
		t.Fatalf("unknown command: expected 404, got %d", code)
	}

	var payment map[string]interface{}
	body := map[string]interface{}{"macId": "aa:bb:cc:00:00:01", "paymentType": "cash", "amount": 2000}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/payment", testAgentToken, body, &payment); code != stdhttp.StatusOK {
		t.Fatalf("payment: %d", code)
	}
	if payment["status"] != "ok" || payment["kioskBalance"] != float64(3000) {
		t.Fatalf("unexpected payment response %v", payment)
	}
	if code := srv.do(t, stdhttp.MethodPost, "/api/v1/controller/payment", testAgentToken, map[string]interface{}{"macId": "aa:bb:cc:00:00:01", "amount": 0}, nil); code != stdhttp.StatusBadRequest {
		t.Fatalf("zero payment: expected 400, got %d", code)
	}
}

func TestOpsRoutes(t *testing.T) {
	srv := newTestServer(t)
	if code := srv.do(t, stdhttp.MethodGet, "/health", "", nil, nil); code != stdhttp.StatusOK {
		t.Fatalf("health: %d", code)
	}
	req := httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil || resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("metrics: %v %v", resp, err)
	}
	resp.Body.Close()
}
