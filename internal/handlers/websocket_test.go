package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"valve_control/internal/models"
	"valve_control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, Config{})

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

func TestParseInterval_ConfiguredDefault(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, Config{WSInterval: 3 * time.Second})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)
	if got := h.parseInterval(c); got != 3*time.Second {
		t.Fatalf("got %v, want 3s", got)
	}
}

// --- websocket integration tests ---

func wsURL(srvURL string, query url.Values) string {
	u, _ := url.Parse(srvURL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()
	return u.String()
}

func TestWebSocket_ValveStream_InitialAndPeriodic(t *testing.T) {
	v := models.NewValve(4, "roses")
	v.AutomationStatus = models.ForceOpen
	v.ValveStatus = models.Open
	mon := &mockMonitoring{valves: []models.Valve{v}}
	s := &service.Service{Monitoring: mon}

	r := gin.New()
	h := NewHandler(s, nil, Config{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL(srv.URL, url.Values{"interval_ms": {"20"}}), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	type envelope struct {
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != wsTypeValves || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var got []models.Valve
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("unmarshal valves: %v", err)
	}
	if len(got) != 1 || got[0].Number != 4 || got[0].ValveStatus != models.Open {
		t.Fatalf("unexpected valves: %+v", got)
	}

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != wsTypeValves {
		t.Fatalf("expected type=valves, got %+v", env)
	}
}

func TestWebSocket_InitialSnapshotError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	s := &service.Service{Monitoring: mon}

	r := gin.New()
	h := NewHandler(s, nil, Config{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL(srv.URL, nil), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
