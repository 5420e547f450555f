package websocket

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/dennisdiepolder/dropboard/internal/config"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))

	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}
	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("expected register channels to be initialized")
	}
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	hub.mu.Lock()
	hub.clients[&Client{id: "test1"}] = true
	hub.clients[&Client{id: "test2"}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))
	go hub.Run()

	client := &Client{
		id:   "test-client",
		hub:  hub,
		send: make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func receiveNotice(t *testing.T, c *Client) types.RefreshNotice {
	t.Helper()
	select {
	case msg := <-c.send:
		var n types.RefreshNotice
		if err := json.Unmarshal(msg, &n); err != nil {
			t.Fatalf("%s got invalid JSON: %v", c.id, err)
		}
		return n
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("%s did not receive notice", c.id)
	}
	return types.RefreshNotice{}
}

func TestHubBroadcastNoticeToMultipleAdmins(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))
	go hub.Run()

	admin := dashboard.Identity{Email: "boss@example.com", IsAdmin: true}
	client1 := &Client{id: "client1", hub: hub, send: make(chan []byte, 10), identity: admin}
	client2 := &Client{id: "client2", hub: hub, send: make(chan []byte, 10), identity: admin}
	hub.register <- client1
	hub.register <- client2

	hub.BroadcastNotice(types.RefreshNotice{Type: types.NoticeTypeRefreshed, RecordCount: 3, TotalDrops: 40})

	for _, c := range []*Client{client1, client2} {
		if n := receiveNotice(t, c); n.RecordCount != 3 || n.TotalDrops != 40 {
			t.Errorf("%s got unexpected notice %+v", c.id, n)
		}
	}
}

func TestHubBroadcastNoticeScopesUsers(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))
	go hub.Run()

	admin := &Client{id: "admin", hub: hub, send: make(chan []byte, 1), identity: dashboard.Identity{Email: "boss@example.com", IsAdmin: true}}
	user := &Client{id: "user", hub: hub, send: make(chan []byte, 1), identity: dashboard.Identity{Email: " Worker@Example.com"}}
	stranger := &Client{id: "stranger", hub: hub, send: make(chan []byte, 1), identity: dashboard.Identity{Email: "new@example.com"}}
	anonymous := &Client{id: "anonymous", hub: hub, send: make(chan []byte, 1)}
	for _, c := range []*Client{admin, user, stranger, anonymous} {
		hub.register <- c
	}

	amount := 20030.0
	hub.BroadcastNotice(types.RefreshNotice{
		Type:        types.NoticeTypeRefreshed,
		RecordCount: 500,
		TotalDrops:  12345,
		TotalAmount: &amount,
		ByEmail: map[string]types.NoticeTotals{
			"worker@example.com": {RecordCount: 2, TotalDrops: 90},
			"boss@example.com":   {RecordCount: 1, TotalDrops: 10},
		},
	})

	if n := receiveNotice(t, admin); n.RecordCount != 500 || n.TotalDrops != 12345 || n.TotalAmount == nil || *n.TotalAmount != amount {
		t.Errorf("admin expected global totals, got %+v", n)
	}

	tests := []struct {
		client     *Client
		wantCount  int
		wantTotals float64
	}{
		{user, 2, 90},
		{stranger, 0, 0},
		{anonymous, 0, 0},
	}
	for _, tt := range tests {
		n := receiveNotice(t, tt.client)
		if n.RecordCount != tt.wantCount || n.TotalDrops != tt.wantTotals {
			t.Errorf("%s expected %d records and %v drops, got %+v", tt.client.id, tt.wantCount, tt.wantTotals, n)
		}
		if n.TotalAmount != nil {
			t.Errorf("%s must not see amount, got %v", tt.client.id, *n.TotalAmount)
		}
	}
}

func TestRefreshNoticeKeepsBreakdownServerSide(t *testing.T) {
	data, err := json.Marshal(types.RefreshNotice{
		Type:    types.NoticeTypeRefreshed,
		ByEmail: map[string]types.NoticeTotals{"worker@example.com": {RecordCount: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "worker@example.com") {
		t.Errorf("per-employee totals leaked into JSON: %s", data)
	}
}

func TestHandlerDeliversNotice(t *testing.T) {
	cfg := &config.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		PongWait:       time.Second,
		PingPeriod:     900 * time.Millisecond,
		WriteWait:      time.Second,
		MaxMessageSize: 512,
	}
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)
	go hub.Run()

	handler := NewHandler(hub, cfg, logger)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithClaims(r.Context(), &auth.Claims{Email: "worker@example.com", Role: types.RoleUser})
		handler.ServeHTTP(w, r.WithContext(ctx))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Error("expected foreign origin to be rejected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:5173"}})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	amount := 10.0
	hub.BroadcastNotice(types.RefreshNotice{Type: types.NoticeTypeRefreshed, RecordCount: 1, TotalAmount: &amount})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(msg), "totalAmount") {
		t.Errorf("user connection received amount: %s", msg)
	}
}
