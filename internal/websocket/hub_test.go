package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/audio"
)

type received struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestHubReplaysLatestAlertAndBroadcasts(t *testing.T) {
	hub, srv := startHub(t)

	presenter := NewAlertPresenter(hub)
	presenter.Present(alerting.ViewModel{Visible: true, SaleProcessID: "p1", SellerDisplayName: "Ana Souza", EntryValue: 2500})
	waitFor(t, func() bool { return len(hub.broadcast) == 0 })

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeAlert {
		t.Fatalf("first message type = %s, want alert", msg.Type)
	}
	var view alerting.ViewModel
	if err := json.Unmarshal(msg.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if !view.Visible || view.SellerDisplayName != "Ana Souza" || view.EntryValue != 2500 {
		t.Fatalf("unexpected view %+v", view)
	}

	if err := hub.Broadcast(MessageTypeLeaderboard, map[string]int{"totalProcesses": 7}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeLeaderboard {
		t.Fatalf("message type = %s, want leaderboard", msg.Type)
	}
}

func TestHubDispatchesInbound(t *testing.T) {
	hub, srv := startHub(t)
	completions := make(chan string, 1)
	hub.OnInbound(func(clientID string, msg Inbound) {
		if msg.Type == MessageTypeAlertComplete {
			completions <- clientID
		}
	})

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := conn.WriteJSON(map[string]string{"type": "ready"}); err != nil {
		t.Fatalf("write ready: %v", err)
	}
	waitFor(t, func() bool { return hub.ReadyCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "alertComplete"}); err != nil {
		t.Fatalf("write complete: %v", err)
	}
	select {
	case id := <-completions:
		if id == "" {
			t.Fatalf("client id should be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("alertComplete not dispatched")
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestCuePlayer(t *testing.T) {
	hub, srv := startHub(t)
	player := NewCuePlayer(hub, "/sounds")

	if err := player.PlayVoice(context.Background(), "v.mp3"); !errors.Is(err, audio.ErrPlayback) {
		t.Fatalf("expected ErrPlayback without screens, got %v", err)
	}

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := player.PlayBell(context.Background(), "Sino.mp3", false); err != nil {
		t.Fatalf("PlayBell: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != MessageTypeAudioCue {
		t.Fatalf("message type = %s", msg.Type)
	}
	var cue AudioCue
	if err := json.Unmarshal(msg.Data, &cue); err != nil {
		t.Fatalf("decode cue: %v", err)
	}
	if cue.Action != "play" || cue.Cue != "bell" || cue.URL != "/sounds/Sino.mp3" || cue.Volume != 1 {
		t.Fatalf("unexpected cue %+v", cue)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := player.PlayVoice(ctx, "v.mp3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOriginChecker(t *testing.T) {
	open := NewOriginChecker(nil)
	if !open.Check("https://tv.example.com") {
		t.Fatalf("empty allow list should allow all")
	}

	strict := NewOriginChecker([]string{"https://tv.example.com", " "})
	if !strict.Check("https://tv.example.com") || !strict.Check("") {
		t.Fatalf("listed origin and non-browser clients should pass")
	}
	if strict.Check("https://evil.example.com") {
		t.Fatalf("unlisted origin should be rejected")
	}

	if !NewOriginChecker([]string{"*"}).Check("https://any.example.com") {
		t.Fatalf("wildcard should allow all")
	}
}

func TestAlertPresenterLogsDroppedClear(t *testing.T) {
	var buf bytes.Buffer
	hub := NewHub(nil, zerolog.New(&buf))

	// hub loop is not running, so the outbound buffer fills up
	for i := 0; ; i++ {
		if err := hub.Broadcast(MessageTypeLeaderboard, i); errors.Is(err, ErrBacklog) {
			break
		}
		if i > 10000 {
			t.Fatal("broadcast buffer never filled")
		}
	}
	buf.Reset()

	NewAlertPresenter(hub).Clear(alerting.ViewModel{SaleProcessID: "p1", PresentationID: 3})
	NewCuePlayer(hub, "/sounds").StopAll()

	out := buf.String()
	if !strings.Contains(out, "alert message not delivered to screens") || !strings.Contains(out, `"action":"clear"`) {
		t.Fatalf("dropped clear not logged: %s", out)
	}
	if !strings.Contains(out, "audio stop not delivered to screens") {
		t.Fatalf("dropped stop not logged: %s", out)
	}
}
