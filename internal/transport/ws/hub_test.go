package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
	"worldsim/internal/effect"
	"worldsim/internal/events"
	"worldsim/internal/stats"
	"worldsim/internal/world"
)

func testHub(t *testing.T) (*Hub, *world.Runner) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := world.New(world.NewRand(7))
	if _, err := w.AddLocation(1, "Harbor"); err != nil {
		t.Fatalf("adding location: %v", err)
	}
	c, err := catalog.New([]catalog.Definition{
		{
			ID: "rally",
			Choices: []catalog.Choice{{
				ChoiceText: "Cheer",
				Outcome:    catalog.Outcome{Effects: map[string]float64{stats.Morale: 5}, TriggerNextEvents: []string{"parade"}},
			}},
		},
		{
			ID:         "parade",
			Conditions: condition.Descriptor{CustomConditions: map[string]string{stats.Morale: "min 55"}},
		},
	})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	s := events.NewScheduler(c, condition.NewEvaluator(logger), nil, events.Options{}, logger)
	r := events.NewResolver(s, effect.NewApplier(nil, nil, logger), nil, logger)
	runner := world.NewRunner(w, s, r, world.RunnerConfig{TickSeconds: 1}, logger)
	return NewHub(runner, logger), runner
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	var msg ServerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	return msg
}

func TestHubRoundTrip(t *testing.T) {
	hub, runner := testHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for !runner.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("runner did not start")
		}
		time.Sleep(time.Millisecond)
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	t.Cleanup(srv.Close)
	conn := dial(t, srv)

	initial := readFrame(t, conn)
	if initial.Type != TypeActive || len(initial.Events) != 0 {
		t.Fatalf("unexpected initial frame %+v", initial)
	}

	err := runner.Submit(ctx, func(w *world.World) error {
		runner.Scheduler().ForceTick(w)
		return nil
	})
	if err != nil {
		t.Fatalf("forcing tick: %v", err)
	}
	triggered := readFrame(t, conn)
	if triggered.Type != TypeTriggered || triggered.Event == nil || triggered.Event.EventID != "rally" {
		t.Fatalf("unexpected triggered frame %+v", triggered)
	}
	if len(triggered.Event.Choices) != 1 || triggered.Event.Choices[0] != "Cheer" {
		t.Fatalf("unexpected choices %v", triggered.Event.Choices)
	}

	choose := ClientMessage{Type: TypeChoose, EventID: triggered.Event.ID, Choice: 0}
	if err := conn.WriteJSON(choose); err != nil {
		t.Fatalf("writing choice: %v", err)
	}
	cascaded := readFrame(t, conn)
	if cascaded.Type != TypeTriggered || cascaded.Event.EventID != "parade" || cascaded.Event.ParentID != triggered.Event.ID {
		t.Fatalf("unexpected cascade frame %+v", cascaded)
	}
	resolved := readFrame(t, conn)
	if resolved.Type != TypeResolved || resolved.Resolution.ID != triggered.Event.ID || resolved.Resolution.Applied != 1 {
		t.Fatalf("unexpected resolved frame %+v", resolved)
	}
	if len(resolved.Resolution.Cascaded) != 1 || resolved.Resolution.Cascaded[0] != cascaded.Event.ID {
		t.Fatalf("unexpected cascaded ids %v", resolved.Resolution.Cascaded)
	}

	if err := conn.WriteJSON(choose); err != nil {
		t.Fatalf("writing choice: %v", err)
	}
	if msg := readFrame(t, conn); msg.Type != TypeError || !strings.Contains(msg.Error, "not active") {
		t.Fatalf("expected not active error, got %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	if msg := readFrame(t, conn); msg.Type != TypeError {
		t.Fatalf("expected error frame, got %+v", msg)
	}
}

func TestHubInitialStateListsActiveEvents(t *testing.T) {
	hub, runner := testHub(t)
	err := runner.Submit(context.Background(), func(w *world.World) error {
		runner.Scheduler().ForceTick(w)
		return nil
	})
	if err != nil {
		t.Fatalf("forcing tick: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	t.Cleanup(srv.Close)
	conn := dial(t, srv)

	initial := readFrame(t, conn)
	if initial.Type != TypeActive || len(initial.Events) != 1 || initial.Events[0].EventID != "rally" {
		t.Fatalf("unexpected initial frame %+v", initial)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected one client, got %d", hub.Clients())
	}
}
