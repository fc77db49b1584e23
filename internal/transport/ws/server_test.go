package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc *service.Service
	hub *Hub
	srv *httptest.Server
}

func newFixture(t *testing.T, ping time.Duration) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.AIMoveDelay = 0
	cfg.PostGameDelay = 0
	cfg.Seed = 5

	q := engine.NewQueue(1)
	svc := service.New(cfg, nil, q, engine.NoPacer{})
	hub := NewHub()
	hub.PingInterval = ping
	unsubscribe := svc.Subscribe(hub)
	done := make(chan struct{})
	go hub.Run(done)

	srv := httptest.NewServer(NewRouter(svc, hub))
	t.Cleanup(func() {
		srv.Close()
		unsubscribe()
		close(done)
		_ = svc.Shutdown(time.Second)
		_ = q.Shutdown(time.Second)
	})
	return &fixture{svc: svc, hub: hub, srv: srv}
}

func (f *fixture) dial(t *testing.T, gameID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/games/" + gameID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// readUntil skips frames until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) message {
	t.Helper()
	return readMatching(t, conn, frameType, func(json.RawMessage) bool { return true })
}

// readMatching skips frames until one of the wanted type satisfies match
func readMatching(t *testing.T, conn *websocket.Conn, frameType string, match func(json.RawMessage) bool) message {
	t.Helper()
	for i := 0; i < 50; i++ {
		if msg := readFrame(t, conn); msg.Type == frameType && match(msg.Payload) {
			return msg
		}
	}
	t.Fatalf("no matching %s frame", frameType)
	return message{}
}

func whiteToMove(payload json.RawMessage) bool {
	var v struct {
		Team string `json:"team"`
		Turn string `json:"turn"`
	}
	return json.Unmarshal(payload, &v) == nil && (v.Team == "w" || v.Turn == "w")
}

func humanGame(t *testing.T, svc *service.Service) service.GameState {
	t.Helper()
	st, err := svc.CreateGame(service.GameOptions{Black: core.PlayerHuman, White: core.PlayerHuman})
	require.NoError(t, err)
	return st
}

func TestPing(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)

	resp, err := http.Get(f.srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownGameIsNotUpgraded(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)

	resp, err := http.Get(f.srv.URL + "/ws/games/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body core.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, core.ErrGameNotFound, body.Code)
}

func TestStreamsStateOnConnectAndAfterMoves(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)
	st := humanGame(t, f.svc)
	conn := f.dial(t, st.GameID)

	first := readUntil(t, conn, frameState)
	var initial core.GameResponse
	require.NoError(t, json.Unmarshal(first.Payload, &initial))
	assert.Equal(t, board.StartingPosition, initial.Position)
	assert.Equal(t, st.Version, initial.Version)

	_, _, err := f.svc.Move(context.Background(), st.GameID, board.Coordinates{X: 0, Y: 2}, board.Coordinates{X: 1, Y: 3})
	require.NoError(t, err)

	// Creation frames may still be in flight; skip to the ones for White
	turn := readMatching(t, conn, frameTurn, whiteToMove)
	var tp teamPayload
	require.NoError(t, json.Unmarshal(turn.Payload, &tp))
	assert.Equal(t, "w", tp.Team)

	state := readMatching(t, conn, frameState, whiteToMove)
	var after core.GameResponse
	require.NoError(t, json.Unmarshal(state.Payload, &after))
	assert.Greater(t, after.Version, initial.Version)
	assert.Equal(t, "w", after.Turn)

	// Off-board drop is reported as a rejected move
	_, _, err = f.svc.Move(context.Background(), st.GameID, board.Coordinates{X: 1, Y: 5}, board.Coordinates{X: -1, Y: 4})
	require.NoError(t, err)
	rejected := readUntil(t, conn, frameRejected)
	var info core.MoveInfo
	require.NoError(t, json.Unmarshal(rejected.Payload, &info))
	assert.Equal(t, board.OutsideBoardError.Code(), info.Error)
}

func TestRequestState(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)
	st := humanGame(t, f.svc)
	conn := f.dial(t, st.GameID)
	readUntil(t, conn, frameState)

	require.NoError(t, conn.WriteJSON(message{Type: frameRequestState}))
	msg := readUntil(t, conn, frameState)
	var resp core.GameResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	assert.Equal(t, st.GameID, resp.GameID)
}

func TestGameOverFrame(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)
	st, err := f.svc.CreateGame(service.GameOptions{
		Black: core.PlayerHuman, White: core.PlayerHuman,
		Position: "8/8/2b5/3w4/8/8/8/8 b",
	})
	require.NoError(t, err)
	conn := f.dial(t, st.GameID)
	readUntil(t, conn, frameState)

	_, _, err = f.svc.Move(context.Background(), st.GameID, board.Coordinates{X: 2, Y: 2}, board.Coordinates{X: 4, Y: 4})
	require.NoError(t, err)

	msg := readUntil(t, conn, frameGameOver)
	var wp winnerPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &wp))
	assert.Equal(t, "b", wp.Winner)
}

func TestHeartbeatWhenIdle(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	st := humanGame(t, f.svc)
	conn := f.dial(t, st.GameID)

	readUntil(t, conn, frameState)
	readUntil(t, conn, framePing)
}

func TestDeletedGameClosesConnection(t *testing.T) {
	f := newFixture(t, DefaultPingInterval)
	st := humanGame(t, f.svc)
	conn := f.dial(t, st.GameID)
	readUntil(t, conn, frameState)
	require.Eventually(t, func() bool { return f.hub.ClientCount(st.GameID) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.DeleteGame(st.GameID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
	assert.Equal(t, 0, f.hub.ClientCount(st.GameID))
}
