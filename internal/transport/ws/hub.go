package ws

import (
	"encoding/json"
	"sync"
	"time"

	"checkers/internal/service"
	"checkers/internal/transport"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	frameState    = "state"
	frameRejected = "rejected"
	frameChosen   = "chosen"
	frameTurn     = "turn"
	frameGameOver = "game_over"
	framePing     = "ping"
	frameError    = "error"

	// Client frames
	frameRequestState = "request_state"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type teamPayload struct {
	Team string `json:"team"`
}

type winnerPayload struct {
	Winner string `json:"winner"`
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Client is one websocket connection following one game
type Client struct {
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

func (c *Client) sendFrame(frameType string, payload any) {
	msg := message{Type: frameType}
	if payload != nil {
		msg.Payload = mustMarshal(payload)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("game_id", c.gameID).Str("frame", frameType).Msg("slow websocket client, frame dropped")
	}
}

// Hub fans service events out to the clients of each game. It implements
// service.Listener; Publish never blocks the game goroutines.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]map[*Client]struct{}
	broadcast chan service.Event

	PingInterval time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]map[*Client]struct{}),
		broadcast:    make(chan service.Event, 256),
		PingInterval: DefaultPingInterval,
	}
}

func (h *Hub) Publish(e service.Event) {
	select {
	case h.broadcast <- e:
	default:
		log.Warn().Str("game_id", e.GameID).Str("event", string(e.Type)).Msg("event hub full, event dropped")
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.closeAll()
			return
		case e := <-h.broadcast:
			h.dispatch(e)
		}
	}
}

func (h *Hub) dispatch(e service.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[e.GameID]
	if len(clients) == 0 {
		return
	}
	if e.Type == service.EventClosed {
		for c := range clients {
			close(c.send)
		}
		delete(h.clients, e.GameID)
		return
	}

	frameType, payload := eventFrame(e)
	if frameType == "" {
		return
	}
	for c := range clients {
		c.sendFrame(frameType, payload)
	}
}

func eventFrame(e service.Event) (string, any) {
	switch e.Type {
	case service.EventState:
		return frameState, transport.NewGameResponse(service.GameState{
			GameID: e.GameID, Version: e.Version, Snapshot: e.Snapshot,
		})
	case service.EventRejected:
		return frameRejected, transport.NewMoveInfo(e.Move)
	case service.EventChosen:
		return frameChosen, transport.NewMoveInfo(e.Move)
	case service.EventTurn:
		return frameTurn, teamPayload{Team: e.Team.String()}
	case service.EventGameOver:
		return frameGameOver, winnerPayload{Winner: e.Team.String()}
	}
	return "", nil
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.gameID] == nil {
		h.clients[c.gameID] = make(map[*Client]struct{})
	}
	h.clients[c.gameID][c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[c.gameID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.clients, c.gameID)
		}
	}
}

// ClientCount reports the connections following a game
func (h *Hub) ClientCount(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[gameID])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for c := range clients {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

// sendState queues the current state of the client's game
func (h *Hub) sendState(svc *service.Service, c *Client) {
	st, err := svc.GetGame(c.gameID)

	h.mu.Lock()
	defer h.mu.Unlock()
	// The send channel is closed once unregistered
	if _, ok := h.clients[c.gameID][c]; !ok {
		return
	}
	if err != nil {
		c.sendFrame(frameError, transport.NewErrorResponse(err))
		return
	}
	c.sendFrame(frameState, transport.NewGameResponse(st))
}

var _ service.Listener = (*Hub)(nil)
