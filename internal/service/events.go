package service

import (
	"sync"

	"checkers/internal/board"
	"checkers/internal/core"
	"checkers/internal/game"
)

type EventType string

const (
	EventState    EventType = "state"
	EventRejected EventType = "rejected"
	EventChosen   EventType = "chosen"
	EventTurn     EventType = "turn"
	EventGameOver EventType = "game_over"
	EventClosed   EventType = "closed" // Game deleted or service shutting down
)

// Event is a game notification fanned out to listeners
type Event struct {
	Type     EventType
	GameID   string
	Version  uint64
	Snapshot game.Snapshot // EventState
	Move     board.Move    // EventRejected, EventChosen
	Team     core.Team     // EventTurn: side to move; EventGameOver: winner
}

// Listener receives events from the game goroutines and must not block
type Listener interface {
	Publish(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) Publish(e Event) { f(e) }

type listeners struct {
	mu   sync.RWMutex
	next int
	subs map[int]Listener
}

func (l *listeners) add(sub Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.subs[id] = sub
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *listeners) publish(e Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, sub := range l.subs {
		sub.Publish(e)
	}
}
