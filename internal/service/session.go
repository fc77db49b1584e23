package service

import (
	"context"
	"sync"
	"time"

	"checkers/internal/board"
	"checkers/internal/core"
	"checkers/internal/game"
	"checkers/internal/storage"

	"github.com/rs/zerolog/log"
)

// GameState pairs a snapshot with the version it was published under.
// Version increases on every published board change.
type GameState struct {
	GameID    string
	Version   uint64
	Snapshot  game.Snapshot
	CreatedAt time.Time
}

// session is a live game: the runner that owns it plus the last published state.
// Its observer methods run on the runner goroutine.
type session struct {
	id        string
	runner    *game.Runner
	cancel    context.CancelFunc
	createdAt time.Time

	svc *Service

	mu           sync.RWMutex
	version      uint64
	latest       game.Snapshot
	lastAutosave string // Position + player types last written
}

func (s *session) state() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GameState{GameID: s.id, Version: s.version, Snapshot: s.latest, CreatedAt: s.createdAt}
}

func (s *session) publish(snap game.Snapshot) uint64 {
	s.mu.Lock()
	s.version++
	s.latest = snap
	v := s.version
	s.mu.Unlock()
	return v
}

func (s *session) currentVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *session) GameStarted(snap game.Snapshot) {
	log.Info().
		Str("game_id", s.id).
		Uint64("seq", snap.Seq).
		Str("black", snap.Black.String()).
		Str("white", snap.White.String()).
		Str("position", snap.Position).
		Msg("game started")
}

func (s *session) BoardChanged(snap game.Snapshot) {
	v := s.publish(snap)
	s.autosave(snap)
	s.svc.waiter.NotifyGame(s.id, v)
	s.svc.listeners.publish(Event{Type: EventState, GameID: s.id, Version: v, Snapshot: snap})
}

func (s *session) MoveRejected(m board.Move) {
	s.svc.listeners.publish(Event{Type: EventRejected, GameID: s.id, Version: s.currentVersion(), Move: m})
}

func (s *session) ComputerMoveChosen(m board.Move) {
	s.svc.listeners.publish(Event{Type: EventChosen, GameID: s.id, Version: s.currentVersion(), Move: m})
}

func (s *session) TurnChanged(team core.Team) {
	s.svc.listeners.publish(Event{Type: EventTurn, GameID: s.id, Version: s.currentVersion(), Team: team})
}

func (s *session) GameOver(winner core.Team) {
	log.Info().Str("game_id", s.id).Str("winner", winner.Name()).Msg("game over")
	s.svc.listeners.publish(Event{Type: EventGameOver, GameID: s.id, Version: s.currentVersion(), Team: winner})
}

// autosave writes turn-boundary states only; mid-chain positions cannot be resumed
func (s *session) autosave(snap game.Snapshot) {
	store := s.svc.store
	if store == nil || snap.State != core.StateAwaitingMove {
		return
	}
	key := snap.Position + snap.Black.String() + snap.White.String()
	if key == s.lastAutosave {
		return
	}
	s.lastAutosave = key
	store.UpsertAutosave(storage.AutosaveRecord{
		GameID:    s.id,
		Position:  snap.Position,
		Data:      snap.Units,
		BlackType: snap.Black,
		WhiteType: snap.White,
		UpdatedAt: time.Now().UTC(),
	})
}
