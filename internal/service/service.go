package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/game"
	"checkers/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrStorageDisabled   = errors.New("storage is disabled")
	ErrConflictingSource = errors.New("position, save and continue are mutually exclusive")
	ErrServiceClosed     = errors.New("service is shut down")
)

// GameOptions describes a new game. At most one of Position, SaveID and
// Continue selects the starting layout; none means the standard opening.
type GameOptions struct {
	Black    core.PlayerType
	White    core.PlayerType
	Position string
	SaveID   string
	Continue bool // Resume the most recent autosave, keeping its player types
}

// Service manages live game sessions with optional persistence
type Service struct {
	cfg   config.Config
	store *storage.Store // nil if persistence disabled
	queue *engine.Queue
	pacer engine.Pacer

	waiter    *WaitRegistry
	listeners listeners

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
}

// New creates a service. store may be nil; queue and pacer are shared by all sessions.
func New(cfg config.Config, store *storage.Store, queue *engine.Queue, pacer engine.Pacer) *Service {
	if pacer == nil {
		pacer = engine.SleepPacer{}
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		queue:    queue,
		pacer:    pacer,
		waiter:   NewWaitRegistry(),
		sessions: make(map[string]*session),
	}
}

// Rules are the board rules every session plays by
func (s *Service) Rules() board.Rules {
	return s.cfg.Rules
}

// Subscribe registers a listener for events of every game and returns its cancel func
func (s *Service) Subscribe(l Listener) func() {
	return s.listeners.add(l)
}

// CreateGame starts a new session and its runner
func (s *Service) CreateGame(opts GameOptions) (GameState, error) {
	data, resumed, err := s.resolveStart(&opts)
	if err != nil {
		return GameState{}, err
	}
	if opts.Black == 0 {
		opts.Black = core.PlayerHuman
	}
	if opts.White == 0 {
		opts.White = core.PlayerComputer
	}

	id := uuid.New().String()
	sess := &session{id: id, svc: s, createdAt: time.Now().UTC()}

	// Starting publishes events, so it happens before the session is visible
	g, err := game.New(s.cfg,
		game.NewPlayer(s.cfg, core.TeamBlack, opts.Black),
		game.NewPlayer(s.cfg, core.TeamWhite, opts.White),
		sess)
	if err != nil {
		return GameState{}, err
	}
	if data != nil {
		if err := g.StartFrom(*data); err != nil {
			return GameState{}, err
		}
	} else {
		g.Start()
	}
	sess.runner = game.NewRunner(id, g, s.cfg, s.queue, s.pacer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return GameState{}, ErrServiceClosed
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	s.sessions[id] = sess
	s.mu.Unlock()

	go sess.runner.Run(ctx)

	// The resumed game lives on under the new id
	if resumed != "" {
		s.store.DeleteAutosave(resumed)
	}

	log.Info().
		Str("game_id", id).
		Str("black", opts.Black.String()).
		Str("white", opts.White.String()).
		Msg("session created")
	return sess.state(), nil
}

// resolveStart turns the layout options into save data; nil means the standard
// opening. resumed names the game whose autosave was picked up.
func (s *Service) resolveStart(opts *GameOptions) (data *board.SaveData, resumed string, err error) {
	sources := 0
	for _, set := range []bool{opts.Position != "", opts.SaveID != "", opts.Continue} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, "", ErrConflictingSource
	}

	switch {
	case opts.Position != "":
		b, err := board.ParsePosition(opts.Position, s.cfg.Rules)
		if err != nil {
			return nil, "", err
		}
		saved := b.Save()
		return &saved, "", nil

	case opts.SaveID != "":
		rec, err := s.getSave(opts.SaveID)
		if err != nil {
			return nil, "", err
		}
		return &rec.Data, "", nil

	case opts.Continue:
		if s.store == nil {
			return nil, "", ErrStorageDisabled
		}
		rec, err := s.store.LatestAutosave()
		if err != nil {
			return nil, "", err
		}
		if opts.Black == 0 {
			opts.Black = rec.BlackType
		}
		if opts.White == 0 {
			opts.White = rec.WhiteType
		}
		return &rec.Data, rec.GameID, nil
	}
	return nil, "", nil
}

func (s *Service) getSave(saveID string) (*storage.SaveRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.GetSave(saveID)
}

func (s *Service) session(gameID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return sess, nil
}

// GetGame returns the last published state of a game
func (s *Service) GetGame(gameID string) (GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return GameState{}, err
	}
	return sess.state(), nil
}

// WaitForChange blocks until the game's version differs from version, the
// wait times out, or ctx ends, then returns the current state
func (s *Service) WaitForChange(ctx context.Context, gameID string, version uint64) (GameState, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Register before reading so a change in between still wakes us
	notify := s.waiter.RegisterWait(ctx, gameID, version)
	st, err := s.GetGame(gameID)
	if err != nil || st.Version != version {
		return st, err
	}

	select {
	case <-notify:
	case <-ctx.Done():
	}
	return s.GetGame(gameID)
}

// Move submits a human move from origin to target
func (s *Service) Move(ctx context.Context, gameID string, origin, target board.Coordinates) (board.Move, GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return board.Move{}, GameState{}, err
	}
	m, _, err := sess.runner.Move(ctx, origin, target)
	return m, sess.state(), err
}

// ChangePlayer swaps the controller of a team and restarts; applied is false
// when the restart waits for a computer move
func (s *Service) ChangePlayer(ctx context.Context, gameID string, team core.Team, playerType core.PlayerType) (bool, GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return false, GameState{}, err
	}
	applied, _, err := sess.runner.ChangePlayer(ctx, team, playerType)
	return applied, sess.state(), err
}

// Restart starts over from data, or from the standard opening when data is nil
func (s *Service) Restart(ctx context.Context, gameID string, data *board.SaveData) (bool, GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return false, GameState{}, err
	}
	applied, _, err := sess.runner.Restart(ctx, data)
	return applied, sess.state(), err
}

// LoadSave restarts a live game from a named save
func (s *Service) LoadSave(ctx context.Context, gameID, saveID string) (bool, GameState, error) {
	rec, err := s.getSave(saveID)
	if err != nil {
		return false, GameState{}, err
	}
	return s.Restart(ctx, gameID, &rec.Data)
}

// ToggleHighlighting flips user move highlighting and returns the new value
func (s *Service) ToggleHighlighting(ctx context.Context, gameID string) (bool, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return false, err
	}
	return sess.runner.ToggleHighlighting(ctx)
}

// Save stores the current state of a game under name
func (s *Service) Save(ctx context.Context, gameID, name string) (storage.SaveRecord, error) {
	if s.store == nil {
		return storage.SaveRecord{}, ErrStorageDisabled
	}
	sess, err := s.session(gameID)
	if err != nil {
		return storage.SaveRecord{}, err
	}

	data, snap, err := sess.runner.Save(ctx)
	if err != nil {
		return storage.SaveRecord{}, err
	}

	record := storage.SaveRecord{
		SaveID:    uuid.New().String(),
		Name:      name,
		GameID:    gameID,
		Position:  snap.Position,
		Data:      data,
		BlackType: snap.Black,
		WhiteType: snap.White,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSave(record); err != nil {
		return storage.SaveRecord{}, err
	}

	log.Info().Str("game_id", gameID).Str("save_id", record.SaveID).Str("name", name).Msg("game saved")
	return record, nil
}

// ListSaves returns saves matching name ("" or "*" for all), newest first
func (s *Service) ListSaves(name string) ([]storage.SaveRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.QuerySaves("", name)
}

func (s *Service) GetSave(saveID string) (*storage.SaveRecord, error) {
	return s.getSave(saveID)
}

func (s *Service) DeleteSave(saveID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.DeleteSave(saveID)
}

// DeleteGame stops a session and drops its autosave
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[gameID]
	delete(s.sessions, gameID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	sess.cancel()
	<-sess.runner.Done()
	s.waiter.RemoveGame(gameID)
	s.listeners.publish(Event{Type: EventClosed, GameID: gameID, Version: sess.currentVersion()})
	if s.store != nil {
		s.store.DeleteAutosave(gameID)
	}

	log.Info().Str("game_id", gameID).Msg("session deleted")
	return nil
}

// GameIDs lists live sessions
func (s *Service) GameIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Shutdown stops every runner and releases waiting clients. The store and
// queue belong to the caller.
func (s *Service) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	deadline := time.After(timeout)
	for id, sess := range sessions {
		sess.cancel()
		select {
		case <-sess.runner.Done():
		case <-deadline:
			return fmt.Errorf("runner %s did not stop in time", id)
		}
		s.listeners.publish(Event{Type: EventClosed, GameID: id, Version: sess.currentVersion()})
	}

	return s.waiter.Shutdown(timeout)
}
