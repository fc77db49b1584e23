package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventually = 3 * time.Second

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AIMoveDelay = 0
	cfg.PostGameDelay = 0
	cfg.Seed = 7
	return cfg
}

func newTestService(t *testing.T, withStore bool) (*Service, *storage.Store) {
	t.Helper()
	var store *storage.Store
	if withStore {
		var err error
		store, err = storage.NewStore(filepath.Join(t.TempDir(), "checkers.db"), false)
		require.NoError(t, err)
		require.NoError(t, store.InitDB())
	}
	q := engine.NewQueue(1)
	svc := New(testConfig(), store, q, engine.NoPacer{})

	t.Cleanup(func() {
		assert.NoError(t, svc.Shutdown(time.Second))
		_ = q.Shutdown(time.Second)
		if store != nil {
			_ = store.Close()
		}
	})
	return svc, store
}

func humanGame(t *testing.T, svc *Service) GameState {
	t.Helper()
	st, err := svc.CreateGame(GameOptions{Black: core.PlayerHuman, White: core.PlayerHuman})
	require.NoError(t, err)
	return st
}

func at(x, y int) board.Coordinates {
	return board.Coordinates{X: x, Y: y}
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) count(gameID string, typ EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.GameID == gameID && e.Type == typ {
			n++
		}
	}
	return n
}

func TestCreateGameDefaults(t *testing.T) {
	svc, _ := newTestService(t, false)

	st, err := svc.CreateGame(GameOptions{Black: core.PlayerHuman})
	require.NoError(t, err)

	assert.NotEmpty(t, st.GameID)
	assert.GreaterOrEqual(t, st.Version, uint64(1))
	assert.Equal(t, board.StartingPosition, st.Snapshot.Position)
	assert.Equal(t, core.TeamBlack, st.Snapshot.Turn)
	assert.Equal(t, core.PlayerHuman, st.Snapshot.Black)
	assert.Equal(t, core.PlayerComputer, st.Snapshot.White)
	assert.Len(t, st.Snapshot.PossibleMoves, 7)

	got, err := svc.GetGame(st.GameID)
	require.NoError(t, err)
	assert.Equal(t, st.GameID, got.GameID)
	assert.Contains(t, svc.GameIDs(), st.GameID)
}

func TestCreateGameFromPosition(t *testing.T) {
	svc, _ := newTestService(t, false)

	position := "8/8/2b5/3w4/8/8/8/8 w"
	st, err := svc.CreateGame(GameOptions{Black: core.PlayerHuman, White: core.PlayerHuman, Position: position})
	require.NoError(t, err)
	assert.Equal(t, position, st.Snapshot.Position)
	assert.Equal(t, core.TeamWhite, st.Snapshot.Turn)
}

func TestCreateGameErrors(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.CreateGame(GameOptions{Position: "8/8 b", SaveID: "x"})
	assert.ErrorIs(t, err, ErrConflictingSource)

	_, err = svc.CreateGame(GameOptions{Position: "not a position"})
	assert.Error(t, err)

	_, err = svc.CreateGame(GameOptions{SaveID: "2a4d1f0e-8f5e-4d1b-9a33-6a3c2f0b7f11"})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = svc.CreateGame(GameOptions{Continue: true})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	assert.Empty(t, svc.GameIDs())
}

func TestMoveBumpsVersion(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)

	m, after, err := svc.Move(context.Background(), st.GameID, at(0, 2), at(1, 3))
	require.NoError(t, err)
	assert.Equal(t, board.MoveNormal, m.Type)
	assert.Greater(t, after.Version, st.Version)
	assert.Equal(t, core.TeamWhite, after.Snapshot.Turn)

	// Rejected input keeps the board and the turn
	m, rejected, err := svc.Move(context.Background(), st.GameID, at(1, 5), at(1, 4))
	require.NoError(t, err)
	assert.True(t, m.IsNone())
	assert.Equal(t, board.NotPlaySquareError, m.Explanation)
	assert.Equal(t, after.Snapshot.Position, rejected.Snapshot.Position)

	// Black's unit is not White's to move
	_, _, err = svc.Move(context.Background(), st.GameID, at(1, 3), at(2, 4))
	assert.Error(t, err)
}

func TestUnknownGame(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.GetGame("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, _, err = svc.Move(ctx, "missing", at(0, 2), at(1, 3))
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, _, err = svc.ChangePlayer(ctx, "missing", core.TeamWhite, core.PlayerHuman)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.ToggleHighlighting(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, svc.DeleteGame("missing"), ErrGameNotFound)
}

func TestWaitForChange(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)
	ctx := context.Background()

	// A stale version returns at once
	got, err := svc.WaitForChange(ctx, st.GameID, 0)
	require.NoError(t, err)
	assert.Equal(t, st.Version, got.Version)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _, _ = svc.Move(ctx, st.GameID, at(2, 2), at(3, 3))
	}()

	got, err = svc.WaitForChange(ctx, st.GameID, st.Version)
	require.NoError(t, err)
	assert.Greater(t, got.Version, st.Version)
	assert.Equal(t, core.TeamWhite, got.Snapshot.Turn)
}

func TestWaitForChangeHonoursContext(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	got, err := svc.WaitForChange(ctx, st.GameID, st.Version)
	require.NoError(t, err)
	assert.Equal(t, st.Version, got.Version)
}

func TestChangePlayerRestarts(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)
	ctx := context.Background()

	_, _, err := svc.Move(ctx, st.GameID, at(0, 2), at(1, 3))
	require.NoError(t, err)

	applied, after, err := svc.ChangePlayer(ctx, st.GameID, core.TeamWhite, core.PlayerHuman)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, board.StartingPosition, after.Snapshot.Position)
	assert.Greater(t, after.Snapshot.Seq, st.Snapshot.Seq)
}

func TestToggleHighlighting(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)
	require.NotEmpty(t, st.Snapshot.Highlighted)

	on, err := svc.ToggleHighlighting(context.Background(), st.GameID)
	require.NoError(t, err)
	assert.False(t, on)

	got, err := svc.GetGame(st.GameID)
	require.NoError(t, err)
	assert.Empty(t, got.Snapshot.Highlighted)
	assert.False(t, got.Snapshot.UserMoveHighlighting)
}

func TestSaveListAndLoad(t *testing.T) {
	svc, _ := newTestService(t, true)
	st := humanGame(t, svc)
	ctx := context.Background()

	_, moved, err := svc.Move(ctx, st.GameID, at(0, 2), at(1, 3))
	require.NoError(t, err)

	rec, err := svc.Save(ctx, st.GameID, "opening")
	require.NoError(t, err)
	assert.Equal(t, moved.Snapshot.Position, rec.Position)
	assert.Equal(t, core.TeamWhite, rec.Data.Turn)

	saves, err := svc.ListSaves("*")
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, rec.SaveID, saves[0].SaveID)

	// Starting over and loading brings the saved layout back
	_, _, err = svc.Restart(ctx, st.GameID, nil)
	require.NoError(t, err)
	applied, loaded, err := svc.LoadSave(ctx, st.GameID, rec.SaveID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, rec.Position, loaded.Snapshot.Position)

	// A new game can start from the save too
	other, err := svc.CreateGame(GameOptions{Black: core.PlayerHuman, White: core.PlayerHuman, SaveID: rec.SaveID})
	require.NoError(t, err)
	assert.Equal(t, rec.Position, other.Snapshot.Position)

	require.NoError(t, svc.DeleteSave(rec.SaveID))
	_, err = svc.GetSave(rec.SaveID)
	assert.ErrorIs(t, err, storage.ErrSaveNotFound)
}

func TestSaveMidChainRejected(t *testing.T) {
	svc, _ := newTestService(t, true)
	st, err := svc.CreateGame(GameOptions{
		Black: core.PlayerHuman, White: core.PlayerHuman,
		Position: "8/8/2b5/3w4/8/5w2/8/.w6 b",
	})
	require.NoError(t, err)

	_, mid, err := svc.Move(context.Background(), st.GameID, at(2, 2), at(4, 4))
	require.NoError(t, err)
	require.Equal(t, core.StateTurnContinues, mid.Snapshot.State)

	_, err = svc.Save(context.Background(), st.GameID, "mid")
	assert.Error(t, err)
}

func TestSaveWithoutStorage(t *testing.T) {
	svc, _ := newTestService(t, false)
	st := humanGame(t, svc)

	_, err := svc.Save(context.Background(), st.GameID, "x")
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.ListSaves("")
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.Equal(t, "disabled", svc.GetStorageHealth())
}

func TestAutosaveAndContinue(t *testing.T) {
	svc, store := newTestService(t, true)
	st := humanGame(t, svc)
	ctx := context.Background()
	assert.Equal(t, "ok", svc.GetStorageHealth())

	_, moved, err := svc.Move(ctx, st.GameID, at(0, 2), at(1, 3))
	require.NoError(t, err)
	require.NoError(t, store.Flush(time.Second))

	auto, err := store.GetAutosave(st.GameID)
	require.NoError(t, err)
	assert.Equal(t, moved.Snapshot.Position, auto.Position)

	resumed, err := svc.CreateGame(GameOptions{Continue: true})
	require.NoError(t, err)
	assert.Equal(t, moved.Snapshot.Position, resumed.Snapshot.Position)
	assert.Equal(t, core.PlayerHuman, resumed.Snapshot.White, "player types come from the autosave")

	require.NoError(t, store.Flush(time.Second))
	_, err = store.GetAutosave(st.GameID)
	assert.ErrorIs(t, err, storage.ErrSaveNotFound)
	_, err = store.GetAutosave(resumed.GameID)
	assert.NoError(t, err)
}

func TestDeleteGame(t *testing.T) {
	svc, store := newTestService(t, true)
	events := &eventLog{}
	defer svc.Subscribe(events)()

	st := humanGame(t, svc)
	require.NoError(t, store.Flush(time.Second))

	require.NoError(t, svc.DeleteGame(st.GameID))
	require.NoError(t, store.Flush(time.Second))

	_, err := svc.GetGame(st.GameID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = store.GetAutosave(st.GameID)
	assert.ErrorIs(t, err, storage.ErrSaveNotFound)
	assert.Equal(t, 1, events.count(st.GameID, EventClosed))
}

func TestListenersSeeComputerPlay(t *testing.T) {
	svc, _ := newTestService(t, false)
	events := &eventLog{}
	unsubscribe := svc.Subscribe(events)
	defer unsubscribe()

	st, err := svc.CreateGame(GameOptions{Black: core.PlayerComputer, White: core.PlayerComputer})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return events.count(st.GameID, EventChosen) >= 10
	}, eventually, 5*time.Millisecond)

	got, err := svc.GetGame(st.GameID)
	require.NoError(t, err)
	assert.Greater(t, got.Version, st.Version)
	assert.Greater(t, events.count(st.GameID, EventState), 10)
	assert.Greater(t, events.count(st.GameID, EventTurn), 5)
}

func TestShutdown(t *testing.T) {
	svc, _ := newTestService(t, false)
	events := &eventLog{}
	defer svc.Subscribe(events)()
	st := humanGame(t, svc)

	require.NoError(t, svc.Shutdown(time.Second))
	assert.Equal(t, 1, events.count(st.GameID, EventClosed))

	_, err := svc.CreateGame(GameOptions{})
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.Empty(t, svc.GameIDs())

	// Repeated shutdown is a no-op
	assert.NoError(t, svc.Shutdown(time.Second))
}
