package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"checkers/internal/cli"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/service"
	"checkers/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by the input loop and by game goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	svc   *service.Service
	store *storage.Store
	out   *syncBuffer
	h     *CLIHandler
}

func newFixture(t *testing.T, input string, withStore bool) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.AIMoveDelay = 0
	cfg.PostGameDelay = 0
	cfg.Seed = 3

	var store *storage.Store
	if withStore {
		var err error
		store, err = storage.NewStore(filepath.Join(t.TempDir(), "cli.db"), false)
		require.NoError(t, err)
		require.NoError(t, store.InitDB())
	}
	q := engine.NewQueue(1)
	svc := service.New(cfg, store, q, engine.NoPacer{})

	out := &syncBuffer{}
	h := New(svc, cli.New(strings.NewReader(input), out))
	require.NoError(t, h.Start(service.GameOptions{Black: core.PlayerHuman, White: core.PlayerHuman}))

	t.Cleanup(func() {
		h.Close()
		_ = svc.Shutdown(time.Second)
		_ = q.Shutdown(time.Second)
		if store != nil {
			_ = store.Close()
		}
	})
	return &fixture{svc: svc, store: store, out: out, h: h}
}

func (f *fixture) run(line string) {
	f.h.ProcessCommand(cli.ParseCommand(line))
}

func (f *fixture) state(t *testing.T) service.GameState {
	t.Helper()
	st, err := f.svc.GetGame(f.h.GameID())
	require.NoError(t, err)
	return st
}

func (f *fixture) eventuallyShows(t *testing.T, text string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(f.out.String(), text) },
		3*time.Second, 5*time.Millisecond, "output never contained %q:\n%s", text, f.out.String())
}

func TestStartShowsBoard(t *testing.T) {
	f := newFixture(t, "", false)
	assert.NotEmpty(t, f.h.GameID())
	assert.Contains(t, f.out.String(), "a b c d e f g h")
	assert.Contains(t, f.out.String(), "Black (human) to move")
}

func TestMoveAndRejection(t *testing.T) {
	f := newFixture(t, "", false)

	f.run("c3 d4")
	assert.Equal(t, core.TeamWhite, f.state(t).Snapshot.Turn)
	f.eventuallyShows(t, "White (human) to move")

	// b5 is not a play square
	f.run("b6 b5")
	f.eventuallyShows(t, "Rejected b6 -> b5: units may only stand on play squares")
	assert.Equal(t, core.TeamWhite, f.state(t).Snapshot.Turn)

	f.run("b6 zz")
	f.eventuallyShows(t, "invalid coordinates")

	// An empty origin is a command failure, not a rejected move
	f.run("a1 b2")
	f.eventuallyShows(t, "move not accepted")
}

func TestRestartWithPlayers(t *testing.T) {
	f := newFixture(t, "", false)

	f.run("restart white computer")
	assert.Equal(t, core.PlayerComputer, f.state(t).Snapshot.White)
	f.eventuallyShows(t, "White is now played by the computer")

	f.run("restart purple human")
	f.eventuallyShows(t, `invalid team "purple"`)

	f.run("restart white")
	f.eventuallyShows(t, "Usage: restart")

	f.run("c3 d4")
	f.run("restart")
	require.Eventually(t, func() bool {
		return f.state(t).Snapshot.Turn == core.TeamBlack
	}, 3*time.Second, 5*time.Millisecond)
}

func TestResume(t *testing.T) {
	f := newFixture(t, "", false)

	f.run("resume 8/8/2b5/3w4/8/8/8/8 b")
	f.eventuallyShows(t, "Game restarted.")
	assert.Equal(t, "8/8/2b5/3w4/8/8/8/8 b", f.state(t).Snapshot.Position)

	f.run("resume 9/8 b")
	f.eventuallyShows(t, "invalid position")
}

func TestHighlightThemeAndHelp(t *testing.T) {
	f := newFixture(t, "", false)
	before := f.state(t).Snapshot.UserMoveHighlighting

	f.run("highlight")
	assert.Equal(t, !before, f.state(t).Snapshot.UserMoveHighlighting)
	f.eventuallyShows(t, "Move highlighting:")

	f.run("theme green")
	f.eventuallyShows(t, "Color theme set to: green")
	f.run("theme neon")
	f.eventuallyShows(t, "invalid theme")

	f.run("help")
	f.eventuallyShows(t, "Commands:")

	f.run("fly away now")
	f.eventuallyShows(t, `Unknown command "fly away now"`)
}

func TestSaveWithoutStorage(t *testing.T) {
	f := newFixture(t, "", false)
	f.run("save first")
	f.eventuallyShows(t, "Saving is disabled")
}

func TestSaveListAndLoad(t *testing.T) {
	f := newFixture(t, "", true)

	f.run("c3 d4")
	f.run("save after opening")
	f.eventuallyShows(t, `Saved "after opening"`)

	saves, err := f.svc.ListSaves("after opening")
	require.NoError(t, err)
	require.Len(t, saves, 1)

	f.run("saves")
	f.eventuallyShows(t, saves[0].SaveID)

	f.run("restart")
	require.Eventually(t, func() bool {
		return f.state(t).Snapshot.Turn == core.TeamBlack
	}, 3*time.Second, 5*time.Millisecond)

	f.run("load " + saves[0].SaveID)
	assert.Equal(t, saves[0].Position, f.state(t).Snapshot.Position)

	f.run("load missing")
	f.eventuallyShows(t, "Error:")
}

func TestContinueReplacesSession(t *testing.T) {
	f := newFixture(t, "", true)
	first := f.h.GameID()

	f.run("c3 d4")
	moved := f.state(t).Snapshot.Position
	require.NoError(t, f.store.Flush(time.Second))

	f.run("continue")
	f.eventuallyShows(t, "Continuing the last unfinished game.")
	assert.NotEqual(t, first, f.h.GameID())
	assert.Equal(t, moved, f.state(t).Snapshot.Position)

	_, err := f.svc.GetGame(first)
	assert.ErrorIs(t, err, service.ErrGameNotFound)
}

func TestRunStopsOnQuit(t *testing.T) {
	f := newFixture(t, "c3 d4\nquit\nc3 d4\n", false)

	done := make(chan struct{})
	go func() {
		f.h.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after quit")
	}
	assert.Equal(t, core.TeamWhite, f.state(t).Snapshot.Turn)
}
