package game

import (
	"fmt"
	"sync"
	"testing"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/player"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs notifications as short strings
type recorder struct {
	mu     sync.Mutex
	events []string
}

func newRecorder() *recorder {
	return &recorder{}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(e string) int {
	n := 0
	for _, got := range r.Events() {
		if got == e {
			n++
		}
	}
	return n
}

func (r *recorder) GameStarted(Snapshot) { r.add("started") }
func (r *recorder) BoardChanged(Snapshot) { r.add("board") }
func (r *recorder) MoveRejected(m board.Move) {
	r.add("rejected:" + m.Explanation.Code())
}
func (r *recorder) ComputerMoveChosen(board.Move) { r.add("chosen") }
func (r *recorder) TurnChanged(team core.Team) { r.add("turn:" + team.String()) }
func (r *recorder) GameOver(winner core.Team) { r.add("over:" + winner.String()) }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AIMoveDelay = 0
	cfg.PostGameDelay = 0
	cfg.Seed = 11
	return cfg
}

func newGame(t *testing.T, black, white core.PlayerType) (*Game, *recorder) {
	t.Helper()
	cfg := testConfig()
	rec := newRecorder()
	g, err := New(cfg, NewPlayer(cfg, core.TeamBlack, black), NewPlayer(cfg, core.TeamWhite, white), rec)
	require.NoError(t, err)
	return g, rec
}

func startFrom(t *testing.T, g *Game, position string) {
	t.Helper()
	b, err := board.ParsePosition(position, g.Rules())
	require.NoError(t, err)
	require.NoError(t, g.StartFrom(b.Save()))
}

func at(x, y int) board.Coordinates {
	return board.Coordinates{X: x, Y: y}
}

func assertOneTurnFlag(t *testing.T, g *Game) {
	t.Helper()
	black := g.Player(core.TeamBlack).IsPlayersTurn()
	white := g.Player(core.TeamWhite).IsPlayersTurn()
	require.NotEqual(t, black, white, "exactly one player must hold the turn")
	require.Equal(t, g.Turn() == core.TeamBlack, black)
}

func TestNewValidatesTeams(t *testing.T) {
	cfg := testConfig()
	_, err := New(cfg, player.NewHuman(core.TeamWhite), player.NewHuman(core.TeamWhite), nil)
	assert.Error(t, err)

	_, err = New(cfg, player.NewHuman(core.TeamBlack), nil, nil)
	assert.Error(t, err)
}

func TestStartPublishesInitialState(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()

	assert.Equal(t, []string{"started", "turn:b", "board"}, rec.Events())
	assert.Equal(t, core.StateAwaitingMove, g.State())
	assertOneTurnFlag(t, g)

	s := g.Snapshot()
	assert.Equal(t, uint64(1), s.Seq)
	assert.Equal(t, board.StartingPosition, s.Position)
	assert.Len(t, s.PossibleMoves, 7)
	assert.Equal(t, s.PossibleMoves, s.Highlighted)
	assert.Nil(t, s.UnitInMotion)
}

func TestAttemptRejectionKeepsState(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()
	before := g.Snapshot()

	move, err := g.Attempt(at(2, 2), at(2, 2))
	require.NoError(t, err)
	assert.True(t, move.IsNone())
	assert.Equal(t, board.SamePositionError, move.Explanation)

	move, err = g.Attempt(at(2, 2), at(9, 9))
	require.NoError(t, err)
	assert.Equal(t, board.OutsideBoardError, move.Explanation)

	after := g.Snapshot()
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, core.StateAwaitingMove, after.State)
	assert.Equal(t, core.TeamBlack, after.Turn)
	assert.Equal(t, 1, rec.count("rejected:SAME_POSITION_ERROR"))
	assert.Equal(t, 1, rec.count("rejected:OUTSIDE_BOARD_ERROR"))
}

func TestAttemptErrors(t *testing.T) {
	g, _ := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()

	_, err := g.Attempt(at(3, 3), at(4, 4))
	assert.ErrorIs(t, err, ErrNotMovableUnit)

	_, err = g.Attempt(at(1, 5), at(2, 4))
	assert.ErrorIs(t, err, ErrNotMovableUnit)

	g, _ = newGame(t, core.PlayerComputer, core.PlayerHuman)
	g.Start()
	_, err = g.Attempt(at(2, 2), at(3, 3))
	assert.ErrorIs(t, err, ErrNotHumanTurn)
}

func TestMoveSwitchesTurn(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()

	move, err := g.Attempt(at(2, 2), at(3, 3))
	require.NoError(t, err)
	assert.Equal(t, board.MoveNormal, move.Type)

	assert.Equal(t, core.TeamWhite, g.Turn())
	assert.Equal(t, core.StateAwaitingMove, g.State())
	assertOneTurnFlag(t, g)
	assert.Equal(t, 1, rec.count("turn:w"))

	for _, m := range g.Snapshot().PossibleMoves {
		assert.Equal(t, core.TeamWhite, teamAt(t, g, m.Origin))
	}
}

func teamAt(t *testing.T, g *Game, c board.Coordinates) core.Team {
	t.Helper()
	u := g.board.UnitAt(c)
	require.NotNil(t, u)
	return u.Team()
}

func TestCaptureChainKeepsTurn(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	startFrom(t, g, "8/8/2b5/3w4/8/5w2/8/.w6 b")

	move, err := g.Attempt(at(2, 2), at(4, 4))
	require.NoError(t, err)
	assert.Equal(t, board.MoveJump, move.Type)

	assert.Equal(t, core.StateTurnContinues, g.State())
	assert.Equal(t, core.TeamBlack, g.Turn())
	assertOneTurnFlag(t, g)

	s := g.Snapshot()
	require.NotNil(t, s.UnitInMotion)
	assert.Equal(t, at(4, 4), *s.UnitInMotion)
	require.Len(t, s.PossibleMoves, 1)
	assert.Equal(t, at(6, 6), s.PossibleMoves[0].Target)

	_, err = g.Save()
	assert.ErrorIs(t, err, ErrCaptureInProgress)

	_, err = g.Attempt(at(4, 4), at(5, 5))
	require.NoError(t, err)
	assert.Equal(t, core.StateTurnContinues, g.State())

	_, err = g.Attempt(at(4, 4), at(6, 6))
	require.NoError(t, err)
	assert.Equal(t, core.TeamWhite, g.Turn())
	assert.Equal(t, core.StateAwaitingMove, g.State())
	assert.Nil(t, g.Snapshot().UnitInMotion)
	assert.Equal(t, 1, rec.count("turn:b"), "a capture chain does not announce a new turn")
}

func TestGameOverWithUnitsLeft(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	startFrom(t, g, "2b5/.b6/w7/8/8/8/8/8 w")

	assert.Equal(t, core.StateGameOver, g.State())
	assert.Equal(t, core.TeamBlack, g.Winner())
	assert.Equal(t, 1, rec.count("over:b"))
	assert.Empty(t, g.Snapshot().Highlighted)

	_, err := g.Attempt(at(0, 2), at(1, 1))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestGameOverAfterLastCapture(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	startFrom(t, g, "8/8/2b5/3w4/8/8/8/8 b")

	_, err := g.Attempt(at(2, 2), at(4, 4))
	require.NoError(t, err)

	assert.Equal(t, core.StateGameOver, g.State())
	assert.Equal(t, core.TeamBlack, g.Winner())
	assert.Equal(t, []string{"turn:w", "board", "over:b"}, rec.Events()[len(rec.Events())-3:])
}

func TestChangePlayerImmediateOnHumanTurn(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()
	_, err := g.Attempt(at(2, 2), at(3, 3))
	require.NoError(t, err)

	applied, err := g.ChangePlayer(core.TeamWhite, core.PlayerComputer)
	require.NoError(t, err)
	assert.True(t, applied)

	s := g.Snapshot()
	assert.Equal(t, uint64(2), s.Seq)
	assert.Equal(t, board.StartingPosition, s.Position)
	assert.Equal(t, core.PlayerComputer, s.White)
	assert.Equal(t, core.PlayerHuman, s.Black)
	assert.False(t, s.RestartPending)
	assertOneTurnFlag(t, g)
	assert.Equal(t, 2, rec.count("started"))
}

func TestChangePlayerDeferredDuringComputerTurn(t *testing.T) {
	g, _ := newGame(t, core.PlayerComputer, core.PlayerHuman)
	g.Start()
	require.True(t, g.ComputerToMove())

	applied, err := g.ChangePlayer(core.TeamBlack, core.PlayerHuman)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, g.Snapshot().RestartPending)
	assert.Equal(t, uint64(1), g.Seq())

	// A second request merges into the pending one
	applied, err = g.ChangePlayer(core.TeamWhite, core.PlayerComputer)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = g.PlayComputerTurn()
	require.NoError(t, err)

	s := g.Snapshot()
	assert.Equal(t, uint64(2), s.Seq)
	assert.False(t, s.RestartPending)
	assert.Equal(t, core.PlayerHuman, s.Black)
	assert.Equal(t, core.PlayerComputer, s.White)
	assert.Equal(t, board.StartingPosition, s.Position)
	assertOneTurnFlag(t, g)
}

func TestChangePlayerValidation(t *testing.T) {
	g, _ := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()

	_, err := g.ChangePlayer(core.TeamNone, core.PlayerHuman)
	assert.Error(t, err)
	_, err = g.ChangePlayer(core.TeamBlack, core.PlayerType(9))
	assert.Error(t, err)
	assert.Equal(t, uint64(1), g.Seq())
}

func TestRestartFromSaveAndWhiteToMove(t *testing.T) {
	g, _ := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()
	_, err := g.Attempt(at(2, 2), at(3, 3))
	require.NoError(t, err)

	data, err := g.Save()
	require.NoError(t, err)
	position := g.Snapshot().Position

	g.Start()
	applied, err := g.Restart(&data)
	require.NoError(t, err)
	assert.True(t, applied)

	assert.Equal(t, position, g.Snapshot().Position)
	assert.Equal(t, core.TeamWhite, g.Turn())
	assertOneTurnFlag(t, g)

	_, err = g.Restart(&board.SaveData{Turn: core.TeamNone})
	assert.Error(t, err)
	assert.Equal(t, position, g.Snapshot().Position)
}

func TestHighlighting(t *testing.T) {
	g, rec := newGame(t, core.PlayerHuman, core.PlayerComputer)
	g.Start()
	assert.NotEmpty(t, g.Snapshot().Highlighted)

	assert.False(t, g.ToggleUserMoveHighlighting())
	s := g.Snapshot()
	assert.Empty(t, s.Highlighted)
	assert.Len(t, s.PossibleMoves, 7)

	assert.True(t, g.ToggleUserMoveHighlighting())

	_, err := g.Attempt(at(2, 2), at(3, 3))
	require.NoError(t, err)
	require.True(t, g.ComputerToMove())
	assert.Empty(t, g.Snapshot().Highlighted)

	move, ok := g.CurrentPlayer().Move(g.BoardClone())
	require.True(t, ok)
	g.AnnounceComputerMove(move)
	assert.Equal(t, []board.Move{move}, g.Snapshot().Highlighted)
	assert.Equal(t, 1, rec.count("chosen"))

	require.NoError(t, g.PlayComputerMove(move))
	assert.Equal(t, core.TeamBlack, g.Turn())
}

func TestPlayComputerMoveOnHumanTurn(t *testing.T) {
	g, _ := newGame(t, core.PlayerHuman, core.PlayerHuman)
	g.Start()

	_, err := g.PlayComputerTurn()
	assert.ErrorIs(t, err, ErrNotComputerTurn)
	assert.ErrorIs(t, g.PlayComputerMove(board.Move{}), ErrNotComputerTurn)
}

func TestPlayComputerMoveOutsideLegalSetPanics(t *testing.T) {
	g, _ := newGame(t, core.PlayerComputer, core.PlayerHuman)
	g.Start()

	assert.Panics(t, func() {
		_ = g.PlayComputerMove(board.NewMove(at(2, 2), at(5, 5), board.MoveNormal))
	})
}

func TestComputerSelfPlayKeepsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			cfg := testConfig()
			cfg.Seed = seed
			cfg.Rules.FlyingKings = seed%2 == 0
			g, err := New(cfg, NewPlayer(cfg, core.TeamBlack, core.PlayerComputer), NewPlayer(cfg, core.TeamWhite, core.PlayerComputer), nil)
			require.NoError(t, err)
			g.Start()

			for ply := 0; ply < 500 && g.State() != core.StateGameOver; ply++ {
				s := g.Snapshot()
				jumps := 0
				for _, m := range s.PossibleMoves {
					if m.Type == board.MoveJump {
						jumps++
					}
				}
				if jumps > 0 {
					require.Equal(t, len(s.PossibleMoves), jumps)
				}

				_, err := g.PlayComputerTurn()
				require.NoError(t, err)
				require.NoError(t, g.board.CheckInvariants())
				assertOneTurnFlag(t, g)
			}

			if g.State() == core.StateGameOver {
				assert.Empty(t, g.board.PossibleMoves())
				assert.Equal(t, core.Opponent(g.Turn()), g.Winner())
			}
		})
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	play := func() string {
		g, _ := newGame(t, core.PlayerComputer, core.PlayerComputer)
		g.Start()
		for i := 0; i < 30 && g.State() != core.StateGameOver; i++ {
			_, err := g.PlayComputerTurn()
			require.NoError(t, err)
		}
		return g.Snapshot().Position
	}
	assert.Equal(t, play(), play())
}

