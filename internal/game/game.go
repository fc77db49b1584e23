package game

import (
	"errors"
	"fmt"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/player"

	"github.com/rs/zerolog/log"
)

var (
	ErrGameOver          = errors.New("game is over")
	ErrNotHumanTurn      = errors.New("side to move is not controlled by a human")
	ErrNotComputerTurn   = errors.New("side to move is not controlled by the computer")
	ErrNotMovableUnit    = errors.New("origin does not hold a unit of the side to move")
	ErrCaptureInProgress = errors.New("a capture sequence is in progress")
	ErrRunnerStopped     = errors.New("game runner stopped")
)

var teams = [2]core.Team{core.TeamBlack, core.TeamWhite}

// Game is the turn engine. It is not safe for concurrent use: one goroutine
// owns it, see Runner.
type Game struct {
	cfg              config.Config
	board            *board.Board
	players          map[core.Team]player.Player
	state            core.State
	winner           core.Team
	seq              uint64
	obs              Observer
	announced        *board.Move
	pending          *restart
	userHighlighting bool
}

// restart is a new-game request waiting for the computer to finish its move
type restart struct {
	players map[core.Team]player.Player
	board   *board.Board
}

// NewPlayer builds a player for team, deriving a per-team seed from the config
func NewPlayer(cfg config.Config, team core.Team, playerType core.PlayerType) player.Player {
	var seed int64
	if cfg.Seed != 0 {
		seed = cfg.Seed + int64(team)
	}
	return player.New(team, playerType, seed)
}

// New creates an unstarted game; call Start or StartFrom before anything else
func New(cfg config.Config, black, white player.Player, obs Observer) (*Game, error) {
	if black == nil || black.Team() != core.TeamBlack {
		return nil, fmt.Errorf("black player must play the black team")
	}
	if white == nil || white.Team() != core.TeamWhite {
		return nil, fmt.Errorf("white player must play the white team")
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Game{
		cfg: cfg,
		players: map[core.Team]player.Player{
			core.TeamBlack: black,
			core.TeamWhite: white,
		},
		obs:              obs,
		userHighlighting: cfg.UserMoveHighlighting,
	}, nil
}

// Start begins a new game from the standard layout
func (g *Game) Start() {
	g.startNewGame(board.New(g.cfg.Rules))
}

// StartFrom begins a game from saved data
func (g *Game) StartFrom(data board.SaveData) error {
	b, err := board.Restore(data, g.cfg.Rules)
	if err != nil {
		return fmt.Errorf("failed to restore game: %w", err)
	}
	g.startNewGame(b)
	return nil
}

func (g *Game) startNewGame(b *board.Board) {
	g.board = b
	g.seq++
	g.winner = core.TeamNone
	g.announced = nil
	g.pending = nil

	for _, team := range teams {
		g.players[team].Reset()
	}
	// Reset hands the first move to Black; a restored game may have White to move
	if b.Turn() == core.TeamWhite {
		for _, team := range teams {
			g.players[team].SwitchTurn()
		}
	}

	log.Debug().Uint64("seq", g.seq).Str("position", b.Position()).Msg("new game")
	g.obs.GameStarted(g.Snapshot())
	g.obs.TurnChanged(b.Turn())
	g.nextPlayersTurn()
}

func (g *Game) currentPlayer() player.Player {
	if g.players[core.TeamBlack].IsPlayersTurn() {
		return g.players[core.TeamBlack]
	}
	return g.players[core.TeamWhite]
}

func (g *Game) nextPlayersTurn() {
	g.board.RefreshTeamsAvailableMoves(g.currentPlayer().Team())
	g.runNextMove()
}

// runNextMove settles the state for the side to move and publishes the board
func (g *Game) runNextMove() {
	switch {
	case len(g.board.PossibleMoves()) == 0:
		g.state = core.StateGameOver
		g.winner = core.Opponent(g.currentPlayer().Team())
	case g.board.UnitInMotion() != nil:
		g.state = core.StateTurnContinues
	default:
		g.state = core.StateAwaitingMove
	}

	g.obs.BoardChanged(g.Snapshot())
	if g.state == core.StateGameOver {
		log.Info().Uint64("seq", g.seq).Str("winner", g.winner.Name()).Msg("game over")
		g.obs.GameOver(g.winner)
	}
}

func (g *Game) execute(move board.Move) {
	finished := g.board.ExecuteMove(move)
	log.Debug().Str("team", g.currentPlayer().Team().Name()).Str("move", move.String()).Bool("finished", finished).Msg("move executed")

	// A restart requested during the computer's move takes effect once that move is played
	if g.pending != nil {
		g.applyRestart(g.pending)
		return
	}

	if finished {
		g.endTurn()
	} else {
		g.runNextMove()
	}
}

func (g *Game) endTurn() {
	g.board.ClearUnitInMotion()
	g.state = core.StateTurnOver
	g.switchPlayerTurn()
	g.obs.TurnChanged(g.board.Turn())
	g.nextPlayersTurn()
}

func (g *Game) switchPlayerTurn() {
	for _, team := range teams {
		g.players[team].SwitchTurn()
	}
	g.board.SetNextPlayer()
}

// Attempt submits a human move from an input adapter. Illegal input is not an
// error: it yields a NONE move carrying the reason and the same player keeps
// the turn.
func (g *Game) Attempt(origin, target board.Coordinates) (board.Move, error) {
	if g.state == core.StateGameOver {
		return board.Move{}, ErrGameOver
	}
	p := g.currentPlayer()
	if !p.IsHuman() {
		return board.Move{}, ErrNotHumanTurn
	}
	if u := g.board.UnitAt(origin); u == nil || u.Team() != p.Team() {
		return board.Move{}, ErrNotMovableUnit
	}

	move := g.board.ResolveMove(origin, target)
	if move.IsNone() {
		log.Debug().Str("move", move.String()).Msg("move rejected")
		g.obs.MoveRejected(move)
		return move, nil
	}

	g.execute(move)
	return move, nil
}

// ComputerToMove reports whether the engine is waiting on a computer player
func (g *Game) ComputerToMove() bool {
	return g.state != core.StateGameOver && !g.currentPlayer().IsHuman()
}

// AnnounceComputerMove publishes the chosen move before it is played
func (g *Game) AnnounceComputerMove(move board.Move) {
	g.announced = &move
	g.obs.ComputerMoveChosen(move)
	if g.cfg.AIMoveHighlighting {
		g.obs.BoardChanged(g.Snapshot())
	}
}

// PlayComputerMove executes a move chosen by the current computer player.
// The move must come from the current legal set.
func (g *Game) PlayComputerMove(move board.Move) error {
	if g.state == core.StateGameOver {
		return ErrGameOver
	}
	if g.currentPlayer().IsHuman() {
		return ErrNotComputerTurn
	}
	g.announced = nil
	g.execute(move)
	return nil
}

// PlayComputerTurn picks, announces and plays one computer move synchronously
func (g *Game) PlayComputerTurn() (board.Move, error) {
	if g.state == core.StateGameOver {
		return board.Move{}, ErrGameOver
	}
	p := g.currentPlayer()
	if p.IsHuman() {
		return board.Move{}, ErrNotComputerTurn
	}

	move, ok := p.Move(g.board)
	if !ok {
		panic(fmt.Sprintf("game: %s computer player produced no move with %d legal moves", p.Team().Name(), len(g.board.PossibleMoves())))
	}
	g.AnnounceComputerMove(move)
	return move, g.PlayComputerMove(move)
}

// ChangePlayer replaces one side's player and restarts. The restart is
// deferred while the computer is moving; applied reports whether it happened now.
func (g *Game) ChangePlayer(team core.Team, playerType core.PlayerType) (applied bool, err error) {
	if team != core.TeamBlack && team != core.TeamWhite {
		return false, fmt.Errorf("invalid team %q", team)
	}
	if playerType != core.PlayerHuman && playerType != core.PlayerComputer {
		return false, fmt.Errorf("invalid player type %d", playerType)
	}
	req := &restart{players: map[core.Team]player.Player{team: NewPlayer(g.cfg, team, playerType)}}
	return g.requestRestart(req), nil
}

// Restart starts over from the standard layout, or from data when given
func (g *Game) Restart(data *board.SaveData) (applied bool, err error) {
	req := &restart{}
	if data != nil {
		b, err := board.Restore(*data, g.cfg.Rules)
		if err != nil {
			return false, fmt.Errorf("failed to restore game: %w", err)
		}
		req.board = b
	}
	return g.requestRestart(req), nil
}

func (g *Game) requestRestart(req *restart) bool {
	if g.ComputerToMove() {
		g.pending = mergeRestart(g.pending, req)
		log.Debug().Uint64("seq", g.seq).Msg("restart deferred until the computer move completes")
		g.obs.BoardChanged(g.Snapshot())
		return false
	}
	g.applyRestart(mergeRestart(g.pending, req))
	return true
}

func mergeRestart(prev, next *restart) *restart {
	if prev == nil {
		return next
	}
	merged := &restart{players: map[core.Team]player.Player{}, board: prev.board}
	for team, p := range prev.players {
		merged.players[team] = p
	}
	for team, p := range next.players {
		merged.players[team] = p
	}
	if next.board != nil {
		merged.board = next.board
	}
	return merged
}

func (g *Game) applyRestart(req *restart) {
	for team, p := range req.players {
		g.players[team] = p
	}
	b := req.board
	if b == nil {
		b = board.New(g.cfg.Rules)
	}
	g.startNewGame(b)
}

// ToggleUserMoveHighlighting flips highlighting of legal moves on human turns.
// Legality is unaffected.
func (g *Game) ToggleUserMoveHighlighting() bool {
	g.userHighlighting = !g.userHighlighting
	g.obs.BoardChanged(g.Snapshot())
	return g.userHighlighting
}

// Save returns the occupied cells and the side to move. Refused mid-capture,
// since the save format has no room for the unit in motion.
func (g *Game) Save() (board.SaveData, error) {
	if g.state == core.StateTurnContinues {
		return board.SaveData{}, ErrCaptureInProgress
	}
	return g.board.Save(), nil
}

func (g *Game) Seq() uint64 {
	return g.seq
}

func (g *Game) State() core.State {
	return g.state
}

func (g *Game) Winner() core.Team {
	return g.winner
}

func (g *Game) Turn() core.Team {
	return g.board.Turn()
}

func (g *Game) Rules() board.Rules {
	return g.cfg.Rules
}

func (g *Game) Player(team core.Team) player.Player {
	return g.players[team]
}

func (g *Game) CurrentPlayer() player.Player {
	return g.currentPlayer()
}

// BoardClone returns a private copy of the board for off-goroutine computation
func (g *Game) BoardClone() *board.Board {
	return g.board.Clone()
}
