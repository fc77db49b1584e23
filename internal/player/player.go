package player

import (
	"math/rand"
	"sync"
	"time"

	"checkers/internal/board"
	"checkers/internal/core"
)

// Player is one side of a game. The turn engine keeps exactly one of the two
// players' turn flags set outside of a turn switch.
type Player interface {
	Team() core.Team
	Type() core.PlayerType
	IsHuman() bool
	IsPlayersTurn() bool
	// Reset restores the turn flag for a fresh game; Black moves first
	Reset()
	SwitchTurn()
	// Move picks from the board's current legal moves. Humans never pick:
	// their moves arrive from an input adapter.
	Move(b *board.Board) (board.Move, bool)
}

type base struct {
	team       core.Team
	playerType core.PlayerType
	turn       bool
}

func (p *base) Team() core.Team { return p.team }
func (p *base) Type() core.PlayerType { return p.playerType }
func (p *base) IsHuman() bool { return p.playerType == core.PlayerHuman }
func (p *base) IsPlayersTurn() bool { return p.turn }
func (p *base) SwitchTurn() { p.turn = !p.turn }
func (p *base) Reset() { p.turn = p.team == core.TeamBlack }
func (p *base) String() string { return p.team.Name() + " (" + p.playerType.String() + ")" }

type Human struct {
	base
}

func NewHuman(team core.Team) *Human {
	h := &Human{base{team: team, playerType: core.PlayerHuman}}
	h.Reset()
	return h
}

func (h *Human) Move(*board.Board) (board.Move, bool) {
	return board.Move{}, false
}

// RandomAI picks uniformly among the legal moves
type RandomAI struct {
	base
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAI creates a computer player. A zero seed uses the clock.
func NewRandomAI(team core.Team, seed int64) *RandomAI {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ai := &RandomAI{
		base: base{team: team, playerType: core.PlayerComputer},
		rng:  rand.New(rand.NewSource(seed)),
	}
	ai.Reset()
	return ai
}

// Move is safe to call from a worker goroutine on a cloned board
func (ai *RandomAI) Move(b *board.Board) (board.Move, bool) {
	moves := b.PossibleMoves()
	if len(moves) == 0 {
		return board.Move{}, false
	}

	ai.mu.Lock()
	i := ai.rng.Intn(len(moves))
	ai.mu.Unlock()

	return moves[i], true
}

// New builds a player of the given type
func New(team core.Team, playerType core.PlayerType, seed int64) Player {
	if playerType == core.PlayerComputer {
		return NewRandomAI(team, seed)
	}
	return NewHuman(team)
}
