package board

import (
	"fmt"

	"checkers/internal/core"
)

// startingRows is how many rows each team fills at the start of a game
const startingRows = 3

// Rules holds the variant switches that affect move generation
type Rules struct {
	FlyingKings bool // Kings slide and capture along whole diagonals
}

func DefaultRules() Rules {
	return Rules{FlyingKings: true}
}

// Board owns the grid, both teams' units, the side to move and the legal-move
// cache for that side. The grid and the unit collections always agree.
type Board struct {
	rules         Rules
	grid          [BoardSize][BoardSize]*Unit // [y][x]
	units         map[core.Team][]*Unit
	turn          core.Team
	possibleMoves []Move
	unitInMotion  *Unit
}

// New creates a board in the standard starting layout with Black to move
func New(rules Rules) *Board {
	b := NewEmpty(rules, core.TeamBlack)
	for y := 0; y < BoardSize; y++ {
		var team core.Team
		switch {
		case y < startingRows:
			team = core.TeamBlack
		case y >= BoardSize-startingRows:
			team = core.TeamWhite
		default:
			continue
		}
		for x := 0; x < BoardSize; x++ {
			c := Coordinates{X: x, Y: y}
			if c.IsPlaySquare() {
				b.place(team, RankMan, c)
			}
		}
	}
	return b
}

// NewEmpty creates a board without units
func NewEmpty(rules Rules, turn core.Team) *Board {
	return &Board{
		rules: rules,
		units: map[core.Team][]*Unit{
			core.TeamBlack: {},
			core.TeamWhite: {},
		},
		turn: turn,
	}
}

// Place puts a new unit on the board. Used for setups and restores.
func (b *Board) Place(team core.Team, rank Rank, pos Coordinates) (*Unit, error) {
	if team != core.TeamBlack && team != core.TeamWhite {
		return nil, fmt.Errorf("invalid team %q at %s", team, pos)
	}
	if rank != RankMan && rank != RankKing {
		return nil, fmt.Errorf("invalid rank at %s", pos)
	}
	if pos.IsOutsideBoard() {
		return nil, fmt.Errorf("position %s is outside the board", pos)
	}
	if !pos.IsPlaySquare() {
		return nil, fmt.Errorf("position %s is not a play square", pos)
	}
	if b.IsOccupiedTile(pos) {
		return nil, fmt.Errorf("position %s is already occupied", pos)
	}
	if rank == RankMan && pos.Y == promotionRow(team) {
		return nil, fmt.Errorf("%s man at %s should already be a king", team.Name(), pos)
	}
	b.possibleMoves = nil
	return b.place(team, rank, pos), nil
}

func (b *Board) place(team core.Team, rank Rank, pos Coordinates) *Unit {
	u := &Unit{team: team, rank: rank, pos: pos}
	b.grid[pos.Y][pos.X] = u
	b.units[team] = append(b.units[team], u)
	return u
}

func (b *Board) remove(u *Unit) {
	b.grid[u.pos.Y][u.pos.X] = nil
	list := b.units[u.team]
	for i, other := range list {
		if other == u {
			b.units[u.team] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func (b *Board) Rules() Rules {
	return b.rules
}

func (b *Board) Turn() core.Team {
	return b.turn
}

// SetNextPlayer hands the move to the other team and drops the stale move cache
func (b *Board) SetNextPlayer() {
	b.turn = core.Opponent(b.turn)
	b.possibleMoves = nil
}

func (b *Board) UnitAt(c Coordinates) *Unit {
	if c.IsOutsideBoard() {
		return nil
	}
	return b.grid[c.Y][c.X]
}

func (b *Board) IsOccupiedTile(c Coordinates) bool {
	return b.UnitAt(c) != nil
}

// Units returns a copy of the team's unit list in placement order
func (b *Board) Units(team core.Team) []*Unit {
	return append([]*Unit(nil), b.units[team]...)
}

func (b *Board) UnitCount(team core.Team) int {
	return len(b.units[team])
}

// PossibleMoves returns a copy of the cached legal moves for the side to move
func (b *Board) PossibleMoves() []Move {
	return append([]Move(nil), b.possibleMoves...)
}

func (b *Board) UnitInMotion() *Unit {
	return b.unitInMotion
}

func (b *Board) ClearUnitInMotion() {
	b.unitInMotion = nil
}

// Clone returns a deep copy, suitable for handing to another goroutine
func (b *Board) Clone() *Board {
	c := NewEmpty(b.rules, b.turn)
	for _, team := range []core.Team{core.TeamBlack, core.TeamWhite} {
		for _, u := range b.units[team] {
			cu := u.clone()
			c.grid[cu.pos.Y][cu.pos.X] = cu
			c.units[team] = append(c.units[team], cu)
			if u == b.unitInMotion {
				c.unitInMotion = cu
			}
		}
	}
	c.possibleMoves = b.PossibleMoves()
	return c
}

// CheckInvariants verifies that grid occupancy equals the union of both teams' units
func (b *Board) CheckInvariants() error {
	seen := 0
	for _, team := range []core.Team{core.TeamBlack, core.TeamWhite} {
		for _, u := range b.units[team] {
			if u.team != team {
				return fmt.Errorf("unit %s listed under %s", u, team.Name())
			}
			if u.pos.IsOutsideBoard() || !u.pos.IsPlaySquare() {
				return fmt.Errorf("unit %s is off the play squares", u)
			}
			if b.grid[u.pos.Y][u.pos.X] != u {
				return fmt.Errorf("grid does not hold unit %s", u)
			}
			seen++
		}
	}

	occupied := 0
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b.grid[y][x] != nil {
				occupied++
			}
		}
	}
	if occupied != seen {
		return fmt.Errorf("grid holds %d units but teams list %d", occupied, seen)
	}
	if b.unitInMotion != nil && b.grid[b.unitInMotion.pos.Y][b.unitInMotion.pos.X] != b.unitInMotion {
		return fmt.Errorf("unit in motion %s is not on the board", b.unitInMotion)
	}
	return nil
}
