package board

import "checkers/internal/core"

var diagonals = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

// RefreshTeamsAvailableMoves recomputes the legal moves for team. Captures are
// mandatory: when any unit can capture only captures are listed. While a
// capture chain is open only the unit in motion may move.
func (b *Board) RefreshTeamsAvailableMoves(team core.Team) {
	if b.unitInMotion != nil && b.unitInMotion.team == team {
		b.possibleMoves = b.captures(b.unitInMotion)
		return
	}

	var captures []Move
	for _, u := range b.units[team] {
		captures = append(captures, b.captures(u)...)
	}
	if len(captures) > 0 {
		b.possibleMoves = captures
		return
	}

	var steps []Move
	for _, u := range b.units[team] {
		steps = append(steps, b.steps(u)...)
	}
	b.possibleMoves = steps
}

// directions lists the diagonals a unit may travel along
func (b *Board) directions(u *Unit) [][2]int {
	if u.IsKing() {
		return diagonals[:]
	}
	f := forward(u.team)
	return [][2]int{{1, f}, {-1, f}}
}

func (b *Board) slides(u *Unit) bool {
	return u.IsKing() && b.rules.FlyingKings
}

func (b *Board) steps(u *Unit) []Move {
	var moves []Move
	for _, d := range b.directions(u) {
		c := u.pos.Offset(d[0], d[1])
		for !c.IsOutsideBoard() && !b.IsOccupiedTile(c) {
			moves = append(moves, NewMove(u.pos, c, MoveNormal))
			if !b.slides(u) {
				break
			}
			c = c.Offset(d[0], d[1])
		}
	}
	return moves
}

func (b *Board) captures(u *Unit) []Move {
	var moves []Move
	for _, d := range b.directions(u) {
		victim := u.pos.Offset(d[0], d[1])
		if b.slides(u) {
			for !victim.IsOutsideBoard() && !b.IsOccupiedTile(victim) {
				victim = victim.Offset(d[0], d[1])
			}
		}
		enemy := b.UnitAt(victim)
		if enemy == nil || enemy.team == u.team {
			continue
		}

		land := victim.Offset(d[0], d[1])
		for !land.IsOutsideBoard() && !b.IsOccupiedTile(land) {
			moves = append(moves, newJump(u.pos, land, victim))
			if !b.slides(u) {
				break
			}
			land = land.Offset(d[0], d[1])
		}
	}
	return moves
}

func (b *Board) lookup(move Move) (Move, bool) {
	for _, m := range b.possibleMoves {
		if m.Equal(move) {
			return m, true
		}
	}
	return Move{}, false
}

// ExecuteMove applies a move taken from PossibleMoves and reports whether the
// turn is finished. It returns false when the moved unit must keep capturing;
// the legal moves are then restricted to that unit's captures.
// Panics on a NONE move or a move that is not currently legal.
func (b *Board) ExecuteMove(move Move) bool {
	if move.IsNone() {
		panic("board: refusing to execute a NONE move " + move.String())
	}
	legal, ok := b.lookup(move)
	if !ok {
		panic("board: move " + move.String() + " is not in the legal move set")
	}

	u := b.grid[legal.Origin.Y][legal.Origin.X]
	b.grid[u.pos.Y][u.pos.X] = nil
	u.pos = legal.Target
	b.grid[u.pos.Y][u.pos.X] = u

	if legal.Type == MoveJump {
		b.remove(b.grid[legal.Captured.Y][legal.Captured.X])
	}

	if !u.IsKing() && u.reachedFarRank() {
		u.rank = RankKing
	}

	if legal.Type == MoveJump {
		if further := b.captures(u); len(further) > 0 {
			b.unitInMotion = u
			b.possibleMoves = further
			return false
		}
	}

	b.unitInMotion = nil
	b.possibleMoves = nil
	return true
}

// ResolveMove matches a free-form origin/target pair against the legal moves.
// When nothing matches it returns a NONE move carrying the first applicable
// explanation.
func (b *Board) ResolveMove(origin, target Coordinates) Move {
	for _, m := range b.possibleMoves {
		if m.Origin == origin && m.Target == target {
			return m
		}
	}

	m := NewMove(origin, target, MoveNone)
	m.Explanation = b.explain(origin, target)
	return m
}

func (b *Board) explain(origin, target Coordinates) InvalidMoveError {
	switch {
	case target.IsOutsideBoard():
		return OutsideBoardError
	case origin == target:
		return SamePositionError
	case b.IsOccupiedTile(target):
		return TileAlreadyOccupiedError
	case !target.IsPlaySquare():
		return NotPlaySquareError
	default:
		return DistantMoveError
	}
}
