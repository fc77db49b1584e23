package board

import (
	"errors"
	"fmt"
	"strings"

	"checkers/internal/core"
)

// ErrInvalidPosition wraps every notation and layout error
var ErrInvalidPosition = errors.New("invalid position")

// StartingPosition is the standard layout in position notation
const StartingPosition = "b.b.b.b./.b.b.b.b/b.b.b.b./8/8/.w.w.w.w/w.w.w.w./.w.w.w.w b"

// ParsePosition reads position notation: eight ranks from y=0 to y=7 separated
// by '/', each listing x=0..7 as b/w (men), B/W (kings), '.' or a digit run of
// empty cells, then a space and the side to move.
func ParsePosition(position string, rules Rules) (*Board, error) {
	parts := strings.Fields(position)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected 2 parts, got %d", ErrInvalidPosition, len(parts))
	}

	turn, err := core.ParseTeam(parts[1])
	if err != nil || turn == core.TeamNone {
		return nil, fmt.Errorf("%w: side to move must be 'b' or 'w'", ErrInvalidPosition)
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != BoardSize {
		return nil, fmt.Errorf("%w: expected %d ranks, got %d", ErrInvalidPosition, BoardSize, len(ranks))
	}

	b := NewEmpty(rules, turn)
	for y, rank := range ranks {
		x := 0
		for _, ch := range rank {
			if ch >= '1' && ch <= '0'+BoardSize {
				x += int(ch - '0')
				continue
			}
			if x >= BoardSize {
				return nil, fmt.Errorf("%w: too many cells in rank %d", ErrInvalidPosition, y)
			}
			if ch != '.' {
				team, unitRank, err := decodeUnit(ch)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
				}
				if _, err := b.Place(team, unitRank, Coordinates{X: x, Y: y}); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
				}
			}
			x++
		}
		if x != BoardSize {
			return nil, fmt.Errorf("%w: rank %d has %d cells", ErrInvalidPosition, y, x)
		}
	}
	return b, nil
}

func decodeUnit(ch rune) (core.Team, Rank, error) {
	switch ch {
	case 'b':
		return core.TeamBlack, RankMan, nil
	case 'B':
		return core.TeamBlack, RankKing, nil
	case 'w':
		return core.TeamWhite, RankMan, nil
	case 'W':
		return core.TeamWhite, RankKing, nil
	}
	return core.TeamNone, 0, fmt.Errorf("unknown unit symbol %q", ch)
}

func symbol(u *Unit) byte {
	var ch byte = 'b'
	if u.team == core.TeamWhite {
		ch = 'w'
	}
	if u.IsKing() {
		ch -= 'a' - 'A'
	}
	return ch
}

// Position encodes the board in position notation, compressing empty runs
func (b *Board) Position() string {
	var sb strings.Builder
	for y := 0; y < BoardSize; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for x := 0; x < BoardSize; x++ {
			u := b.grid[y][x]
			if u == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(emptyRun(empty))
				empty = 0
			}
			sb.WriteByte(symbol(u))
		}
		if empty > 0 {
			sb.WriteString(emptyRun(empty))
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(b.turn.String())
	return sb.String()
}

// emptyRun keeps single gaps as '.', which reads better on a checkered rank
func emptyRun(n int) string {
	if n == 1 {
		return "."
	}
	return fmt.Sprintf("%d", n)
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  0 1 2 3 4 5 6 7\n")

	for y := 0; y < BoardSize; y++ {
		sb.WriteString(fmt.Sprintf("%d ", y))
		for x := 0; x < BoardSize; x++ {
			u := b.grid[y][x]
			switch {
			case u != nil:
				sb.WriteString(fmt.Sprintf("%c ", symbol(u)))
			case (Coordinates{X: x, Y: y}).IsPlaySquare():
				sb.WriteString(". ")
			default:
				sb.WriteString("  ")
			}
		}
		sb.WriteString(fmt.Sprintf("%d\n", y))
	}
	sb.WriteString("  0 1 2 3 4 5 6 7")

	return sb.String()
}
