package board

import "fmt"

type MoveType int

const (
	MoveNone MoveType = iota // Rejected input, never executed
	MoveNormal
	MoveJump
)

func (t MoveType) String() string {
	switch t {
	case MoveNormal:
		return "NORMAL"
	case MoveJump:
		return "JUMP"
	default:
		return "NONE"
	}
}

// InvalidMoveError explains why an attempted move matched no legal move
type InvalidMoveError int

const (
	NoMoveError InvalidMoveError = iota
	OutsideBoardError
	SamePositionError
	TileAlreadyOccupiedError
	NotPlaySquareError
	DistantMoveError
)

// Code is the stable identifier exposed to adapters
func (e InvalidMoveError) Code() string {
	switch e {
	case OutsideBoardError:
		return "OUTSIDE_BOARD_ERROR"
	case SamePositionError:
		return "SAME_POSITION_ERROR"
	case TileAlreadyOccupiedError:
		return "TILE_ALREADY_OCCUPIED_ERROR"
	case NotPlaySquareError:
		return "NOT_PLAY_SQUARE_ERROR"
	case DistantMoveError:
		return "DISTANT_MOVE_ERROR"
	default:
		return ""
	}
}

func (e InvalidMoveError) Error() string {
	switch e {
	case OutsideBoardError:
		return "target is outside the board"
	case SamePositionError:
		return "unit was dropped on its own square"
	case TileAlreadyOccupiedError:
		return "target square is already occupied"
	case NotPlaySquareError:
		return "units may only stand on play squares"
	case DistantMoveError:
		return "target cannot be reached by any legal move"
	default:
		return "no error"
	}
}

// Move is a transition between two cells. Captured is only meaningful for jumps.
type Move struct {
	Origin      Coordinates
	Target      Coordinates
	Type        MoveType
	Captured    Coordinates
	Explanation InvalidMoveError
}

func NewMove(origin, target Coordinates, moveType MoveType) Move {
	return Move{Origin: origin, Target: target, Type: moveType}
}

func newJump(origin, target, captured Coordinates) Move {
	return Move{Origin: origin, Target: target, Type: MoveJump, Captured: captured}
}

func (m Move) IsNone() bool {
	return m.Type == MoveNone
}

// Equal compares origin, target and type
func (m Move) Equal(o Move) bool {
	return m.Origin == o.Origin && m.Target == o.Target && m.Type == o.Type
}

func (m Move) String() string {
	switch m.Type {
	case MoveJump:
		return fmt.Sprintf("%s x %s", m.Origin, m.Target)
	case MoveNormal:
		return fmt.Sprintf("%s - %s", m.Origin, m.Target)
	default:
		return fmt.Sprintf("%s ? %s (%s)", m.Origin, m.Target, m.Explanation.Code())
	}
}
