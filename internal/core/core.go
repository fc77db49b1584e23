package core

import (
	"fmt"
	"strings"
)

// State is the phase of the turn engine
type State int

const (
	StateAwaitingMove State = iota
	StateTurnContinues      // Same unit must keep capturing
	StateTurnOver           // Transient while sides switch
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingMove:
		return "awaiting_move"
	case StateTurnContinues:
		return "turn_continues"
	case StateTurnOver:
		return "turn_over"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

type Team byte

const (
	TeamNone Team = iota
	TeamBlack
	TeamWhite
)

func (t Team) String() string {
	switch t {
	case TeamBlack:
		return "b"
	case TeamWhite:
		return "w"
	default:
		return "-"
	}
}

// Name returns the display name used in turn and result announcements
func (t Team) Name() string {
	switch t {
	case TeamBlack:
		return "Black"
	case TeamWhite:
		return "White"
	default:
		return "Nobody"
	}
}

func (t Team) MarshalText() ([]byte, error) {
	switch t {
	case TeamBlack:
		return []byte("black"), nil
	case TeamWhite:
		return []byte("white"), nil
	case TeamNone:
		return []byte(""), nil
	}
	return nil, fmt.Errorf("invalid team: %d", t)
}

func (t *Team) UnmarshalText(text []byte) error {
	parsed, err := ParseTeam(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTeam accepts "b", "black", "w", "white" (case-insensitive); empty is TeamNone
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "black":
		return TeamBlack, nil
	case "w", "white":
		return TeamWhite, nil
	case "", "-":
		return TeamNone, nil
	}
	return TeamNone, fmt.Errorf("invalid team: %q", s)
}

func Opponent(t Team) Team {
	if t == TeamBlack {
		return TeamWhite
	}
	return TeamBlack
}

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

func (p PlayerType) String() string {
	switch p {
	case PlayerHuman:
		return "human"
	case PlayerComputer:
		return "computer"
	default:
		return "unknown"
	}
}

// ParsePlayerType accepts "h", "human", "c", "computer", "ai"
func ParsePlayerType(s string) (PlayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "human":
		return PlayerHuman, nil
	case "c", "computer", "ai":
		return PlayerComputer, nil
	}
	return 0, fmt.Errorf("invalid player type: %q (use human or computer)", s)
}
