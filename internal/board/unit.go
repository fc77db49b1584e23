package board

import (
	"fmt"

	"checkers/internal/core"
)

type Rank byte

const (
	RankMan Rank = iota + 1
	RankKing
)

func (r Rank) String() string {
	switch r {
	case RankMan:
		return "man"
	case RankKing:
		return "king"
	default:
		return "unknown"
	}
}

func (r Rank) MarshalText() ([]byte, error) {
	if r != RankMan && r != RankKing {
		return nil, fmt.Errorf("invalid rank: %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	switch string(text) {
	case "man":
		*r = RankMan
	case "king":
		*r = RankKing
	default:
		return fmt.Errorf("invalid rank: %q", text)
	}
	return nil
}

// Unit is a single piece. Only the owning Board mutates it.
type Unit struct {
	team core.Team
	rank Rank
	pos  Coordinates
}

func (u *Unit) Team() core.Team { return u.team }
func (u *Unit) Rank() Rank { return u.rank }
func (u *Unit) Pos() Coordinates { return u.pos }
func (u *Unit) IsKing() bool { return u.rank == RankKing }
func (u *Unit) String() string { return fmt.Sprintf("%s %s at %s", u.team.Name(), u.rank, u.pos) }
func (u *Unit) data() UnitData { return UnitData{Team: u.team, Rank: u.rank} }

func (u *Unit) clone() *Unit {
	c := *u
	return &c
}

func (u *Unit) reachedFarRank() bool { return u.pos.Y == promotionRow(u.team) }

// forward is the y direction a man of the team advances in
func forward(team core.Team) int {
	if team == core.TeamBlack {
		return 1
	}
	return -1
}

func promotionRow(team core.Team) int {
	if team == core.TeamBlack {
		return BoardSize - 1
	}
	return 0
}
