package game

import (
	"checkers/internal/board"
	"checkers/internal/core"
)

// Snapshot is an immutable copy of the game state, safe to hand to other goroutines
type Snapshot struct {
	Seq                  uint64 // Increments with every new game
	State                core.State
	Turn                 core.Team
	Winner               core.Team
	Black                core.PlayerType
	White                core.PlayerType
	Position             string
	Units                board.SaveData
	PossibleMoves        []board.Move
	Highlighted          []board.Move
	UnitInMotion         *board.Coordinates
	RestartPending       bool
	UserMoveHighlighting bool
}

// Board rebuilds a detached board from the snapshot, e.g. for rendering
func (s Snapshot) Board(rules board.Rules) (*board.Board, error) {
	return board.Restore(s.Units, rules)
}

func (s Snapshot) PlayerType(team core.Team) core.PlayerType {
	if team == core.TeamWhite {
		return s.White
	}
	return s.Black
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Seq:                  g.seq,
		State:                g.state,
		Turn:                 g.board.Turn(),
		Winner:               g.winner,
		Black:                g.players[core.TeamBlack].Type(),
		White:                g.players[core.TeamWhite].Type(),
		Position:             g.board.Position(),
		Units:                g.board.Save(),
		PossibleMoves:        g.board.PossibleMoves(),
		RestartPending:       g.pending != nil,
		UserMoveHighlighting: g.userHighlighting,
	}

	if u := g.board.UnitInMotion(); u != nil {
		pos := u.Pos()
		s.UnitInMotion = &pos
	}

	switch {
	case g.state == core.StateGameOver:
	case g.currentPlayer().IsHuman():
		if g.userHighlighting {
			s.Highlighted = s.PossibleMoves
		}
	case g.announced != nil && g.cfg.AIMoveHighlighting:
		s.Highlighted = []board.Move{*g.announced}
	}
	return s
}
