package board

import (
	"fmt"
	"sort"

	"checkers/internal/core"
)

type UnitData struct {
	Team core.Team `json:"team"`
	Rank Rank      `json:"rank"`
}

// SaveData is everything needed to restore a game: the occupied cells and the side to move
type SaveData struct {
	Turn  core.Team                `json:"turn"`
	Units map[Coordinates]UnitData `json:"units"`
}

func (b *Board) Save() SaveData {
	data := SaveData{
		Turn:  b.turn,
		Units: make(map[Coordinates]UnitData),
	}
	for _, team := range []core.Team{core.TeamBlack, core.TeamWhite} {
		for _, u := range b.units[team] {
			data.Units[u.pos] = u.data()
		}
	}
	return data
}

// Restore rebuilds a board from saved data. Units are placed in row order so
// that move generation order does not depend on map iteration.
func Restore(data SaveData, rules Rules) (*Board, error) {
	if data.Turn != core.TeamBlack && data.Turn != core.TeamWhite {
		return nil, fmt.Errorf("%w: invalid side to move %q", ErrInvalidPosition, data.Turn)
	}

	cells := make([]Coordinates, 0, len(data.Units))
	for c := range data.Units {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})

	b := NewEmpty(rules, data.Turn)
	for _, c := range cells {
		u := data.Units[c]
		if _, err := b.Place(u.Team, u.Rank, c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
		}
	}
	return b, nil
}
