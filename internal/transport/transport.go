package transport

import (
	"context"
	"errors"
	"sort"

	"checkers/internal/board"
	"checkers/internal/core"
	"checkers/internal/game"
	"checkers/internal/service"
	"checkers/internal/storage"
)

// View abstracts display operations. Board and event methods are called from
// game goroutines and must not block for long.
type View interface {
	ShowBoard(st service.GameState)
	ShowRejected(m board.Move)
	ShowComputerMove(m board.Move)
	ShowTurn(team core.Team)
	ShowGameOver(winner core.Team)
	ShowMessage(msg string)
	ShowError(err error)
}

// ViewListener forwards one game's events to a view
func ViewListener(gameID string, v View) service.Listener {
	return service.ListenerFunc(func(e service.Event) {
		if e.GameID != gameID {
			return
		}
		switch e.Type {
		case service.EventState:
			v.ShowBoard(service.GameState{GameID: e.GameID, Version: e.Version, Snapshot: e.Snapshot})
		case service.EventRejected:
			v.ShowRejected(e.Move)
		case service.EventChosen:
			v.ShowComputerMove(e.Move)
		case service.EventTurn:
			v.ShowTurn(e.Team)
		case service.EventGameOver:
			v.ShowGameOver(e.Team)
		}
	})
}

func NewCoordinatesDTO(c board.Coordinates) core.CoordinatesDTO {
	return core.CoordinatesDTO{X: c.X, Y: c.Y}
}

// FromDTO converts request coordinates; off-board values pass through
func FromDTO(c core.CoordinatesDTO) board.Coordinates {
	return board.Coordinates{X: c.X, Y: c.Y}
}

func NewMoveInfo(m board.Move) core.MoveInfo {
	info := core.MoveInfo{
		Origin: NewCoordinatesDTO(m.Origin),
		Target: NewCoordinatesDTO(m.Target),
		Type:   m.Type.String(),
	}
	if m.IsNone() {
		info.Error = m.Explanation.Code()
	}
	return info
}

func newMoveInfos(moves []board.Move) []core.MoveInfo {
	infos := make([]core.MoveInfo, len(moves))
	for i, m := range moves {
		infos[i] = NewMoveInfo(m)
	}
	return infos
}

// NewGameResponse renders a published game state for JSON adapters
func NewGameResponse(st service.GameState) core.GameResponse {
	snap := st.Snapshot
	resp := core.GameResponse{
		GameID:        st.GameID,
		Version:       st.Version,
		State:         snap.State.String(),
		Turn:          snap.Turn.String(),
		Position:      snap.Position,
		Units:         make([]core.UnitInfo, 0, len(snap.Units.Units)),
		PossibleMoves: newMoveInfos(snap.PossibleMoves),
		Players: core.PlayersResponse{
			Black: snap.Black.String(),
			White: snap.White.String(),
		},
		UserMoveHighlighting: snap.UserMoveHighlighting,
		RestartPending:       snap.RestartPending,
	}
	if snap.State == core.StateGameOver {
		resp.Winner = snap.Winner.String()
	}
	if len(snap.Highlighted) > 0 {
		resp.Highlighted = newMoveInfos(snap.Highlighted)
	}
	if snap.UnitInMotion != nil {
		c := NewCoordinatesDTO(*snap.UnitInMotion)
		resp.UnitInMotion = &c
	}

	for c, u := range snap.Units.Units {
		resp.Units = append(resp.Units, core.UnitInfo{X: c.X, Y: c.Y, Team: u.Team.String(), Rank: u.Rank.String()})
	}
	sort.Slice(resp.Units, func(i, j int) bool {
		if resp.Units[i].Y != resp.Units[j].Y {
			return resp.Units[i].Y < resp.Units[j].Y
		}
		return resp.Units[i].X < resp.Units[j].X
	})
	return resp
}

func NewSaveResponse(rec storage.SaveRecord) core.SaveResponse {
	return core.SaveResponse{
		SaveID:   rec.SaveID,
		Name:     rec.Name,
		GameID:   rec.GameID,
		Turn:     rec.Data.Turn.String(),
		Position: rec.Position,
		Players: core.PlayersResponse{
			Black: rec.BlackType.String(),
			White: rec.WhiteType.String(),
		},
		CreatedAt: rec.CreatedAt,
	}
}

// NewErrorResponse classifies an engine or service error under a stable code
func NewErrorResponse(err error) core.ErrorResponse {
	resp := core.ErrorResponse{Error: err.Error(), Code: core.ErrInternalError}
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		resp.Code = core.ErrGameNotFound
	case errors.Is(err, storage.ErrSaveNotFound):
		resp.Code = core.ErrSaveNotFound
	case errors.Is(err, service.ErrStorageDisabled):
		resp.Code = core.ErrStorageDisabled
	case errors.Is(err, game.ErrGameOver):
		resp.Code = core.ErrGameOver
	case errors.Is(err, game.ErrNotHumanTurn):
		resp.Code = core.ErrNotHumanTurn
	case errors.Is(err, game.ErrNotMovableUnit):
		resp.Code = core.ErrInvalidMove
	case errors.Is(err, game.ErrCaptureInProgress):
		resp.Code = core.ErrCaptureInProgress
	case errors.Is(err, board.ErrInvalidPosition):
		resp.Code = core.ErrInvalidPosition
	case errors.Is(err, service.ErrConflictingSource):
		resp.Code = core.ErrInvalidRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, game.ErrRunnerStopped):
		resp.Code = core.ErrUnavailable
	}
	return resp
}
