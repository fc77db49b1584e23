package game

import (
	"checkers/internal/board"
	"checkers/internal/core"
)

// Observer receives engine notifications on the goroutine that owns the game.
// Implementations must not block and must not call back into the game.
type Observer interface {
	GameStarted(s Snapshot)
	// BoardChanged fires after every mutation visible to a view
	BoardChanged(s Snapshot)
	MoveRejected(m board.Move)
	ComputerMoveChosen(m board.Move)
	TurnChanged(team core.Team)
	GameOver(winner core.Team)
}

// NopObserver ignores everything; embed it to implement a subset
type NopObserver struct{}

func (NopObserver) GameStarted(Snapshot) {}
func (NopObserver) BoardChanged(Snapshot) {}
func (NopObserver) MoveRejected(board.Move) {}
func (NopObserver) ComputerMoveChosen(board.Move) {}
func (NopObserver) TurnChanged(core.Team) {}
func (NopObserver) GameOver(core.Team) {}

// Observers fans notifications out in order
type Observers []Observer

func (o Observers) GameStarted(s Snapshot) {
	for _, obs := range o {
		obs.GameStarted(s)
	}
}

func (o Observers) BoardChanged(s Snapshot) {
	for _, obs := range o {
		obs.BoardChanged(s)
	}
}

func (o Observers) MoveRejected(m board.Move) {
	for _, obs := range o {
		obs.MoveRejected(m)
	}
}

func (o Observers) ComputerMoveChosen(m board.Move) {
	for _, obs := range o {
		obs.ComputerMoveChosen(m)
	}
}

func (o Observers) TurnChanged(team core.Team) {
	for _, obs := range o {
		obs.TurnChanged(team)
	}
}

func (o Observers) GameOver(winner core.Team) {
	for _, obs := range o {
		obs.GameOver(winner)
	}
}
