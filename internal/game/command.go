package game

import (
	"checkers/internal/board"
	"checkers/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdMove CommandType = iota
	CmdChangePlayer
	CmdRestart
	CmdToggleHighlighting
	CmdSnapshot
	CmdSave
)

func (t CommandType) String() string {
	switch t {
	case CmdMove:
		return "move"
	case CmdChangePlayer:
		return "change_player"
	case CmdRestart:
		return "restart"
	case CmdToggleHighlighting:
		return "toggle_highlighting"
	case CmdSnapshot:
		return "snapshot"
	case CmdSave:
		return "save"
	default:
		return "unknown"
	}
}

// Command is a unified structure for all operations sent to a Runner
type Command struct {
	Type  CommandType
	Args  any // Command-specific arguments
	reply chan Response
}

// Response carries the outcome of a command back to the caller
type Response struct {
	Move         board.Move
	Applied      bool
	Highlighting bool
	Save         board.SaveData
	Snapshot     Snapshot
	Err          error
}

type moveArgs struct {
	Origin board.Coordinates
	Target board.Coordinates
}

type changePlayerArgs struct {
	Team core.Team
	Type core.PlayerType
}

func NewMoveCommand(origin, target board.Coordinates) Command {
	return Command{
		Type: CmdMove,
		Args: moveArgs{Origin: origin, Target: target},
	}
}

func NewChangePlayerCommand(team core.Team, playerType core.PlayerType) Command {
	return Command{
		Type: CmdChangePlayer,
		Args: changePlayerArgs{Team: team, Type: playerType},
	}
}

// NewRestartCommand restarts from the standard layout, or from data when non-nil
func NewRestartCommand(data *board.SaveData) Command {
	return Command{
		Type: CmdRestart,
		Args: data,
	}
}

func NewToggleHighlightingCommand() Command {
	return Command{Type: CmdToggleHighlighting}
}

func NewSnapshotCommand() Command {
	return Command{Type: CmdSnapshot}
}

func NewSaveCommand() Command {
	return Command{Type: CmdSave}
}

// apply runs cmd against g on the owning goroutine
func (cmd Command) apply(g *Game) Response {
	var resp Response

	switch cmd.Type {
	case CmdMove:
		args := cmd.Args.(moveArgs)
		resp.Move, resp.Err = g.Attempt(args.Origin, args.Target)

	case CmdChangePlayer:
		args := cmd.Args.(changePlayerArgs)
		resp.Applied, resp.Err = g.ChangePlayer(args.Team, args.Type)

	case CmdRestart:
		data, _ := cmd.Args.(*board.SaveData)
		resp.Applied, resp.Err = g.Restart(data)

	case CmdToggleHighlighting:
		resp.Highlighting = g.ToggleUserMoveHighlighting()

	case CmdSnapshot:

	case CmdSave:
		resp.Save, resp.Err = g.Save()
	}

	resp.Snapshot = g.Snapshot()
	return resp
}
