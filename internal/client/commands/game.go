package commands

import (
	"fmt"
	"strings"

	"checkers/internal/board"
	"checkers/internal/client/display"
	"checkers/internal/core"

	"github.com/google/uuid"
)

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Create a new game",
		Usage:       "new [black h|c] [white h|c] [position]",
		Handler:     newGameHandler,
	})

	r.Register(&Command{
		Name:        "resume",
		ShortName:   "rs",
		Description: "Create a game from the latest autosave",
		Usage:       "resume [black h|c] [white h|c]",
		Handler:     resumeGameHandler,
	})

	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Description: "Join/set current game ID",
		Usage:       "join <gameId>",
		Handler:     joinGameHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Drag a unit from one square to another",
		Usage:       "move <from> <to>  (c3 d4 or 2,2 3,3)",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "players",
		ShortName:   "pl",
		Description: "Change who plays a team (restarts the game)",
		Usage:       "players <black|white> <h|c>",
		Handler:     playersHandler,
	})

	r.Register(&Command{
		Name:        "restart",
		ShortName:   "r",
		Description: "Restart from the opening, a position or a save",
		Usage:       "restart [position | saveId]",
		Handler:     restartHandler,
	})

	r.Register(&Command{
		Name:        "highlight",
		ShortName:   "hl",
		Description: "Toggle legal move highlighting",
		Usage:       "highlight",
		Handler:     highlightHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board and game state",
		Usage:       "show",
		Handler:     showBoardHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "s",
		Description: "Show raw game JSON",
		Usage:       "state",
		Handler:     gameStateHandler,
	})

	r.Register(&Command{
		Name:        "delete",
		ShortName:   "d",
		Description: "Delete a game",
		Usage:       "delete [gameId]",
		Handler:     deleteGameHandler,
	})

	r.Register(&Command{
		Name:        "poll",
		ShortName:   "p",
		Description: "Long-poll for the next change of the current game",
		Usage:       "poll",
		Handler:     pollHandler,
	})

	r.addGroup("Game Commands", "new", "resume", "join", "move", "players", "restart",
		"highlight", "show", "state", "delete", "poll")
}

func parsePlayer(s string) (core.PlayerConfig, error) {
	t, err := core.ParsePlayerType(s)
	if err != nil {
		return core.PlayerConfig{}, err
	}
	return core.PlayerConfig{Type: t}, nil
}

// parsePlayers reads optional black and white player types, defaulting to
// a human Black against the computer
func parsePlayers(args []string) (black, white core.PlayerConfig, err error) {
	black = core.PlayerConfig{Type: core.PlayerHuman}
	white = core.PlayerConfig{Type: core.PlayerComputer}
	if len(args) > 0 {
		if black, err = parsePlayer(args[0]); err != nil {
			return
		}
	}
	if len(args) > 1 {
		white, err = parsePlayer(args[1])
	}
	return
}

func newGameHandler(s *Session, args []string) error {
	black, white, err := parsePlayers(args)
	if err != nil {
		return err
	}
	req := &core.CreateGameRequest{Black: black, White: white}
	if len(args) > 2 {
		req.Position = strings.Join(args[2:], " ")
	}

	resp, err := s.Client.CreateGame(req)
	if err != nil {
		return err
	}
	follow(s, resp)
	fmt.Fprintf(s.Out, "%s\n", display.Success.Render("Game created: "+resp.GameID))
	printSummary(s, resp)
	return nil
}

// resumeGameHandler picks up the latest autosave; the API requires player
// types, so the usual defaults apply unless given
func resumeGameHandler(s *Session, args []string) error {
	black, white, err := parsePlayers(args)
	if err != nil {
		return err
	}
	resp, err := s.Client.CreateGame(&core.CreateGameRequest{Black: black, White: white, Continue: true})
	if err != nil {
		return err
	}
	follow(s, resp)
	fmt.Fprintf(s.Out, "%s\n", display.Success.Render("Resumed as game: "+resp.GameID))
	printSummary(s, resp)
	return nil
}

func joinGameHandler(s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: join <gameId>")
	}
	resp, err := s.Client.GetGame(args[0])
	if err != nil {
		return err
	}
	follow(s, resp)
	fmt.Fprintf(s.Out, "%s\n", display.Info.Render("Current game set to: "+resp.GameID))
	printSummary(s, resp)
	return nil
}

func moveHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if from, to, ok := strings.Cut(args[0], "-"); ok {
			args = []string{from, to}
		}
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: move <from> <to>")
	}

	origin, err := board.ParseCoordinates(args[0])
	if err != nil {
		return err
	}
	target, err := board.ParseCoordinates(args[1])
	if err != nil {
		return err
	}

	resp, err := s.Client.MakeMove(gameID,
		core.CoordinatesDTO{X: origin.X, Y: origin.Y},
		core.CoordinatesDTO{X: target.X, Y: target.Y})
	if err != nil {
		return err
	}
	follow(s, &resp.Game)

	if resp.Accepted {
		fmt.Fprintf(s.Out, "%s\n", display.Success.Render(fmt.Sprintf("Move %s accepted", resp.Move.Type)))
	} else {
		fmt.Fprintf(s.Out, "%s\n", display.Failure.Render("Move rejected: "+resp.Move.Error))
	}
	printSummary(s, &resp.Game)
	return nil
}

func playersHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: players <black|white> <h|c>")
	}
	team, err := core.ParseTeam(args[0])
	if err != nil || team == core.TeamNone {
		return fmt.Errorf("invalid team %q (use black or white)", args[0])
	}
	playerType, err := core.ParsePlayerType(args[1])
	if err != nil {
		return err
	}

	resp, err := s.Client.ChangePlayer(gameID, team.String(), playerType)
	if err != nil {
		return err
	}
	follow(s, &resp.Game)
	reportApplied(s, resp.Applied)
	printSummary(s, &resp.Game)
	return nil
}

func restartHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}

	req := &core.RestartRequest{}
	if len(args) == 1 && isUUID(args[0]) {
		req.SaveID = args[0]
	} else if len(args) > 0 {
		req.Position = strings.Join(args, " ")
	}

	resp, err := s.Client.Restart(gameID, req)
	if err != nil {
		return err
	}
	follow(s, &resp.Game)
	reportApplied(s, resp.Applied)
	printSummary(s, &resp.Game)
	return nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func reportApplied(s *Session, applied bool) {
	if applied {
		fmt.Fprintf(s.Out, "%s\n", display.Success.Render("Game restarted"))
	} else {
		fmt.Fprintf(s.Out, "%s\n", display.Accent.Render("Restart pending until the computer move completes"))
	}
}

func highlightHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	resp, err := s.Client.ToggleHighlighting(gameID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Move highlighting: %t\n", resp.UserMoveHighlighting)
	return nil
}

func showBoardHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	b, err := s.Client.GetBoard(gameID)
	if err != nil {
		return err
	}
	game, err := s.Client.GetGame(gameID)
	if err != nil {
		return err
	}
	follow(s, game)

	fmt.Fprintln(s.Out)
	display.RenderBoard(s.Out, b.Board)
	fmt.Fprintf(s.Out, "Position: %s\n", b.Position)
	printSummary(s, game)
	return nil
}

func gameStateHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	resp, err := s.Client.GetGame(gameID)
	if err != nil {
		return err
	}
	follow(s, resp)
	display.PrettyJSON(s.Out, resp)
	return nil
}

func deleteGameHandler(s *Session, args []string) error {
	gameID := s.CurrentGame
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("usage: delete [gameId]")
	}

	if err := s.Client.DeleteGame(gameID); err != nil {
		return err
	}
	if gameID == s.CurrentGame {
		s.CurrentGame = ""
		s.GameState = nil
	}
	fmt.Fprintf(s.Out, "%s\n", display.Success.Render("Game deleted: "+gameID))
	return nil
}

func pollHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	var version uint64
	if s.GameState != nil {
		version = s.GameState.Version
	}

	fmt.Fprintf(s.Out, "%s\n", display.Info.Render(fmt.Sprintf("Waiting for a change after version %d...", version)))
	resp, err := s.Client.GetGameWithPoll(gameID, version)
	if err != nil {
		return err
	}
	if resp.Version == version {
		fmt.Fprintln(s.Out, "No change before the wait timed out")
	}
	follow(s, resp)
	printSummary(s, resp)
	return nil
}

// follow makes resp the current game
func follow(s *Session, resp *core.GameResponse) {
	s.CurrentGame = resp.GameID
	s.GameState = resp
}

func printSummary(s *Session, g *core.GameResponse) {
	turnType := g.Players.Black
	if g.Turn == "w" {
		turnType = g.Players.White
	}

	line := fmt.Sprintf("v%d %s: %s (%s) to move", g.Version, g.State, display.ColorForTurn(g.Turn), turnType)
	if g.Winner != "" {
		line = fmt.Sprintf("v%d game over: %s wins", g.Version, display.ColorForTurn(g.Winner))
	}
	fmt.Fprintln(s.Out, line)

	if g.UnitInMotion != nil {
		fmt.Fprintf(s.Out, "Capture continues from %d,%d\n", g.UnitInMotion.X, g.UnitInMotion.Y)
	}
	if len(g.Highlighted) > 0 {
		moves := make([]string, len(g.Highlighted))
		for i, m := range g.Highlighted {
			moves[i] = fmt.Sprintf("%d,%d>%d,%d", m.Origin.X, m.Origin.Y, m.Target.X, m.Target.Y)
		}
		fmt.Fprintf(s.Out, "Moves: %s\n", strings.Join(moves, " "))
	}
}
