package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkers/internal/board"
	"checkers/internal/cli"
	"checkers/internal/core"
	"checkers/internal/service"
	"checkers/internal/transport"

	"github.com/rs/zerolog/log"
)

const commandTimeout = 5 * time.Second

type CLIHandler struct {
	svc         *service.Service
	view        *cli.CLI
	gameID      string
	unsubscribe func()
}

func New(svc *service.Service, view *cli.CLI) *CLIHandler {
	return &CLIHandler{
		svc:  svc,
		view: view,
	}
}

// GameID is the id of the game currently shown, "" before Start
func (h *CLIHandler) GameID() string {
	return h.gameID
}

// Start opens the session this terminal plays in
func (h *CLIHandler) Start(opts service.GameOptions) error {
	st, err := h.svc.CreateGame(opts)
	if err != nil {
		return err
	}
	h.attach(st.GameID)
	return nil
}

// attach switches the view to gameID and redraws it from the latest state
func (h *CLIHandler) attach(gameID string) {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.gameID = gameID
	h.unsubscribe = h.svc.Subscribe(transport.ViewListener(gameID, h.view))
	h.showBoard()
}

// Close detaches from the game. The session stays alive so the service can
// keep its autosave for a later 'continue'.
func (h *CLIHandler) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
}

// Run is the main loop, it returns when the user quits or input ends
func (h *CLIHandler) Run() {
	defer h.Close()
	for {
		cmd, err := h.view.GetCommand()
		if err != nil {
			log.Error().Err(err).Msg("failed to read command")
			break
		}
		if !h.ProcessCommand(cmd) {
			break
		}
	}
}

// ProcessCommand handles one user command - returns false to exit
func (h *CLIHandler) ProcessCommand(cmd *cli.Command) bool {
	switch cmd.Type {
	case cli.CmdQuit:
		return false

	case cli.CmdNone:

	case cli.CmdMove:
		h.handleMove(cmd.Args[0], cmd.Args[1])

	case cli.CmdRestart:
		h.handleRestart(cmd.Args)

	case cli.CmdHighlight:
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		on, err := h.svc.ToggleHighlighting(ctx, h.gameID)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Move highlighting: %t", on))

	case cli.CmdBoard:
		h.showBoard()

	case cli.CmdSave:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage("Usage: save <name>")
			return true
		}
		h.handleSave(strings.Join(cmd.Args, " "))

	case cli.CmdSaves:
		saves, err := h.svc.ListSaves(strings.Join(cmd.Args, " "))
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		resp := make([]core.SaveResponse, len(saves))
		for i, s := range saves {
			resp[i] = transport.NewSaveResponse(s)
		}
		h.view.ShowSaves(resp)

	case cli.CmdLoad:
		if len(cmd.Args) != 1 {
			h.view.ShowMessage("Usage: load <saveId>")
			return true
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		applied, _, err := h.svc.LoadSave(ctx, h.gameID, cmd.Args[0])
		h.reportRestart(applied, err)

	case cli.CmdResume:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage("Usage: resume <position>  (e.g. resume 8/8/2b5/3w4/8/8/8/8 b)")
			return true
		}
		h.handleResume(strings.Join(cmd.Args, " "))

	case cli.CmdContinue:
		h.handleContinue()

	case cli.CmdTheme:
		if len(cmd.Args) != 1 {
			h.view.ShowMessage("Usage: theme <off|brown|green|gray>")
			return true
		}
		theme := cli.ColorTheme(strings.ToLower(cmd.Args[0]))
		if err := h.view.SetTheme(theme); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		h.showBoard()

	case cli.CmdHelp:
		h.view.ShowHelp()

	default:
		h.view.ShowMessage(fmt.Sprintf("Unknown command %q. Type 'help' for commands.", cmd.Raw))
	}

	return true
}

func (h *CLIHandler) showBoard() {
	st, err := h.svc.GetGame(h.gameID)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.view.ShowBoard(st)
}

// handleMove submits a drag from one square to another. Rejections arrive as
// events, only command failures are reported here.
func (h *CLIHandler) handleMove(from, to string) {
	origin, err := board.ParseCoordinates(from)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	target, err := board.ParseCoordinates(to)
	if err != nil {
		h.view.ShowError(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if _, _, err := h.svc.Move(ctx, h.gameID, origin, target); err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			h.view.ShowError(err)
		default:
			h.view.ShowError(fmt.Errorf("move not accepted: %w", err))
		}
	}
}

// handleRestart takes optional "<team> <type>" pairs; each change restarts the
// game, with no pairs the game restarts from the opening
func (h *CLIHandler) handleRestart(args []string) {
	if len(args)%2 != 0 {
		h.view.ShowMessage("Usage: restart [black|white human|computer]...")
		return
	}

	type change struct {
		team       core.Team
		playerType core.PlayerType
	}
	var changes []change
	for i := 0; i < len(args); i += 2 {
		team, err := core.ParseTeam(args[i])
		if err != nil || team == core.TeamNone {
			h.view.ShowError(fmt.Errorf("invalid team %q (use black or white)", args[i]))
			return
		}
		playerType, err := core.ParsePlayerType(args[i+1])
		if err != nil {
			h.view.ShowError(err)
			return
		}
		changes = append(changes, change{team: team, playerType: playerType})
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if len(changes) == 0 {
		applied, _, err := h.svc.Restart(ctx, h.gameID, nil)
		h.reportRestart(applied, err)
		return
	}
	for _, c := range changes {
		applied, _, err := h.svc.ChangePlayer(ctx, h.gameID, c.team, c.playerType)
		if err != nil {
			h.view.ShowError(err)
			return
		}
		h.view.ShowMessage(fmt.Sprintf("%s is now played by the %s", c.team.Name(), c.playerType))
		if !applied {
			h.view.ShowMessage("The new game starts once the computer has moved.")
		}
	}
}

func (h *CLIHandler) handleResume(position string) {
	b, err := board.ParsePosition(position, h.svc.Rules())
	if err != nil {
		h.view.ShowError(err)
		return
	}
	data := b.Save()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	applied, _, err := h.svc.Restart(ctx, h.gameID, &data)
	h.reportRestart(applied, err)
}

func (h *CLIHandler) reportRestart(applied bool, err error) {
	switch {
	case err != nil:
		h.view.ShowError(err)
	case !applied:
		h.view.ShowMessage("Restart requested; it happens once the computer has moved.")
	default:
		h.view.ShowMessage("Game restarted.")
	}
}

func (h *CLIHandler) handleSave(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	rec, err := h.svc.Save(ctx, h.gameID, name)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			h.view.ShowMessage("Saving is disabled: start with a database path to enable it.")
			return
		}
		h.view.ShowError(err)
		return
	}
	h.view.ShowMessage(fmt.Sprintf("Saved %q as %s", rec.Name, rec.SaveID))
}

// handleContinue replaces the current session with the most recently
// autosaved one
func (h *CLIHandler) handleContinue() {
	previous := h.gameID
	st, err := h.svc.CreateGame(service.GameOptions{Continue: true})
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.attach(st.GameID)
	if previous != "" && previous != st.GameID {
		if err := h.svc.DeleteGame(previous); err != nil {
			log.Warn().Err(err).Str("game_id", previous).Msg("failed to close previous game")
		}
	}
	h.view.ShowMessage("Continuing the last unfinished game.")
}
