package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"checkers/internal/client/display"
	"checkers/internal/core"
)

func (r *Registry) registerSaveCommands() {
	r.Register(&Command{
		Name:        "save",
		ShortName:   "sv",
		Description: "Save the current game under a name",
		Usage:       "save <name>",
		Handler:     saveHandler,
	})

	r.Register(&Command{
		Name:        "saves",
		ShortName:   "ls",
		Description: "List saves",
		Usage:       "saves [name]",
		Handler:     listSavesHandler,
	})

	r.Register(&Command{
		Name:        "load",
		ShortName:   "ld",
		Description: "Restart the current game from a save",
		Usage:       "load <saveId>",
		Handler:     loadHandler,
	})

	r.Register(&Command{
		Name:        "unsave",
		ShortName:   "us",
		Description: "Delete a save",
		Usage:       "unsave <saveId>",
		Handler:     unsaveHandler,
	})

	r.addGroup("Save Commands", "save", "saves", "load", "unsave")
}

func saveHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: save <name>")
	}

	resp, err := s.Client.SaveGame(gameID, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%s\n", display.Success.Render(fmt.Sprintf("Saved %q as %s", resp.Name, resp.SaveID)))
	return nil
}

func listSavesHandler(s *Session, args []string) error {
	resp, err := s.Client.ListSaves(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(resp.Saves) == 0 {
		fmt.Fprintln(s.Out, "No saves found")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Save ID\tName\tTurn\tPlayers\tCreated")
	for _, save := range resp.Saves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\n",
			save.SaveID, save.Name, save.Turn, save.Players.Black, save.Players.White,
			save.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func loadHandler(s *Session, args []string) error {
	gameID, err := requireGame(s)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: load <saveId>")
	}

	resp, err := s.Client.Restart(gameID, &core.RestartRequest{SaveID: args[0]})
	if err != nil {
		return err
	}
	follow(s, &resp.Game)
	reportApplied(s, resp.Applied)
	printSummary(s, &resp.Game)
	return nil
}

func unsaveHandler(s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unsave <saveId>")
	}
	if err := s.Client.DeleteSave(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%s\n", display.Success.Render("Save deleted: "+args[0]))
	return nil
}
