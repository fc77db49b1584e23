// Package main implements an interactive debugging client for the checkers HTTP API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"checkers/internal/client/api"
	"checkers/internal/client/commands"
	"checkers/internal/client/display"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "API base URL")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("checkers"),
		HistoryFile:     ".checkers_client_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, display.Failure.Render(err.Error()))
		os.Exit(1)
	}
	defer rl.Close()

	client := api.New(*apiURL)
	client.Out = rl.Stdout()
	s := &commands.Session{
		APIBaseURL: *apiURL,
		Client:     client,
		Out:        rl.Stdout(),
	}

	fmt.Fprintln(s.Out, display.Info.Render("Checkers Debug Client"))
	fmt.Fprintln(s.Out, display.Info.Render("API: "+s.APIBaseURL))
	fmt.Fprint(s.Out, "Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Check for verbose flag
		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")

		if errors.Is(registry.Execute(line), commands.ErrExit) {
			fmt.Fprintln(s.Out, display.Info.Render("Goodbye!"))
			break
		}
	}
}

func buildPrompt(s *commands.Session) string {
	promptStr := "checkers"
	if s.CurrentGame != "" {
		promptStr += " [" + display.Label.Render(s.CurrentGame[:8]) + "]"
	}

	if g := s.GameState; g != nil {
		if g.Winner != "" {
			promptStr += " - Over:" + display.ColorForTurn(g.Winner)
		} else {
			playerType := g.Players.Black
			if g.Turn == "w" {
				playerType = g.Players.White
			}
			promptStr += fmt.Sprintf(" - Turn:%s(%c)", display.ColorForTurn(g.Turn), playerType[0])
		}
	}

	return display.Prompt(promptStr)
}
