package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"checkers/internal/client/api"
	"checkers/internal/client/display"
	"checkers/internal/core"
)

// ErrExit is returned by Execute when the user asks to leave
var ErrExit = errors.New("exit")

// Session is the client's view of the server and the game it follows
type Session struct {
	APIBaseURL  string
	Client      *api.Client
	CurrentGame string
	GameState   *core.GameResponse
	Verbose     bool
	Out         io.Writer
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(*Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  *Session
	commands map[string]*Command
	groups   []group
}

type group struct {
	title string
	names []string
}

func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerSaveCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})
	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Handler: func(*Session, []string) error {
			return ErrExit
		},
	})
	r.addGroup("Utility Commands", "help", "exit")

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

func (r *Registry) addGroup(title string, names ...string) {
	for i := range r.groups {
		if r.groups[i].title == title {
			r.groups[i].names = append(r.groups[i].names, names...)
			return
		}
	}
	r.groups = append(r.groups, group{title: title, names: names})
}

// Execute runs one input line. Command failures are printed; only ErrExit is returned.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, exists := r.commands[parts[0]]
	if !exists {
		r.printf("%s\n", display.Failure.Render("Unknown command: "+parts[0]))
		r.printf("Type 'help' for available commands\n")
		return nil
	}

	r.session.Client.SetVerbose(r.session.Verbose)

	err := cmd.Handler(r.session, parts[1:])
	if errors.Is(err, ErrExit) {
		return err
	}
	if err != nil {
		r.printf("%s\n", display.Failure.Render("Error: "+err.Error()))
	}
	return nil
}

func (r *Registry) printf(format string, args ...any) {
	fmt.Fprintf(r.session.Out, format, args...)
}

func (r *Registry) helpHandler(s *Session, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		r.printf("\n%s - %s\n", display.Info.Render(cmd.Name), cmd.Description)
		if cmd.ShortName != "" {
			r.printf("Short form: %s\n", display.Info.Render(cmd.ShortName))
		}
		r.printf("Usage: %s\n", cmd.Usage)
		return nil
	}

	r.printf("\n%s\n", display.Info.Render("Available Commands:"))
	for _, g := range r.groups {
		r.printf("\n%s\n", display.Accent.Render(g.title+":"))
		names := append([]string(nil), g.names...)
		sort.Strings(names)
		for _, name := range names {
			cmd := r.commands[name]
			short := "   "
			if cmd.ShortName != "" {
				short = "[" + display.Info.Render(cmd.ShortName) + "]"
			}
			r.printf("  %s %-10s %s\n", short, cmd.Name, cmd.Description)
		}
	}

	r.printf("\nType 'help <command>' for detailed usage\n")
	r.printf("Add '-v' to any command for verbose output\n")
	return nil
}

// requireGame returns the current game id or an error telling the user how to get one
func requireGame(s *Session) (string, error) {
	if s.CurrentGame == "" {
		return "", errors.New("no current game: use 'new' or 'join <gameId>'")
	}
	return s.CurrentGame, nil
}
