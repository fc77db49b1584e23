package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"checkers/internal/board"
	"checkers/internal/core"
	"checkers/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"golang.org/x/term"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdMove
	CmdRestart
	CmdHighlight
	CmdBoard
	CmdSave
	CmdSaves
	CmdLoad
	CmdResume
	CmdContinue
	CmdTheme
	CmdHelp
	CmdQuit
	CmdUnknown
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	light     lipgloss.Color
	dark      lipgloss.Color
	highlight lipgloss.Color
	black     lipgloss.Color
	white     lipgloss.Color
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		light:     "230", // Beige
		dark:      "94",  // Brown
		highlight: "136",
		black:     "0",
		white:     "15",
	},
	ThemeGreen: {
		light:     "157", // Light green
		dark:      "22",  // Dark green
		highlight: "34",
		black:     "0",
		white:     "15",
	},
	ThemeGray: {
		light:     "251", // Light gray
		dark:      "240", // Dark gray
		highlight: "67",
		black:     "0",
		white:     "15",
	},
}

// LineReader is the input side of the terminal. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// scannerReader reads plain lines, used when input is not a terminal
type scannerReader struct {
	sc     *bufio.Scanner
	out    io.Writer
	prompt string
}

func (r *scannerReader) Readline() (string, error) {
	fmt.Fprint(r.out, r.prompt)
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scannerReader) SetPrompt(prompt string) { r.prompt = prompt }
func (r *scannerReader) Close() error           { return nil }

// CLI is the terminal view. Show methods may be called from game goroutines
// while the input loop is blocked in GetCommand.
type CLI struct {
	mu       sync.Mutex
	input    LineReader
	output   io.Writer
	renderer *lipgloss.Renderer
	theme    ColorTheme

	turn     core.Team
	turnType core.PlayerType
	over     bool
}

func New(input io.Reader, output io.Writer) *CLI {
	return newCLI(&scannerReader{sc: bufio.NewScanner(input), out: output}, output, ThemeOff)
}

// NewTerminal reads commands through readline with persistent history.
// Board colours are enabled when stdout is a terminal.
func NewTerminal(historyFile string) (*CLI, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	theme := ThemeOff
	if term.IsTerminal(int(os.Stdout.Fd())) {
		theme = ThemeBrown
	}
	return newCLI(rl, rl.Stdout(), theme), nil
}

func newCLI(input LineReader, output io.Writer, theme ColorTheme) *CLI {
	c := &CLI{
		input:    input,
		output:   output,
		renderer: lipgloss.NewRenderer(output),
		theme:    theme,
	}
	c.input.SetPrompt(c.prompt())
	return c
}

func (c *CLI) Close() error {
	return c.input.Close()
}

// GetCommand reads a command synchronously
func (c *CLI) GetCommand() (*Command, error) {
	line, err := c.input.Readline()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return &Command{Type: CmdQuit}, nil
		}
		return nil, err
	}

	input := strings.TrimSpace(line)
	if input == "" {
		return &Command{Type: CmdNone}, nil
	}
	return ParseCommand(input), nil
}

// ParseCommand maps a line to a command. Anything that is not a keyword and
// reads as two squares ("c3 d4", "c3-d4", "2,2 3,3") is a move.
func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "restart", "new":
		return &Command{Type: CmdRestart, Args: args, Raw: input}
	case "highlight":
		return &Command{Type: CmdHighlight}
	case "board":
		return &Command{Type: CmdBoard}
	case "save":
		return &Command{Type: CmdSave, Args: args, Raw: input}
	case "saves":
		return &Command{Type: CmdSaves, Args: args}
	case "load":
		return &Command{Type: CmdLoad, Args: args}
	case "resume":
		return &Command{Type: CmdResume, Args: args, Raw: input}
	case "continue":
		return &Command{Type: CmdContinue}
	case "theme", "color":
		return &Command{Type: CmdTheme, Args: args}
	case "help", "?":
		return &Command{Type: CmdHelp}
	case "quit", "exit":
		return &Command{Type: CmdQuit}
	}

	if len(parts) == 1 {
		if from, to, ok := strings.Cut(parts[0], "-"); ok && from != "" && to != "" {
			parts = []string{from, to}
		}
	}
	if len(parts) == 2 {
		return &Command{Type: CmdMove, Args: parts, Raw: input}
	}
	return &Command{Type: CmdUnknown, Raw: input}
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
	return nil
}

func (c *CLI) Theme() ColorTheme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

func (c *CLI) prompt() string {
	switch {
	case c.turn == core.TeamNone:
		return "> "
	case c.over:
		return "[game over]> "
	case c.turnType == core.PlayerComputer:
		return fmt.Sprintf("[%s thinking]> ", c.turn)
	default:
		return fmt.Sprintf("[%s]> ", c.turn)
	}
}

func (c *CLI) print(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.print(msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("Error: %v", err))
}

func (c *CLI) ShowBoard(st service.GameState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := st.Snapshot
	c.turn = snap.Turn
	c.turnType = snap.PlayerType(snap.Turn)
	c.over = snap.State == core.StateGameOver
	c.input.SetPrompt(c.prompt())

	c.print(c.renderBoard(st))
}

func (c *CLI) ShowRejected(m board.Move) {
	c.ShowMessage(fmt.Sprintf("Rejected %s -> %s: %s", square(m.Origin), square(m.Target), m.Explanation))
}

func (c *CLI) ShowComputerMove(m board.Move) {
	c.ShowMessage(fmt.Sprintf("Computer plays %s", moveText(m)))
}

func (c *CLI) ShowTurn(team core.Team) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if team != c.turn {
		c.turn = team
		c.turnType = 0
	}
	c.input.SetPrompt(c.prompt())
	c.print(fmt.Sprintf("%s to move", team.Name()))
}

func (c *CLI) ShowGameOver(winner core.Team) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.over = true
	c.input.SetPrompt(c.prompt())
	c.print(fmt.Sprintf("\nGame over: %s wins. A new game starts shortly; 'restart' starts one now.", winner.Name()))
}

func (c *CLI) ShowSaves(saves []core.SaveResponse) {
	if len(saves) == 0 {
		c.ShowMessage("No saves.")
		return
	}
	var sb strings.Builder
	for _, s := range saves {
		sb.WriteString(fmt.Sprintf("%s  %-16s %s to move  %s/%s  %s\n",
			s.SaveID, s.Name, s.Turn, s.Players.Black, s.Players.White, s.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	c.ShowMessage(strings.TrimRight(sb.String(), "\n"))
}

// renderBoard draws rank 8 at the top so Black, starting on ranks 1-3, plays up the screen
func (c *CLI) renderBoard(st service.GameState) string {
	snap := st.Snapshot
	colors := themes[c.theme]
	styled := c.theme != ThemeOff

	marked := make(map[board.Coordinates]bool)
	for _, m := range snap.Highlighted {
		marked[m.Origin] = true
		marked[m.Target] = true
	}
	if snap.UnitInMotion != nil {
		marked[*snap.UnitInMotion] = true
	}

	var sb strings.Builder
	sb.WriteString("\n  a b c d e f g h\n")
	for y := board.BoardSize - 1; y >= 0; y-- {
		sb.WriteString(fmt.Sprintf("%d ", y+1))
		for x := 0; x < board.BoardSize; x++ {
			pos := board.Coordinates{X: x, Y: y}
			cell := "  "
			unit, occupied := snap.Units.Units[pos]
			switch {
			case occupied:
				cell = string(unitSymbol(unit)) + " "
			case marked[pos]:
				cell = "* "
			case pos.IsPlaySquare():
				cell = ". "
			}

			if !styled {
				sb.WriteString(cell)
				continue
			}
			if !occupied && pos.IsPlaySquare() {
				cell = "  "
				if marked[pos] {
					cell = "* "
				}
			}

			style := c.renderer.NewStyle().Background(colors.light)
			if pos.IsPlaySquare() {
				style = style.Background(colors.dark)
			}
			if marked[pos] {
				style = style.Background(colors.highlight)
			}
			if occupied {
				fg := colors.black
				if unit.Team == core.TeamWhite {
					fg = colors.white
				}
				style = style.Foreground(fg).Bold(unit.Rank == board.RankKing)
			}
			sb.WriteString(style.Render(cell))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", y+1))
	}
	sb.WriteString("  a b c d e f g h\n")
	sb.WriteString(c.status(snap.State, snap.Turn, snap.Winner, snap.PlayerType(snap.Turn), snap.UnitInMotion))

	if len(snap.Highlighted) > 0 {
		moves := make([]string, len(snap.Highlighted))
		for i, m := range snap.Highlighted {
			moves[i] = moveText(m)
		}
		sort.Strings(moves)
		sb.WriteString("\nMoves: " + strings.Join(moves, ", "))
	}
	return sb.String()
}

func (c *CLI) status(state core.State, turn, winner core.Team, playerType core.PlayerType, inMotion *board.Coordinates) string {
	switch state {
	case core.StateGameOver:
		return fmt.Sprintf("Game over: %s wins", winner.Name())
	case core.StateTurnContinues:
		if inMotion != nil {
			return fmt.Sprintf("%s must keep capturing with %s", turn.Name(), square(*inMotion))
		}
		return fmt.Sprintf("%s must keep capturing", turn.Name())
	default:
		return fmt.Sprintf("%s (%s) to move", turn.Name(), playerType)
	}
}

func unitSymbol(u board.UnitData) byte {
	sym := byte('b')
	if u.Team == core.TeamWhite {
		sym = 'w'
	}
	if u.Rank == board.RankKing {
		sym -= 'a' - 'A'
	}
	return sym
}

func square(c board.Coordinates) string {
	if c.IsOutsideBoard() {
		return "(" + c.String() + ")"
	}
	return c.Algebraic()
}

func moveText(m board.Move) string {
	sep := "-"
	if m.Type == board.MoveJump {
		sep = "x"
	}
	return square(m.Origin) + sep + square(m.Target)
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  <from> <to>              - Move a unit (e.g. c3 d4, c3-d4 or 2,2 3,3)
  restart [team type]...   - New game, optionally changing players
                             (e.g. restart white computer black human)
  highlight                - Toggle legal move highlighting
  board                    - Show the board again
  save <name>              - Save the current position
  saves [name]             - List saves
  load <saveId>            - Restart from a save
  resume <position>        - Restart from a position (e.g. resume 8/8/2b5/3w4/8/8/8/8 b)
  continue                 - Resume the most recent unfinished game
  theme <name>             - Board colours (off|brown|green|gray)
  quit/exit                - Exit the program
  help/?                   - Show this help message

Squares are algebraic with a1 bottom left, or x,y from 0,0.`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage("Welcome to Checkers!")
	c.ShowMessage("Black moves first. Type 'help' for commands.")
	c.ShowMessage("")
}
