package display

import "github.com/charmbracelet/lipgloss"

// Terminal styles; they render plain text when stdout has no colour support
var (
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	Request = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	Accent  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Label   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))

	blackUnit = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	whiteUnit = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
)

// Prompt returns a styled prompt string
func Prompt(text string) string {
	return Accent.Render(text+" >") + " "
}

// ColorForTurn returns a styled turn indicator for "b" or "w"
func ColorForTurn(turn string) string {
	if turn == "w" {
		return whiteUnit.Render("White")
	}
	return blackUnit.Render("Black")
}
