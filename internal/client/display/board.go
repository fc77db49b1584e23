package display

import (
	"fmt"
	"io"
	"strings"
)

// RenderBoard prints the server's ASCII board with styled units and axis labels
func RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(asciiBoard, "\n")
	last := len(lines) - 1

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i == 0 || i == last {
			fmt.Fprintln(w, Info.Render(line))
			continue
		}

		var sb strings.Builder
		for j, char := range line {
			switch {
			case char == 'b' || char == 'B':
				sb.WriteString(blackUnit.Render(string(char)))
			case char == 'w' || char == 'W':
				sb.WriteString(whiteUnit.Render(string(char)))
			case char >= '0' && char <= '9' && (j == 0 || j == len(line)-1):
				// Row numbers
				sb.WriteString(Info.Render(string(char)))
			default:
				sb.WriteRune(char)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}
