package board

import (
	"fmt"
	"strconv"
	"strings"
)

// BoardSize is the number of cells along each axis
const BoardSize = 8

// PlaySquareParity is the (x+y)%2 value of squares units may rest on
const PlaySquareParity = 0

// Coordinates addresses a cell. Values outside the grid are kept so that
// off-board drops can be reported back to the player.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinates) IsOutsideBoard() bool {
	return c.X < 0 || c.X >= BoardSize || c.Y < 0 || c.Y >= BoardSize
}

func (c Coordinates) IsPlaySquare() bool {
	p := (c.X + c.Y) % 2
	if p < 0 {
		p = -p
	}
	return p == PlaySquareParity
}

func (c Coordinates) Offset(dx, dy int) Coordinates {
	return Coordinates{X: c.X + dx, Y: c.Y + dy}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Algebraic renders on-board coordinates as file letter and rank number (x=2,y=0 is "c1")
func (c Coordinates) Algebraic() string {
	if c.IsOutsideBoard() {
		return c.String()
	}
	return fmt.Sprintf("%c%d", 'a'+c.X, c.Y+1)
}

func (c Coordinates) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coordinates) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinates(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCoordinates accepts "x,y" (any integers) or algebraic "c3"
func ParseCoordinates(s string) (Coordinates, error) {
	s = strings.TrimSpace(s)
	if x, y, ok := strings.Cut(s, ","); ok {
		cx, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return Coordinates{}, fmt.Errorf("invalid x coordinate %q: %w", x, err)
		}
		cy, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return Coordinates{}, fmt.Errorf("invalid y coordinate %q: %w", y, err)
		}
		return Coordinates{X: cx, Y: cy}, nil
	}

	s = strings.ToLower(s)
	if len(s) != 2 || s[0] < 'a' || s[0] > 'a'+BoardSize-1 || s[1] < '1' || s[1] > '0'+BoardSize {
		return Coordinates{}, fmt.Errorf("invalid coordinates %q: use x,y or a1-h8", s)
	}
	return Coordinates{X: int(s[0] - 'a'), Y: int(s[1] - '1')}, nil
}
