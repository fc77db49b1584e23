package core

import "time"

// Request types

type PlayerConfig struct {
	Type PlayerType `json:"type" validate:"required,oneof=1 2"`
}

type CreateGameRequest struct {
	Black    PlayerConfig `json:"black"`
	White    PlayerConfig `json:"white"`
	Position string       `json:"position,omitempty" validate:"omitempty,max=100"`
	SaveID   string       `json:"saveId,omitempty" validate:"omitempty,uuid"`
	Continue bool         `json:"continue,omitempty"` // Resume the latest autosave
}

// RestartRequest starts over in place; an empty body means the standard opening
type RestartRequest struct {
	Position string `json:"position,omitempty" validate:"omitempty,max=100,excluded_with=SaveID"`
	SaveID   string `json:"saveId,omitempty" validate:"omitempty,uuid"`
}

// CoordinatesDTO allows off-board values: a drop outside the grid is a legal input
type CoordinatesDTO struct {
	X int `json:"x" validate:"min=-64,max=64"`
	Y int `json:"y" validate:"min=-64,max=64"`
}

type MoveRequest struct {
	Origin CoordinatesDTO `json:"origin"`
	Target CoordinatesDTO `json:"target"`
}

type ChangePlayerRequest struct {
	Team string     `json:"team" validate:"required,oneof=black white b w"`
	Type PlayerType `json:"type" validate:"required,oneof=1 2"`
}

type SaveRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

// Response types

type GameResponse struct {
	GameID               string          `json:"gameId"`
	Version              uint64          `json:"version"`
	State                string          `json:"state"`
	Turn                 string          `json:"turn"`             // "b" or "w"
	Winner               string          `json:"winner,omitempty"` // "b" or "w" once over
	Position             string          `json:"position"`
	Units                []UnitInfo      `json:"units"`
	PossibleMoves        []MoveInfo      `json:"possibleMoves"`
	Highlighted          []MoveInfo      `json:"highlighted,omitempty"`
	UnitInMotion         *CoordinatesDTO `json:"unitInMotion,omitempty"`
	Players              PlayersResponse `json:"players"`
	UserMoveHighlighting bool            `json:"userMoveHighlighting"`
	RestartPending       bool            `json:"restartPending,omitempty"`
}

type PlayersResponse struct {
	Black string `json:"black"`
	White string `json:"white"`
}

type UnitInfo struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Team string `json:"team"`
	Rank string `json:"rank"`
}

type MoveInfo struct {
	Origin CoordinatesDTO `json:"origin"`
	Target CoordinatesDTO `json:"target"`
	Type   string         `json:"type"`
	Error  string         `json:"error,omitempty"` // InvalidMoveError code for rejected input
}

type MoveResponse struct {
	Accepted bool         `json:"accepted"`
	Move     MoveInfo     `json:"move"`
	Game     GameResponse `json:"game"`
}

type ChangePlayerResponse struct {
	Applied bool         `json:"applied"` // false when deferred behind a computer move
	Game    GameResponse `json:"game"`
}

type HighlightResponse struct {
	UserMoveHighlighting bool `json:"userMoveHighlighting"`
}

type SaveResponse struct {
	SaveID    string          `json:"saveId"`
	Name      string          `json:"name"`
	GameID    string          `json:"gameId"`
	Turn      string          `json:"turn"`
	Position  string          `json:"position"`
	Players   PlayersResponse `json:"players"`
	CreatedAt time.Time       `json:"createdAt"`
}

type RestartResponse struct {
	Applied bool         `json:"applied"` // false when deferred behind a computer move
	Game    GameResponse `json:"game"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"` // "ok", "degraded" or "disabled"
	Games   int    `json:"games"`
}

type SaveListResponse struct {
	Saves []SaveResponse `json:"saves"`
}

type BoardResponse struct {
	Position string `json:"position"`
	Board    string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
