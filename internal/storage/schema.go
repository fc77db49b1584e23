package storage

import (
	"time"

	"checkers/internal/board"
	"checkers/internal/core"
)

// SaveRecord represents a row in the saves table
type SaveRecord struct {
	SaveID    string          `db:"save_id"`
	Name      string          `db:"name"`
	GameID    string          `db:"game_id"`
	Position  string          `db:"position"`
	Data      board.SaveData  `db:"units_json"`
	BlackType core.PlayerType `db:"black_type"`
	WhiteType core.PlayerType `db:"white_type"`
	CreatedAt time.Time       `db:"created_at"`
}

// AutosaveRecord represents the latest turn-boundary state of a live game
type AutosaveRecord struct {
	GameID    string          `db:"game_id"`
	Position  string          `db:"position"`
	Data      board.SaveData  `db:"units_json"`
	BlackType core.PlayerType `db:"black_type"`
	WhiteType core.PlayerType `db:"white_type"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS saves (
	save_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	game_id TEXT NOT NULL,
	turn TEXT NOT NULL CHECK(turn IN ('b', 'w')),
	position TEXT NOT NULL,
	units_json TEXT NOT NULL,
	black_type INTEGER NOT NULL CHECK(black_type IN (1, 2)),
	white_type INTEGER NOT NULL CHECK(white_type IN (1, 2)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_saves_name ON saves(name);
CREATE INDEX IF NOT EXISTS idx_saves_created_at ON saves(created_at);

CREATE TABLE IF NOT EXISTS autosaves (
	game_id TEXT PRIMARY KEY,
	turn TEXT NOT NULL CHECK(turn IN ('b', 'w')),
	position TEXT NOT NULL,
	units_json TEXT NOT NULL,
	black_type INTEGER NOT NULL,
	white_type INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
