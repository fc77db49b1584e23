package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"checkers/internal/board"
)

// CreateSave synchronously records a named save
func (s *Store) CreateSave(record SaveRecord) error {
	units, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to encode save: %w", err)
	}

	query := `INSERT INTO saves (
		save_id, name, game_id, turn, position, units_json, black_type, white_type, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		record.SaveID, record.Name, record.GameID, record.Data.Turn.String(), record.Position,
		string(units), int(record.BlackType), int(record.WhiteType), record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create save: %w", err)
	}
	return nil
}

// GetSave retrieves a save by ID
func (s *Store) GetSave(saveID string) (*SaveRecord, error) {
	records, err := s.QuerySaves(saveID, "")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrSaveNotFound
	}
	return &records[0], nil
}

// QuerySaves retrieves saves with optional filtering; "" or "*" matches anything
func (s *Store) QuerySaves(saveID, name string) ([]SaveRecord, error) {
	query := `SELECT
		save_id, name, game_id, position, units_json, black_type, white_type, created_at
	FROM saves WHERE 1=1`

	var args []interface{}

	if saveID != "" && saveID != "*" {
		query += " AND save_id = ?"
		args = append(args, saveID)
	}

	if name != "" && name != "*" {
		query += " AND name = ? COLLATE NOCASE"
		args = append(args, name)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var saves []SaveRecord
	for rows.Next() {
		var r SaveRecord
		var units string
		err := rows.Scan(
			&r.SaveID, &r.Name, &r.GameID, &r.Position, &units,
			&r.BlackType, &r.WhiteType, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if r.Data, err = decodeUnits(units); err != nil {
			return nil, fmt.Errorf("save %s: %w", r.SaveID, err)
		}
		saves = append(saves, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return saves, nil
}

// DeleteSave synchronously removes a save
func (s *Store) DeleteSave(saveID string) error {
	res, err := s.db.Exec(`DELETE FROM saves WHERE save_id = ?`, saveID)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSaveNotFound
	}
	return nil
}

// UpsertAutosave asynchronously replaces the autosave of a game
func (s *Store) UpsertAutosave(record AutosaveRecord) {
	units, err := json.Marshal(record.Data)
	if err != nil {
		return
	}

	s.enqueue("autosave", func(tx *sql.Tx) error {
		query := `INSERT INTO autosaves (
			game_id, turn, position, units_json, black_type, white_type, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			turn = excluded.turn,
			position = excluded.position,
			units_json = excluded.units_json,
			black_type = excluded.black_type,
			white_type = excluded.white_type,
			updated_at = excluded.updated_at`

		_, err := tx.Exec(query,
			record.GameID, record.Data.Turn.String(), record.Position, string(units),
			int(record.BlackType), int(record.WhiteType), record.UpdatedAt.UTC(),
		)
		return err
	})
}

// DeleteAutosave asynchronously removes the autosave of a game
func (s *Store) DeleteAutosave(gameID string) {
	s.enqueue("delete autosave", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM autosaves WHERE game_id = ?`, gameID)
		return err
	})
}

// GetAutosave retrieves the autosave of a game
func (s *Store) GetAutosave(gameID string) (*AutosaveRecord, error) {
	var r AutosaveRecord
	var units string

	query := `SELECT game_id, position, units_json, black_type, white_type, updated_at
		FROM autosaves WHERE game_id = ?`
	err := s.db.QueryRow(query, gameID).Scan(
		&r.GameID, &r.Position, &units, &r.BlackType, &r.WhiteType, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get autosave: %w", err)
	}
	if r.Data, err = decodeUnits(units); err != nil {
		return nil, fmt.Errorf("autosave %s: %w", gameID, err)
	}
	return &r, nil
}

// LatestAutosave retrieves the most recently updated autosave of any game
func (s *Store) LatestAutosave() (*AutosaveRecord, error) {
	var gameID string
	err := s.db.QueryRow(`SELECT game_id FROM autosaves ORDER BY updated_at DESC LIMIT 1`).Scan(&gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest autosave: %w", err)
	}
	return s.GetAutosave(gameID)
}

func decodeUnits(units string) (board.SaveData, error) {
	var data board.SaveData
	if err := json.Unmarshal([]byte(units), &data); err != nil {
		return board.SaveData{}, fmt.Errorf("invalid units data: %w", err)
	}
	return data, nil
}
