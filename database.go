package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow represents a pilot account record
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	IsGuest   bool
	CreatedAt time.Time
}

// RunRow represents one completed defense run
type RunRow struct {
	ID       int64
	PilotID  int64
	Score    int
	Wave     int
	Kills    int
	Duration float64
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		is_guest INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		best_wave INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pilot_id INTEGER REFERENCES pilots(id),
		score INTEGER NOT NULL DEFAULT 0,
		wave INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reward_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		pilot_id INTEGER,
		session_id TEXT,
		amount INTEGER NOT NULL DEFAULT 0,
		wave INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_pilot ON runs(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_reward_events_pilot ON reward_events(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_pilots_username ON pilots(username);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePilot creates a registered pilot account (returns pilot ID)
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateGuest creates a guest pilot (no password)
func (db *DB) CreateGuest(username string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, is_guest) VALUES (?, 1)",
		username,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByUsername returns a pilot by username, nil when absent
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_guest, created_at FROM pilots WHERE username = ?",
		username,
	)
	return scanPilot(row)
}

// GetPilotByID returns a pilot by ID, nil when absent
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_guest, created_at FROM pilots WHERE id = ?",
		id,
	)
	return scanPilot(row)
}

func scanPilot(row *sql.Row) (*PilotRow, error) {
	p := &PilotRow{}
	var guest int
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &guest, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	p.IsGuest = guest != 0
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordRun stores a completed run and refreshes the pilot's best score
func (db *DB) RecordRun(pilotID int64, score, wave, kills int, duration float64) error {
	pid := sql.NullInt64{Int64: pilotID, Valid: pilotID > 0}
	_, err := db.conn.Exec(
		"INSERT INTO runs (pilot_id, score, wave, kills, duration) VALUES (?, ?, ?, ?, ?)",
		pid, score, wave, kills, duration,
	)
	if err != nil {
		return err
	}
	if pilotID > 0 {
		_, err = db.conn.Exec(
			"UPDATE pilots SET best_score = ?, best_wave = ? WHERE id = ? AND best_score < ?",
			score, wave, pilotID, score,
		)
	}
	return err
}

// BestScore returns the pilot's persisted best score
func (db *DB) BestScore(pilotID int64) (int, error) {
	var best int
	err := db.conn.QueryRow("SELECT best_score FROM pilots WHERE id = ?", pilotID).Scan(&best)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return best, err
}

// GetLeaderboard returns the top registered pilots by best score
func (db *DB) GetLeaderboard(limit int) ([]ScoreEntry, error) {
	rows, err := db.conn.Query(`
		SELECT username, best_score, best_wave FROM pilots
		WHERE is_guest = 0 AND best_score > 0
		ORDER BY best_score DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScoreEntry
	rank := 1
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Wave); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// RewardTotal returns the sum of reward tokens credited to a pilot
func (db *DB) RewardTotal(pilotID int64) (int, error) {
	var total sql.NullInt64
	err := db.conn.QueryRow(`
		SELECT SUM(amount) FROM reward_events
		WHERE pilot_id = ? AND event_type IN (?, ?, ?)`,
		pilotID, RewardKill, RewardDeploy, RewardWaveClear,
	).Scan(&total)
	return int(total.Int64), err
}

// GetSetting returns a settings value, empty when absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
