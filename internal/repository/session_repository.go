// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/martlaht/ferrywatch/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// SessionRepository defines the interface for watch session persistence.
// Save overwrites the whole snapshot; Load returns everything that was
// saved. The scheduling handles of live sessions are never stored.
type SessionRepository interface {
	Save(sessions []entities.WatchSession) error
	Load() ([]entities.WatchSession, error)
	Clear() error
	Close() error
}

// SQLiteSessionRepository implements SessionRepository using SQLite
type SQLiteSessionRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteSessionRepository creates and initializes a new SQLite repository
func NewSQLiteSessionRepository(dbPath string) (*SQLiteSessionRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "ferrywatch.db")
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	log.Printf("Opening session database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// Create watch_sessions table if it doesn't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS watch_sessions (
		id TEXT PRIMARY KEY,
		departure_uid TEXT NOT NULL,
		direction TEXT NOT NULL,
		departure_date TEXT NOT NULL,
		departure_time TEXT NOT NULL,
		route TEXT NOT NULL,
		threshold INTEGER NOT NULL,
		channel TEXT NOT NULL,
		telegram_bot_token TEXT,
		telegram_chat_id TEXT,
		last_checked_capacity INTEGER NOT NULL DEFAULT 0,
		last_notification_sent TEXT,
		last_capacity_check TEXT,
		active INTEGER NOT NULL,
		created_at TEXT
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteSessionRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteSessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save replaces the persisted snapshot with the given session set
func (r *SQLiteSessionRepository) Save(sessions []entities.WatchSession) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if _, err := tx.Exec("DELETE FROM watch_sessions"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear previous snapshot: %v", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO watch_sessions(
			id, departure_uid, direction, departure_date, departure_time,
			route, threshold, channel, telegram_bot_token, telegram_chat_id,
			last_checked_capacity, last_notification_sent, last_capacity_check,
			active, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		_, err := stmt.Exec(
			s.ID,
			s.DepartureUID,
			s.Direction,
			s.DepartureDate,
			s.DepartureTime,
			s.Route,
			s.Threshold,
			string(s.Channel),
			s.TelegramBotToken,
			s.TelegramChatID,
			s.LastCheckedCapacity,
			formatTimestamp(s.LastNotificationSent),
			formatTimestamp(s.LastCapacityCheck),
			boolToInt(s.Active),
			formatTimestamp(s.CreatedAt),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert session %s: %v", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Persisted %d watch sessions", len(sessions))
	return nil
}

// Load returns all persisted sessions. A snapshot that cannot be parsed is
// treated as "no sessions" and the store is cleared.
func (r *SQLiteSessionRepository) Load() ([]entities.WatchSession, error) {
	rows, err := r.db.Query(`
		SELECT id, departure_uid, direction, departure_date, departure_time,
			route, threshold, channel, telegram_bot_token, telegram_chat_id,
			last_checked_capacity, last_notification_sent, last_capacity_check,
			active, created_at
		FROM watch_sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %v", err)
	}
	defer rows.Close()

	var result []entities.WatchSession
	for rows.Next() {
		var s entities.WatchSession
		var channel string
		var lastNotification, lastCheck, createdAt sql.NullString
		var active int
		if err := rows.Scan(
			&s.ID,
			&s.DepartureUID,
			&s.Direction,
			&s.DepartureDate,
			&s.DepartureTime,
			&s.Route,
			&s.Threshold,
			&channel,
			&s.TelegramBotToken,
			&s.TelegramChatID,
			&s.LastCheckedCapacity,
			&lastNotification,
			&lastCheck,
			&active,
			&createdAt,
		); err != nil {
			log.Printf("Malformed session snapshot, clearing store: %v", err)
			rows.Close()
			r.Clear()
			return nil, nil
		}
		s.Channel = entities.ChannelType(channel)
		s.Active = active != 0
		var parseErr error
		if s.LastNotificationSent, parseErr = parseTimestamp(lastNotification); parseErr == nil {
			if s.LastCapacityCheck, parseErr = parseTimestamp(lastCheck); parseErr == nil {
				s.CreatedAt, parseErr = parseTimestamp(createdAt)
			}
		}
		if parseErr != nil {
			log.Printf("Malformed timestamp in session %s, clearing store: %v", s.ID, parseErr)
			rows.Close()
			r.Clear()
			return nil, nil
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return result, nil
}

// Clear removes every persisted session
func (r *SQLiteSessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM watch_sessions"); err != nil {
		return fmt.Errorf("failed to clear sessions: %v", err)
	}
	log.Println("Cleared persisted watch sessions")
	return nil
}

// formatTimestamp stores times as RFC3339; the zero time becomes an empty
// string so it survives a round-trip as a zero time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %v", v.String, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
