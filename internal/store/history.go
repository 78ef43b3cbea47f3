package store

import (
	"context"
	"fmt"
	"time"
)

// SQLiteHistory is a ConversationStore persisted in SQLite. It survives
// restarts but is meant for a single process.
type SQLiteHistory struct {
	db         *DB
	maxPerUser int
}

// NewSQLiteHistory creates a history store on db. maxPerUser of 0 keeps
// every message.
func NewSQLiteHistory(db *DB, maxPerUser int) *SQLiteHistory {
	if maxPerUser < 0 {
		maxPerUser = 0
	}
	return &SQLiteHistory{db: db, maxPerUser: maxPerUser}
}

// Append inserts message and trims the user's history to maxPerUser.
func (h *SQLiteHistory) Append(ctx context.Context, userID, message string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	tx, err := h.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO history (user_id, message, created_at) VALUES (?, ?, ?)",
		userID, message, time.Now().UTC().Format(time.DateTime),
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if h.maxPerUser > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE user_id = ? AND id NOT IN (
				SELECT id FROM history WHERE user_id = ? ORDER BY id DESC LIMIT ?
			)`,
			userID, userID, h.maxPerUser,
		); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}

	return tx.Commit()
}

// History returns the user's messages, oldest first.
func (h *SQLiteHistory) History(ctx context.Context, userID string) ([]string, error) {
	rows, err := h.db.sql.QueryContext(ctx,
		"SELECT message FROM history WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	msgs := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
