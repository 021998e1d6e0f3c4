package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloutcoin/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("not found")

// Database represents a connection to the SQLite database
type Database struct {
	db *sql.DB
}

// New creates a new Database instance and initializes the schema
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			description TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			extra TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_user ON operations(user_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query: %w\nQuery: %s", err, query)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Put stores value under key, replacing any previous value
func (d *Database) Put(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

// Get returns the value stored under key or ErrNotFound
func (d *Database) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes the given keys in one transaction. Missing keys are ignored.
func (d *Database) Delete(ctx context.Context, keys ...string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM kv WHERE key = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddOperation adds a new operation to the database
func (d *Database) AddOperation(ctx context.Context, op *model.Operation) error {
	var extraJSON []byte
	if op.Extra != nil {
		var err error
		extraJSON, err = json.Marshal(op.Extra)
		if err != nil {
			return err
		}
	}

	createdAt := op.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO operations (session_id, user_id, type, amount, description, created_at, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, op.SessionID, op.UserID, op.Type, op.Amount, op.Description, createdAt, extraJSON)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	op.ID = id
	op.CreatedAt = createdAt
	return nil
}

// GetUserOperations retrieves user operations with pagination, newest first
func (d *Database) GetUserOperations(ctx context.Context, userID string, page, pageSize int) (*model.OperationHistory, error) {
	var total int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operations WHERE user_id = ?", userID).Scan(&total)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, type, amount, description, created_at, extra
		FROM operations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operations := make([]model.Operation, 0)
	for rows.Next() {
		var op model.Operation
		var extraJSON []byte
		err := rows.Scan(
			&op.ID,
			&op.SessionID,
			&op.UserID,
			&op.Type,
			&op.Amount,
			&op.Description,
			&op.CreatedAt,
			&extraJSON,
		)
		if err != nil {
			return nil, err
		}

		if len(extraJSON) > 0 {
			var extra interface{}
			if err := json.Unmarshal(extraJSON, &extra); err != nil {
				return nil, err
			}
			op.Extra = extra
		}

		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return &model.OperationHistory{
		Operations: operations,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
