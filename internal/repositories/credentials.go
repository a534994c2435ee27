package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// CredentialsRepository is a durable string key-value store over the
// credentials table. Implements the auth.KV port consumed by the token store.
type CredentialsRepository struct {
	db *sql.DB
}

// NewCredentialsRepository creates a new [CredentialsRepository] with the given database connection.
func NewCredentialsRepository(db *sql.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// Get returns the value stored under key, or false when no row exists.
func (r *CredentialsRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query credential: %w", err)
	}

	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (r *CredentialsRepository) Set(key, value string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// Delete removes the row for key. Deleting an absent key is not an error.
func (r *CredentialsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
