// Package auth provides the user store, role permissions, and session
// management.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// User is an authenticated principal.
type User struct {
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
}

// ErrInvalidCredentials is returned for an unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore persists users in SQLite.
type UserStore struct {
	db *sql.DB
}

// seedUser is an account created on first run so the system is usable out of
// the box. Operators are expected to replace these.
type seedUser struct {
	username   string
	password   string
	role       Role
	department string
}

var seedUsers = []seedUser{
	{"admin", "admin123", RoleAdmin, "IT"},
	{"employee", "employee123", RoleUser, "HR"},
	{"viewer", "viewer123", RoleViewer, "Marketing"},
}

// NewUserStore opens or creates the user database at dbPath, initializes the
// schema, and seeds the demo accounts when the table is empty. Parent
// directories are created if they do not exist.
func NewUserStore(dbPath string) (*UserStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash BLOB NOT NULL,
		role TEXT NOT NULL,
		department TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &UserStore{db: db}
	if err := s.seedIfEmpty(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *UserStore) seedIfEmpty(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, u := range seedUsers {
		if err := s.CreateUser(ctx, u.username, u.password, u.role, u.department); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}
	return nil
}

// CreateUser inserts a user with a bcrypt password hash.
func (s *UserStore) CreateUser(ctx context.Context, username, password string, role Role, department string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, department) VALUES (?, ?, ?, ?)`,
		username, hash, string(role), department,
	)
	return err
}

// Authenticate verifies credentials and returns the user. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var hash []byte
	var role, department string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, role, department FROM users WHERE username = ?`, username,
	).Scan(&hash, &role, &department)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{Username: username, Role: Role(role), Department: department}, nil
}

// Close closes the underlying database.
func (s *UserStore) Close() error {
	return s.db.Close()
}
