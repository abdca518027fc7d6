// Package store persists the metadata of groups the bot has been added to
// and answers membership questions about them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// ErrNotFound is returned when a group has no stored record.
var ErrNotFound = errors.New("group not found")

// Group is the stored metadata of a group chat.
type Group struct {
	ChatID         int64
	Username       string
	ChatType       string
	Title          string
	Description    string
	IsForum        bool
	DateMembership time.Time
}

type GroupStore struct {
	DB *sql.DB
}

func NewGroupStore(dbPath string) (*GroupStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS groups (
			chat_id INTEGER PRIMARY KEY NOT NULL,
			username TEXT,
			chat_type TEXT NOT NULL,
			title TEXT,
			description TEXT,
			is_forum INTEGER NOT NULL DEFAULT 0,
			date_membership DATETIME NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &GroupStore{DB: db}, nil
}

// SaveGroup inserts or refreshes the record of g.
func (s *GroupStore) SaveGroup(ctx context.Context, g Group) error {
	query := `
		INSERT INTO groups (chat_id, username, chat_type, title, description, is_forum, date_membership)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			username = excluded.username,
			chat_type = excluded.chat_type,
			title = excluded.title,
			description = excluded.description,
			is_forum = excluded.is_forum,
			date_membership = excluded.date_membership`
	_, err := s.DB.ExecContext(ctx, query,
		g.ChatID, g.Username, g.ChatType, g.Title, g.Description, g.IsForum, g.DateMembership.UTC())
	if err != nil {
		return fmt.Errorf("save group %d: %w", g.ChatID, err)
	}
	return nil
}

// GetGroup returns ErrNotFound when chatID has never been recorded.
func (s *GroupStore) GetGroup(ctx context.Context, chatID int64) (*Group, error) {
	query := `
		SELECT chat_id, username, chat_type, title, description, is_forum, date_membership
		FROM groups WHERE chat_id = ?`

	var (
		g                      Group
		username, title, descr sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, query, chatID).Scan(
		&g.ChatID, &username, &g.ChatType, &title, &descr, &g.IsForum, &g.DateMembership)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", chatID, err)
	}

	g.Username = username.String
	g.Title = title.String
	g.Description = descr.String
	return &g, nil
}

func (s *GroupStore) Close() error {
	return s.DB.Close()
}
