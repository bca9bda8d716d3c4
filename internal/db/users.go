package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
)

type User struct {
	ChatID           int64
	Username         sql.NullString
	TgName           sql.NullString
	DefaultTranspose int
	AddedAt          time.Time
}

type Users struct {
	db *sql.DB
}

func NewUsers(database *sql.DB) *Users {
	return &Users{db: database}
}

// RegisterUser records a chat the first time it talks to the bot.
func (u *Users) RegisterUser(ctx context.Context, chatID int64, username, firstName, lastName string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userName := sql.NullString{
		String: username,
		Valid:  username != "",
	}
	fullName := strings.TrimSpace(firstName + " " + lastName)
	tgName := sql.NullString{
		String: fullName,
		Valid:  fullName != "",
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM users WHERE chat_id = ?)`
	if err := u.db.QueryRowContext(ctx, checkQuery, chatID).Scan(&exists); err != nil {
		return fmt.Errorf("error checking user existence: %w", err)
	}
	if exists {
		return nil
	}

	insertQuery := `
		INSERT INTO users (
			chat_id,
			username,
			tg_name,
			default_transpose,
			added_at
		) VALUES (?, ?, ?, 0, ?)
	`
	if _, err := u.db.ExecContext(ctx, insertQuery, chatID, userName, tgName, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to insert new user: %w", err)
	}

	log.Printf("new user registered: ID: %d, username: %s", chatID, userName.String)
	return nil
}

func (u *Users) GetUserByChatID(ctx context.Context, chatID int64) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user User
	var added int64
	query := `SELECT chat_id, username, tg_name, default_transpose, added_at FROM users WHERE chat_id = ?`
	err := u.db.QueryRowContext(ctx, query, chatID).Scan(&user.ChatID, &user.Username, &user.TgName, &user.DefaultTranspose, &added)
	if err == sql.ErrNoRows {
		return User{}, fmt.Errorf("user %d: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	user.AddedAt = fromUnix(added)
	return user, nil
}

// SetDefaultTranspose stores the offset applied to every song the user opens.
func (u *Users) SetDefaultTranspose(ctx context.Context, chatID int64, steps int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := u.db.ExecContext(ctx, `UPDATE users SET default_transpose = ? WHERE chat_id = ?`, steps, chatID)
	if err != nil {
		return fmt.Errorf("failed to save default transpose: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", chatID, ErrNotFound)
	}
	return nil
}
