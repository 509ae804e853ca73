package models

import "time"

// User is a learner known to the engine
type User struct {
	ID               string    `json:"id" db:"id"`
	ChatID           int64     `json:"chat_id" db:"chat_id"` // Telegram chat, 0 if none
	RemindersEnabled bool      `json:"reminders_enabled" db:"reminders_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
