package models

import "time"

// Book is a named, ordered collection of item identifiers
type Book struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"` // empty for system books
	ItemIDs   []string  `json:"item_ids,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
