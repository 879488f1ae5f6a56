package model

import (
	"time"
)

// DefaultCategory is assigned when a book is created without one.
const DefaultCategory = "Fiction"

type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   *string   `json:"description,omitempty"`
	PublishedYear *int      `json:"publishedYear,omitempty"`
	Category      string    `json:"category"`
	CreatedByID   *string   `json:"createdBy,omitempty"` // lookup reference, not ownership
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BookFilter is the sanitized conjunction of list predicates. Empty string
// and nil fields mean "term absent", never "match empty".
type BookFilter struct {
	Title    string // case-insensitive substring
	Author   string // case-insensitive substring
	Year     *int   // exact match on published year
	Category string // exact match
}
