// Copyright (c) 2026 Libris. All rights reserved.
// Category: tai.buivan.jp@gmail.com

package category

import "time"

// Category groups books by genre or subject (e.g. "Romance", "Poetry").
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Global field names for validation
const (
	FieldName = "name"
)

// entityName is used in NotFound messages.
const entityName = "Category"
