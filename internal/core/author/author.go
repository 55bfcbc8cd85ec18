// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import "time"

// Author is a writer credited on one or more books.
type Author struct {
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
const entityName = "Author"
