// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch

import "time"

// Branch is a physical library location holding book copies.
type Branch struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Global field names for validation
const (
	FieldName     = "name"
	FieldLocation = "location"
)

// entityName is used in NotFound messages.
const entityName = "Branch"
