// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestPgx5DSN rewrites only the PostgreSQL URL schemes.
*/
func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/libris", "pgx5://u:p@db:5432/libris"},
		{"postgresql://u:p@db/libris?sslmode=disable", "pgx5://u:p@db/libris?sslmode=disable"},
		{"pgx5://u:p@db/libris", "pgx5://u:p@db/libris"},
		{"host=db dbname=libris", "host=db dbname=libris"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5DSN(tt.in))
		})
	}
}
