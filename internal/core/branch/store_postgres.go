// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libris/internal/platform/database/schema"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Branch, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2
	`,
		schema.Branch.ID, schema.Branch.Name, schema.Branch.Location, schema.Branch.CreatedAt, schema.Branch.UpdatedAt,
		schema.Branch.Table, schema.Branch.Name, schema.Branch.ID,
	)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, schema.Branch.Table)

	var total int
	if err := repository.db.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_branches")
	}

	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_branches")
	}
	defer rows.Close()

	branches := []*Branch{}
	for rows.Next() {
		b := &Branch{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Location, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_branch")
		}
		branches = append(branches, b)
	}

	return branches, total, dberr.Wrap(rows.Err(), "list_branches")
}

func (repository *PostgresRepository) FindByID(context context.Context, id int) (*Branch, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.Branch.ID, schema.Branch.Name, schema.Branch.Location, schema.Branch.CreatedAt, schema.Branch.UpdatedAt,
		schema.Branch.Table, schema.Branch.ID,
	)

	b := &Branch{}
	err := repository.db.QueryRow(context, query, id).Scan(&b.ID, &b.Name, &b.Location, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_branch")
	}
	return b, nil
}

func (repository *PostgresRepository) Create(context context.Context, b *Branch) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Branch.Table, schema.Branch.Name, schema.Branch.Location, schema.Branch.CreatedAt, schema.Branch.UpdatedAt,
		schema.Branch.ID, schema.Branch.CreatedAt, schema.Branch.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, b.Name, b.Location).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return dberr.Wrap(err, "create_branch")
}

func (repository *PostgresRepository) Update(context context.Context, b *Branch) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		schema.Branch.Table, schema.Branch.Name, schema.Branch.Location, schema.Branch.UpdatedAt, schema.Branch.ID,
		schema.Branch.CreatedAt, schema.Branch.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, b.ID, b.Name, b.Location).Scan(&b.CreatedAt, &b.UpdatedAt)
	return dberr.Wrap(err, "update_branch")
}

func (repository *PostgresRepository) Delete(context context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Branch.Table, schema.Branch.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_branch")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
