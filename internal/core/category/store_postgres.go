// Copyright (c) 2026 Libris. All rights reserved.
// Category: tai.buivan.jp@gmail.com

package category

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

func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Category, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2
	`,
		schema.Category.ID, schema.Category.Name, schema.Category.CreatedAt, schema.Category.UpdatedAt,
		schema.Category.Table, schema.Category.Name, schema.Category.ID,
	)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, schema.Category.Table)

	var total int
	if err := repository.db.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_categories")
	}

	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		a := &Category{}
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, a)
	}

	return categories, total, dberr.Wrap(rows.Err(), "list_categories")
}

func (repository *PostgresRepository) FindByID(context context.Context, id int) (*Category, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.Category.ID, schema.Category.Name, schema.Category.CreatedAt, schema.Category.UpdatedAt,
		schema.Category.Table, schema.Category.ID,
	)

	a := &Category{}
	err := repository.db.QueryRow(context, query, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_category")
	}
	return a, nil
}

func (repository *PostgresRepository) Create(context context.Context, a *Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Category.Table, schema.Category.Name, schema.Category.CreatedAt, schema.Category.UpdatedAt,
		schema.Category.ID, schema.Category.CreatedAt, schema.Category.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, a.Name).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return dberr.Wrap(err, "create_category")
}

func (repository *PostgresRepository) Update(context context.Context, a *Category) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		schema.Category.Table, schema.Category.Name, schema.Category.UpdatedAt, schema.Category.ID,
		schema.Category.CreatedAt, schema.Category.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, a.ID, a.Name).Scan(&a.CreatedAt, &a.UpdatedAt)
	return dberr.Wrap(err, "update_category")
}

func (repository *PostgresRepository) Delete(context context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Category.Table, schema.Category.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_category")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
