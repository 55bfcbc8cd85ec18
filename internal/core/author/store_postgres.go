// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

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

func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Author, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2
	`,
		schema.Author.ID, schema.Author.Name, schema.Author.CreatedAt, schema.Author.UpdatedAt,
		schema.Author.Table, schema.Author.Name, schema.Author.ID,
	)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, schema.Author.Table)

	var total int
	if err := repository.db.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_authors")
	}

	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_authors")
	}
	defer rows.Close()

	authors := []*Author{}
	for rows.Next() {
		a := &Author{}
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_author")
		}
		authors = append(authors, a)
	}

	return authors, total, dberr.Wrap(rows.Err(), "list_authors")
}

func (repository *PostgresRepository) FindByID(context context.Context, id int) (*Author, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.Author.ID, schema.Author.Name, schema.Author.CreatedAt, schema.Author.UpdatedAt,
		schema.Author.Table, schema.Author.ID,
	)

	a := &Author{}
	err := repository.db.QueryRow(context, query, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_author")
	}
	return a, nil
}

func (repository *PostgresRepository) Create(context context.Context, a *Author) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Author.Table, schema.Author.Name, schema.Author.CreatedAt, schema.Author.UpdatedAt,
		schema.Author.ID, schema.Author.CreatedAt, schema.Author.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, a.Name).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return dberr.Wrap(err, "create_author")
}

func (repository *PostgresRepository) Update(context context.Context, a *Author) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		schema.Author.Table, schema.Author.Name, schema.Author.UpdatedAt, schema.Author.ID,
		schema.Author.CreatedAt, schema.Author.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, a.ID, a.Name).Scan(&a.CreatedAt, &a.UpdatedAt)
	return dberr.Wrap(err, "update_author")
}

func (repository *PostgresRepository) Delete(context context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Author.Table, schema.Author.ID)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_author")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
