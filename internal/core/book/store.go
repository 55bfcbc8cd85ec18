// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import "context"

// Repository is the relational store of books.
//
// Create returns (nil, nil) when the store accepted the statement but
// produced no row. FindByID, Update and Delete return dberr.ErrNotFound for
// a missing row; a duplicate ISBN surfaces as an apperr CONFLICT.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*Book, int, error)
	FindByID(ctx context.Context, id int) (*Book, error)
	Create(ctx context.Context, draft *Draft) (*Book, error)
	Update(ctx context.Context, id int, draft *Draft) (*Book, error)
	Delete(ctx context.Context, id int) error
}
