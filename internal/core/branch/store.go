// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch

import "context"

// Repository is the relational store of branches.
//
// FindByID, Update and Delete return dberr.ErrNotFound for a missing row.
type Repository interface {
	List(context context.Context, limit, offset int) ([]*Branch, int, error)
	FindByID(context context.Context, id int) (*Branch, error)
	Create(context context.Context, b *Branch) error
	Update(context context.Context, b *Branch) error
	Delete(context context.Context, id int) error
}
