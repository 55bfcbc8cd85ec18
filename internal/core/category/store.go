// Copyright (c) 2026 Libris. All rights reserved.
// Category: tai.buivan.jp@gmail.com

package category

import "context"

// Repository is the relational store of categories.
//
// FindByID, Update and Delete return dberr.ErrNotFound for a missing row.
type Repository interface {
	List(context context.Context, limit, offset int) ([]*Category, int, error)
	FindByID(context context.Context, id int) (*Category, error)
	Create(context context.Context, a *Category) error
	Update(context context.Context, a *Category) error
	Delete(context context.Context, id int) error
}
