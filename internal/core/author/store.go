// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import "context"

// Repository is the relational store of authors.
//
// FindByID, Update and Delete return dberr.ErrNotFound for a missing row.
type Repository interface {
	List(context context.Context, limit, offset int) ([]*Author, int, error)
	FindByID(context context.Context, id int) (*Author, error)
	Create(context context.Context, a *Author) error
	Update(context context.Context, a *Author) error
	Delete(context context.Context, id int) error
}
