// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stock

import "context"

// Repository is the relational store of copies.
//
// FindByID, Update and Delete return dberr.ErrNotFound for a missing row.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*Copy, int, error)
	FindByID(ctx context.Context, id int) (*Copy, error)
	Create(ctx context.Context, c *Copy) error
	Update(ctx context.Context, c *Copy) error
	Delete(ctx context.Context, id int) error

	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise, releasing every row lock taken through tx.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the part of the store usable inside [Repository.WithinTx].
type Tx interface {
	// LockByID reads the copy and holds an exclusive row lock until the
	// transaction ends. Concurrent lockers of the same id block.
	LockByID(ctx context.Context, id int) (*Copy, error)

	// UpdateStatus sets the status of a copy locked in this transaction.
	UpdateStatus(ctx context.Context, id int, status Status) (*Copy, error)
}
