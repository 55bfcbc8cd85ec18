// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package stock manages book copies (one tracked instance of a book at a branch)
and the guarded status transition called relocation.

Relocation:

  - Locks the copy row (SELECT ... FOR UPDATE) for the whole transaction.
  - Only a copy whose current status is available may move.
  - Concurrent relocations of one copy serialize on the lock; the loser sees
    the new status and fails with [NotAvailableError].

The generic Update does not take the lock and accepts any status from any
status. It is the administrative correction path.
*/
package stock

import (
	"fmt"
	"time"

	"github.com/taibuivan/libris/internal/platform/apperr"
)

// Status is the availability of a copy.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
	StatusReserved  Status = "reserved"
	StatusLost      Status = "lost"
)

// Statuses lists every valid status in declaration order.
func Statuses() []string {
	return []string{
		string(StatusAvailable),
		string(StatusBorrowed),
		string(StatusReserved),
		string(StatusLost),
	}
}

// Copy is one physical or digital instance of a book shelved at a branch.
type Copy struct {
	ID        int       `json:"id"`
	BookID    int       `json:"book_id"`
	BranchID  int       `json:"branch_id"`
	Shelf     string    `json:"shelf"`
	Floor     string    `json:"floor"`
	Room      string    `json:"room"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Global field names for validation
const (
	FieldBookID   = "book_id"
	FieldBranchID = "branch_id"
	FieldShelf    = "shelf"
	FieldFloor    = "floor"
	FieldRoom     = "room"
	FieldStatus   = "status"
)

const entityName = "Copy"

// NotAvailableError reports a relocation attempted on a copy that is not available.
// It unwraps to an apperr PRECONDITION_FAILED error.
type NotAvailableError struct {
	CopyID    int
	Current   Status
	Attempted Status
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("copy %d is %s and cannot be moved to %s", e.CopyID, e.Current, e.Attempted)
}

func (e *NotAvailableError) Unwrap() error {
	return apperr.PreconditionFailed(fmt.Sprintf("Copy is %s, only available copies can be relocated", e.Current))
}
