package schema

// BookStockTable represents the 'library.bookstock' table
type BookStockTable struct {
	Table     string
	ID        string
	BookID    string
	BranchID  string
	Shelf     string
	Floor     string
	Room      string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// BookStock is the schema definition for library.bookstock
var BookStock = BookStockTable{
	Table:     "library.bookstock",
	ID:        "id",
	BookID:    "bookid",
	BranchID:  "branchid",
	Shelf:     "shelf",
	Floor:     "floor",
	Room:      "room",
	Status:    "status",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t BookStockTable) Columns() []string {
	return []string{t.ID, t.BookID, t.BranchID, t.Shelf, t.Floor, t.Room, t.Status, t.CreatedAt, t.UpdatedAt}
}
