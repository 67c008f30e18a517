package backend

import (
	"slices"
	"time"

	"github.com/zombor/billed/internal/bill"
)

// Record is a bill as persisted by the backend
type Record struct {
	bill.Bill
	FilePath    string    `json:"filePath,omitempty"`    // receipt location in Storage
	ContentType string    `json:"contentType,omitempty"` // receipt MIME type
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// sortByCreation orders records oldest first
func sortByCreation(records []*Record) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
