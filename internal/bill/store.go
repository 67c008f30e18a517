package bill

import "context"

// Store is the remote persistence layer for bills
type Store interface {
	Bills() BillsAPI
}

// BillsAPI is the bills collection of a Store
type BillsAPI interface {
	// List returns the bill records visible to the current user
	List(ctx context.Context) ([]Bill, error)

	// Create uploads a receipt file and returns its remote reference
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)

	// Update persists a bill, identified by req.Selector when one is known
	Update(ctx context.Context, req UpdateRequest) (*Bill, error)
}

// File is a receipt selected by the user
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload is the form payload sent with a receipt
type Upload struct {
	File  File
	Email string
}

// CreateRequest is the argument of BillsAPI.Create
type CreateRequest struct {
	Data    Upload
	Headers map[string]string
}

// Suggestion holds values read from a receipt image
type Suggestion struct {
	Name   string  `json:"name,omitempty"`
	Date   string  `json:"date,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// CreateResult is the remote reference of an uploaded receipt
type CreateResult struct {
	FileURL    string      `json:"fileUrl"`
	Key        string      `json:"key"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// UpdateRequest is the argument of BillsAPI.Update
type UpdateRequest struct {
	Data     Bill
	Selector string
}
