// Package scanning reads the merchant, date and total of a receipt image.
package scanning

import "context"

// ReceiptData contains extracted information from a receipt
type ReceiptData struct {
	Title  string  `json:"title"`
	Date   string  `json:"date"` // YYYY-MM-DD, empty when unreadable
	Amount float64 `json:"amount"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image and extracts metadata
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close releases the scanner resources
	Close() error
}
