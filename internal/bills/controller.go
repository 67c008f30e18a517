// Package bills prepares the connected user's bills for the listing view.
package bills

import (
	"context"
	"log/slog"

	"github.com/zombor/billed/internal/bill"
)

// ReceiptViewer displays an uploaded receipt
type ReceiptViewer interface {
	ShowReceipt(fileURL string)
}

// Config holds the collaborators of a Controller
type Config struct {
	Store      bill.Store
	Session    bill.Session
	OnNavigate bill.Navigator
	Viewer     ReceiptViewer
}

// Controller backs the bills listing view
type Controller struct {
	store      bill.Store
	session    bill.Session
	onNavigate bill.Navigator
	viewer     ReceiptViewer
}

// NewController creates a Controller. Any collaborator may be nil.
func NewController(cfg Config) *Controller {
	return &Controller{
		store:      cfg.Store,
		session:    cfg.Session,
		onNavigate: cfg.OnNavigate,
		viewer:     cfg.Viewer,
	}
}

// GetBills fetches the bills and formats their date and status for display.
// It returns nil, nil when no store is configured. Store errors are returned unchanged.
// A date that can't be formatted is kept as stored.
func (c *Controller) GetBills(ctx context.Context) ([]bill.Bill, error) {
	if c.store == nil {
		return nil, nil
	}

	snapshot, err := c.store.Bills().List(ctx)
	if err != nil {
		return nil, err
	}

	bills := make([]bill.Bill, 0, len(snapshot))
	for _, doc := range snapshot {
		formatted := doc
		if date, err := bill.FormatDate(doc.Date); err == nil {
			formatted.Date = date
		} else {
			slog.Debug("Keeping unformatted bill date", "id", doc.ID, "date", doc.Date, "error", err)
		}
		formatted.Status = bill.StatusLabel(doc.Status)
		bills = append(bills, formatted)
	}
	return bills, nil
}

// HandleClickNewBill navigates to the new bill form
func (c *Controller) HandleClickNewBill() {
	if c.onNavigate != nil {
		c.onNavigate(bill.RouteNewBill)
	}
}

// HandleClickIconEye shows the receipt of a bill
func (c *Controller) HandleClickIconEye(fileURL string) {
	if c.viewer != nil {
		c.viewer.ShowReceipt(fileURL)
	}
}
