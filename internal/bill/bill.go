package bill

// Status is the raw status code stored with a bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Bill represents one expense report submitted by an employee
type Bill struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"` // kept verbatim, may not parse
	VAT        float64 `json:"vat"`
	Pct        int     `json:"pct"`
	Commentary string  `json:"commentary"`
	FileURL    string  `json:"fileUrl"`
	FileName   string  `json:"fileName"`
	Status     string  `json:"status"`
	Email      string  `json:"email"`

	CommentAdmin string `json:"commentAdmin,omitempty"`
}

var statusLabels = map[Status]string{
	StatusPending:  "En attente",
	StatusAccepted: "Accepté",
	StatusRefused:  "Refused",
}

// StatusLabel returns the display label for a status code.
// Unknown codes are returned unchanged.
func StatusLabel(code string) string {
	if label, ok := statusLabels[Status(code)]; ok {
		return label
	}
	return code
}
