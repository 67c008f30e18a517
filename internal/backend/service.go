package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/scanning"
)

var (
	// ErrUnsupportedFile is returned when an uploaded receipt is not an accepted image
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrInvalidBill is returned when a bill carries an unknown status
	ErrInvalidBill = errors.New("invalid bill")
)

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill operations
type Service struct {
	db          DB
	storage     Storage
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
	fileURLBase string
}

// NewService creates a Service with uuid IDs and the wall clock.
// scanner may be nil. fileURLBase prefixes the receipt URLs handed to clients.
func NewService(db DB, storage Storage, scanner scanning.Scanner, fileURLBase string) *Service {
	return NewServiceWithDeps(db, storage, scanner, fileURLBase, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, scanner scanning.Scanner, fileURLBase string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
		fileURLBase: strings.TrimRight(fileURLBase, "/"),
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and shortens long phone-generated names
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "justificatif"
	}

	return base + ext
}

func (s *Service) fileURL(id string) string {
	return fmt.Sprintf("%s/bills/%s/file", s.fileURLBase, id)
}

func validStatus(status string) bool {
	switch bill.Status(status) {
	case bill.StatusPending, bill.StatusAccepted, bill.StatusRefused:
		return true
	}
	return false
}

// CreateWithFile stores a receipt and creates the draft bill it belongs to
func (s *Service) CreateWithFile(ctx context.Context, email, filename string, data []byte, contentType string) (*bill.CreateResult, error) {
	if !bill.AllowedReceipt(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = bill.ReceiptContentType(filename)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	record := &Record{
		Bill: bill.Bill{
			ID:       id,
			Email:    email,
			FileName: filename,
			FileURL:  s.fileURL(id),
			Status:   string(bill.StatusPending),
		},
		FilePath:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveRecord(record); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving bill to database: %w", err)
	}

	return &bill.CreateResult{
		FileURL:    record.FileURL,
		Key:        id,
		Suggestion: s.scan(ctx, filename, data, contentType),
	}, nil
}

// scan reads the receipt when a scanner is configured. Failures only cost the suggestion.
func (s *Service) scan(ctx context.Context, filename string, data []byte, contentType string) *bill.Suggestion {
	if s.scanner == nil {
		return nil
	}

	receiptData, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		slog.Warn("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil
	}

	return &bill.Suggestion{
		Name:   receiptData.Title,
		Date:   receiptData.Date,
		Amount: receiptData.Amount,
	}
}

// CreateBill saves a bill that has no receipt
func (s *Service) CreateBill(b bill.Bill) (*bill.Bill, error) {
	if b.Status == "" {
		b.Status = string(bill.StatusPending)
	}
	if !validStatus(b.Status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidBill, b.Status)
	}

	now := s.timeSource.Now()
	b.ID = s.idGenerator.Generate()
	record := &Record{Bill: b, CreatedAt: now, UpdatedAt: now}
	if err := s.db.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("saving bill to database: %w", err)
	}
	return &record.Bill, nil
}

// UpdateBill replaces the fields of a stored bill. The receipt reference, the email,
// the status and the admin comment are kept when the update leaves them empty.
func (s *Service) UpdateBill(id string, b bill.Bill) (*bill.Bill, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if b.Status != "" && !validStatus(b.Status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidBill, b.Status)
	}

	merged := b
	merged.ID = record.ID
	if merged.FileURL == "" {
		merged.FileURL = record.FileURL
	}
	if merged.FileName == "" {
		merged.FileName = record.FileName
	}
	if merged.Email == "" {
		merged.Email = record.Email
	}
	if merged.Status == "" {
		merged.Status = record.Status
	}
	if merged.CommentAdmin == "" {
		merged.CommentAdmin = record.CommentAdmin
	}

	record.Bill = merged
	record.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("updating bill: %w", err)
	}
	return &record.Bill, nil
}

// GetBill retrieves a bill by ID
func (s *Service) GetBill(id string) (*bill.Bill, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return &record.Bill, nil
}

// ListBills returns the bills of one user, or every bill when email is empty
func (s *Service) ListBills(email string) ([]bill.Bill, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	bills := make([]bill.Bill, 0, len(records))
	for _, r := range records {
		if email != "" && r.Email != email {
			continue
		}
		bills = append(bills, r.Bill)
	}
	return bills, nil
}

// DeleteBill removes a bill and its receipt
func (s *Service) DeleteBill(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting bill for deletion: %w", err)
	}

	if record.FilePath != "" {
		if err := s.storage.Delete(record.FilePath); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "path", record.FilePath, "error", err)
		}
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting bill from database: %w", err)
	}
	return nil
}

// GetBillFile retrieves the receipt of a bill and its content type
func (s *Service) GetBillFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}
	if record.FilePath == "" {
		return nil, "", fmt.Errorf("%w: no receipt for %s", ErrNotFound, id)
	}

	data, err := s.storage.Get(record.FilePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, record.ContentType, nil
}
