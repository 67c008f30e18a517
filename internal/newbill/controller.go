// Package newbill drives the new bill form: receipt upload and bill submission.
package newbill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/zombor/billed/internal/bill"
)

// ErrUnsupportedFile is returned when the selected receipt is not an accepted image
var ErrUnsupportedFile = errors.New("unsupported file type")

// UnsupportedFileMessage is shown to the user when a receipt is rejected
const UnsupportedFileMessage = "Seuls les fichiers .jpg, .jpeg et .png sont acceptés"

// defaultPct is used when the form has no usable percentage
const defaultPct = 20

// Form field identifiers
const (
	FieldType       = "expense-type"
	FieldName       = "expense-name"
	FieldAmount     = "amount"
	FieldDate       = "datepicker"
	FieldVAT        = "vat"
	FieldPct        = "pct"
	FieldCommentary = "commentary"
)

// Notifier shows a blocking message to the user
type Notifier interface {
	Alert(message string)
}

// FileInput is the receipt file input of the form
type FileInput interface {
	// Files returns the selected files
	Files() []bill.File
	// Value returns the input value, usually a path such as C:\fakepath\receipt.jpg
	Value() string
	// Clear resets the selection
	Clear()
}

// Form exposes the current values of the form fields
type Form interface {
	Value(field string) string
}

// ChangeEvent is fired when the user selects a receipt
type ChangeEvent struct {
	Target FileInput
}

// SubmitEvent is fired when the form is submitted
type SubmitEvent interface {
	PreventDefault()
}

// Options controls how failures and submissions are handled
type Options struct {
	// AwaitSubmit waits for the store before navigating. Navigation then only happens on success.
	AwaitSubmit bool
	// NotifyFailures alerts the user when a store call fails. Failures are always logged
	// and returned through the Operation.
	NotifyFailures bool
}

// Config holds the collaborators of a Controller
type Config struct {
	Store      bill.Store
	Session    bill.Session
	OnNavigate bill.Navigator
	Notifier   Notifier
	Form       Form
	Options    Options
}

// Controller backs the new bill form
type Controller struct {
	store      bill.Store
	session    bill.Session
	onNavigate bill.Navigator
	notifier   Notifier
	form       Form
	opts       Options

	mu         sync.Mutex
	state      State
	billID     string
	fileURL    string
	fileName   string
	suggestion *bill.Suggestion
}

// NewController creates a Controller
func NewController(cfg Config) *Controller {
	return &Controller{
		store:      cfg.Store,
		session:    cfg.Session,
		onNavigate: cfg.OnNavigate,
		notifier:   cfg.Notifier,
		form:       cfg.Form,
		opts:       cfg.Options,
	}
}

// State returns the current form state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FileURL returns the remote reference of the last uploaded receipt
func (c *Controller) FileURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileURL
}

// BillID returns the key the store assigned to the last uploaded receipt
func (c *Controller) BillID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.billID
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// setUploadState moves the state for a file selection unless a submission already started
func (c *Controller) setUploadState(s State) {
	c.mu.Lock()
	if !c.state.submitting() {
		c.state = s
	}
	c.mu.Unlock()
}

// baseName strips the directories of a path, whatever the separator
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// HandleChangeFile validates the selected receipt and uploads it.
// The upload runs in the background; the returned Operation resolves when it is done.
func (c *Controller) HandleChangeFile(ctx context.Context, ev ChangeEvent) *Operation {
	if ev.Target == nil {
		return completed(nil)
	}
	files := ev.Target.Files()
	if len(files) == 0 {
		return completed(nil)
	}
	file := files[0]

	fileName := file.Name
	if v := baseName(ev.Target.Value()); v != "" {
		fileName = v
	}

	if !bill.AllowedReceipt(fileName) {
		if c.notifier != nil {
			c.notifier.Alert(UnsupportedFileMessage)
		}
		ev.Target.Clear()
		c.setUploadState(StateIdle)
		return completed(fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName))
	}

	if c.store == nil {
		return completed(nil)
	}

	user, err := bill.CurrentUser(c.session)
	if err != nil {
		c.setUploadState(StateUploadFailed)
		return completed(c.failed("reading session", err))
	}

	req := bill.CreateRequest{
		Data:    bill.Upload{File: file, Email: user.Email},
		Headers: map[string]string{"noContentType": "true"},
	}

	c.setUploadState(StateUploading)
	api := c.store.Bills()
	op := newOperation()
	go func() {
		res, err := api.Create(ctx, req)

		c.mu.Lock()
		late := c.state.submitting()
		if !late {
			if err != nil {
				c.state = StateUploadFailed
			} else {
				c.billID = res.Key
				c.fileURL = res.FileURL
				c.fileName = fileName
				c.suggestion = res.Suggestion
				c.state = StateUploaded
			}
		}
		c.mu.Unlock()

		if err != nil {
			op.finish(c.failed("uploading receipt", err))
			return
		}
		if late {
			slog.Warn("Receipt uploaded after the bill was submitted", "file_name", fileName, "key", res.Key)
		} else {
			slog.Info("Receipt uploaded", "file_name", fileName, "key", res.Key)
		}
		op.finish(nil)
	}()
	return op
}

// HandleSubmit builds the bill from the form and sends it to the store, then navigates
// to the bills list without waiting for the store unless Options.AwaitSubmit is set.
func (c *Controller) HandleSubmit(ctx context.Context, ev SubmitEvent) *Operation {
	if ev != nil {
		ev.PreventDefault()
	}

	b := c.formBill()

	c.mu.Lock()
	c.state = StateSubmitting
	key := c.billID
	b.FileURL = c.fileURL
	b.FileName = c.fileName
	suggestion := c.suggestion
	c.mu.Unlock()

	applySuggestion(&b, suggestion)

	if c.store == nil {
		c.submitted()
		return completed(nil)
	}

	user, err := bill.CurrentUser(c.session)
	if err != nil {
		c.setState(StateSubmitFailed)
		op := completed(c.failed("reading session", err))
		if !c.opts.AwaitSubmit {
			c.navigate(bill.RouteBills)
		}
		return op
	}
	b.Email = user.Email

	api := c.store.Bills()
	op := newOperation()
	update := func() error {
		if _, err := api.Update(ctx, bill.UpdateRequest{Data: b, Selector: key}); err != nil {
			return c.failed("updating bill", err)
		}
		return nil
	}

	if c.opts.AwaitSubmit {
		err := update()
		op.finish(err)
		if err != nil {
			c.setState(StateSubmitFailed)
			return op
		}
		c.submitted()
		return op
	}

	go func() {
		op.finish(update())
	}()
	c.submitted()
	return op
}

func (c *Controller) submitted() {
	c.setState(StateSubmitted)
	c.navigate(bill.RouteBills)
}

func (c *Controller) navigate(path string) {
	if c.onNavigate != nil {
		c.onNavigate(path)
	}
}

// failed logs a store failure and applies the notification policy
func (c *Controller) failed(action string, err error) error {
	err = fmt.Errorf("%s: %w", action, err)
	slog.Error("New bill operation failed", "action", action, "error", err)
	if c.opts.NotifyFailures && c.notifier != nil {
		c.notifier.Alert(err.Error())
	}
	return err
}

// formBill reads the form fields
func (c *Controller) formBill() bill.Bill {
	value := func(field string) string {
		if c.form == nil {
			return ""
		}
		return strings.TrimSpace(c.form.Value(field))
	}

	pct, err := strconv.Atoi(value(FieldPct))
	if err != nil || pct == 0 {
		pct = defaultPct
	}

	return bill.Bill{
		Type:       value(FieldType),
		Name:       value(FieldName),
		Amount:     parseNumber(value(FieldAmount)),
		Date:       value(FieldDate),
		VAT:        parseNumber(value(FieldVAT)),
		Pct:        pct,
		Commentary: value(FieldCommentary),
		Status:     string(bill.StatusPending),
	}
}

func parseNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return n
}

// applySuggestion fills blank fields with the values read from the receipt
func applySuggestion(b *bill.Bill, s *bill.Suggestion) {
	if s == nil {
		return
	}
	if b.Name == "" {
		b.Name = s.Name
	}
	if b.Date == "" {
		b.Date = s.Date
	}
	if b.Amount == 0 {
		b.Amount = s.Amount
	}
}
