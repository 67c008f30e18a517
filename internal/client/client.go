// Package client talks to the bills API over HTTP and implements bill.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/zombor/billed/internal/bill"
)

// noContentTypeHeader asks the transport to let the multipart writer pick the content type
const noContentTypeHeader = "noContentType"

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bills API error (status %d)", e.Code)
	}
	return fmt.Sprintf("bills API error (status %d): %s", e.Code, e.Message)
}

// Client is an HTTP bill.Store
type Client struct {
	baseURL string
	email   string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithEmail restricts List to the bills of one user
func WithEmail(email string) Option {
	return func(c *Client) {
		c.email = email
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a Client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bills returns the bills collection
func (c *Client) Bills() bill.BillsAPI {
	return c
}

// List fetches the bills, filtered by the configured email
func (c *Client) List(ctx context.Context) ([]bill.Bill, error) {
	u := c.baseURL + "/bills"
	if c.email != "" {
		u += "?" + url.Values{"email": {c.email}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var bills []bill.Bill
	if err := c.do(req, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Create uploads a receipt as multipart form data
func (c *Client) Create(ctx context.Context, cr bill.CreateRequest) (*bill.CreateResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := cr.Data.File.ContentType
	if contentType == "" {
		contentType = bill.ReceiptContentType(cr.Data.File.Name)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(cr.Data.File.Name)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(cr.Data.File.Data); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := writer.WriteField("email", cr.Data.Email); err != nil {
		return nil, fmt.Errorf("writing email field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bills", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range cr.Headers {
		if k == noContentTypeHeader {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result bill.CreateResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update sends a bill. A known selector patches that bill, an empty one creates a new bill.
func (c *Client) Update(ctx context.Context, ur bill.UpdateRequest) (*bill.Bill, error) {
	payload, err := json.Marshal(ur.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling bill: %w", err)
	}

	method, u := http.MethodPost, c.baseURL+"/bills"
	if ur.Selector != "" {
		method, u = http.MethodPatch, c.baseURL+"/bills/"+url.PathEscape(ur.Selector)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var b bill.Bill
	if err := c.do(req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// do sends req and decodes a successful JSON answer into v
func (c *Client) do(req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling bills API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage reads the {"error": ...} body the API sends with failures
func errorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(body))
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
