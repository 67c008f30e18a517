package main

import (
	"context"
	"fmt"
	"io"

	"github.com/zombor/billed/internal/bill"
)

// sortingStore orders listed bills most recent first. Sorting happens on the raw
// dates, before the listing controller turns them into display strings.
type sortingStore struct {
	bill.Store
}

func (s sortingStore) Bills() bill.BillsAPI {
	return sortingBills{s.Store.Bills()}
}

type sortingBills struct {
	bill.BillsAPI
}

func (s sortingBills) List(ctx context.Context) ([]bill.Bill, error) {
	bills, err := s.BillsAPI.List(ctx)
	if err != nil {
		return nil, err
	}
	bill.SortAntiChrono(bills)
	return bills, nil
}

// writerNotifier prints alerts on a terminal
type writerNotifier struct {
	w io.Writer
}

func (n *writerNotifier) Alert(message string) {
	fmt.Fprintf(n.w, "! %s\n", message)
}

// pathFileInput is a file input holding a single file read from disk
type pathFileInput struct {
	path    string
	file    bill.File
	cleared bool
}

func (p *pathFileInput) Files() []bill.File {
	if p.cleared {
		return nil
	}
	return []bill.File{p.file}
}

func (p *pathFileInput) Value() string {
	if p.cleared {
		return ""
	}
	return p.path
}

func (p *pathFileInput) Clear() {
	p.cleared = true
}

// flagForm reads form fields from command line flags
type flagForm map[string]*string

func (f flagForm) Value(field string) string {
	if v, ok := f[field]; ok && v != nil {
		return *v
	}
	return ""
}

type noopSubmitEvent struct{}

func (noopSubmitEvent) PreventDefault() {}
