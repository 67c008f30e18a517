package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/bills"
	"github.com/zombor/billed/internal/client"
	"github.com/zombor/billed/internal/newbill"
	"github.com/zombor/billed/internal/session"
)

// rootConfig holds the flags shared by every subcommand
type rootConfig struct {
	server      string
	sessionFile string
	email       string
}

// session builds the session from --session, or from --email when no file is given
func (c *rootConfig) session() (bill.Session, error) {
	if c.sessionFile != "" {
		s, err := session.LoadFile(c.sessionFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s := session.NewMemory()
	if c.email != "" {
		if err := s.SetUser(bill.User{Type: "Employee", Email: c.email}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// store returns the API client, filtered on the session user when there is one
func (c *rootConfig) store(s bill.Session) bill.Store {
	var opts []client.Option
	if user, err := bill.CurrentUser(s); err == nil {
		opts = append(opts, client.WithEmail(user.Email))
	}
	return client.New(c.server, opts...)
}

func newRootCommand(stdout, stderr io.Writer) *ff.Command {
	cfg := &rootConfig{}
	rootFlags := ff.NewFlagSet("billed")
	rootFlags.StringVar(&cfg.server, 0, "server", "http://localhost:5678", "bills API base URL")
	rootFlags.StringVar(&cfg.sessionFile, 0, "session", "", "JSON session file, e.g. {\"user\": {\"type\": \"Employee\", \"email\": \"a@a\"}}")
	rootFlags.StringVar(&cfg.email, 0, "email", "", "connected user email, used when no session file is given")

	root := &ff.Command{
		Name:      "billed",
		Usage:     "billed [FLAGS] <SUBCOMMAND>",
		ShortHelp: "employee expense reports",
		Flags:     rootFlags,
	}
	root.Subcommands = append(root.Subcommands,
		newListCommand(cfg, rootFlags, stdout),
		newNewCommand(cfg, rootFlags, stdout, stderr),
	)
	return root
}

func newListCommand(cfg *rootConfig, parent *ff.FlagSet, stdout io.Writer) *ff.Command {
	flags := ff.NewFlagSet("list").SetParent(parent)

	return &ff.Command{
		Name:      "list",
		Usage:     "billed list [FLAGS]",
		ShortHelp: "list the bills of the connected user, most recent first",
		Flags:     flags,
		Exec: func(ctx context.Context, args []string) error {
			s, err := cfg.session()
			if err != nil {
				return err
			}

			ctrl := bills.NewController(bills.Config{
				Store:   sortingStore{cfg.store(s)},
				Session: s,
			})
			list, err := ctrl.GetBills(ctx)
			if err != nil {
				return fmt.Errorf("listing bills: %w", err)
			}
			return printBills(stdout, list)
		},
	}
}

func printBills(w io.Writer, list []bill.Bill) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tNAME\tAMOUNT\tSTATUS\tRECEIPT")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f €\t%s\t%s\n", b.Date, b.Type, b.Name, b.Amount, b.Status, b.FileURL)
	}
	return tw.Flush()
}

// newOptions are the flags of the new subcommand
type newOptions struct {
	file           string
	values         map[string]*string
	await          bool
	notifyFailures bool
}

func newNewCommand(cfg *rootConfig, parent *ff.FlagSet, stdout, stderr io.Writer) *ff.Command {
	opts := &newOptions{values: make(map[string]*string)}
	flags := ff.NewFlagSet("new").SetParent(parent)
	flags.StringVar(&opts.file, 'f', "file", "", "receipt to upload (.jpg, .jpeg or .png)")
	for _, field := range []struct{ name, usage string }{
		{newbill.FieldType, "expense type, e.g. Transports"},
		{newbill.FieldName, "expense name"},
		{newbill.FieldAmount, "amount including VAT"},
		{newbill.FieldDate, "expense date (YYYY-MM-DD)"},
		{newbill.FieldVAT, "VAT amount"},
		{newbill.FieldPct, "VAT percentage (default 20)"},
		{newbill.FieldCommentary, "commentary"},
	} {
		opts.values[field.name] = flags.StringLong(field.name, "", field.usage)
	}
	flags.BoolVar(&opts.await, 0, "await", "wait for the bill to be saved before leaving the form")
	flags.BoolVar(&opts.notifyFailures, 0, "notify-failures", "print store failures to the user")

	return &ff.Command{
		Name:      "new",
		Usage:     "billed new --file RECEIPT [FLAGS]",
		ShortHelp: "send a new bill",
		Flags:     flags,
		Exec: func(ctx context.Context, args []string) error {
			s, err := cfg.session()
			if err != nil {
				return err
			}
			return runNew(ctx, cfg.store(s), s, opts, stdout, stderr)
		},
	}
}

func runNew(ctx context.Context, store bill.Store, s bill.Session, opts *newOptions, stdout, stderr io.Writer) error {
	notifier := &writerNotifier{w: stderr}
	ctrl := newbill.NewController(newbill.Config{
		Store:      store,
		Session:    s,
		OnNavigate: func(path string) { fmt.Fprintf(stdout, "-> %s\n", path) },
		Notifier:   notifier,
		Form:       flagForm(opts.values),
		Options: newbill.Options{
			AwaitSubmit:    opts.await,
			NotifyFailures: opts.notifyFailures,
		},
	})

	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("reading receipt: %w", err)
		}
		input := &pathFileInput{
			path: opts.file,
			file: bill.File{
				Name:        filepath.Base(opts.file),
				ContentType: bill.ReceiptContentType(opts.file),
				Data:        data,
			},
		}
		if err := ctrl.HandleChangeFile(ctx, newbill.ChangeEvent{Target: input}).Wait(); err != nil {
			return err
		}
		slog.Debug("Receipt uploaded", "file_url", ctrl.FileURL(), "key", ctrl.BillID())
	}

	if err := ctrl.HandleSubmit(ctx, noopSubmitEvent{}).Wait(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "bill %s: %s\n", ctrl.BillID(), ctrl.State())
	return nil
}
