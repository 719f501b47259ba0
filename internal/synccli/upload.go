package synccli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ringroster/internal/adapters/contactsapi"
	"ringroster/internal/core/contactsync"
	cdomain "ringroster/internal/services/contacts/domain"
	udomain "ringroster/internal/services/uploads/domain"
)

// uploader is the part of the API client the upload command needs
type uploader interface {
	contactsync.Fetcher[cdomain.Contact]
	Upload(ctx context.Context, req udomain.Request) (udomain.Outcome, error)
}

func newUploadCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.json>",
		Short: "Post a bulk upload, print its outcome and show the list reacting to it",
		Long: `Reads an upload request ({"source_name": ..., "rows": [...]}) from the file,
or from stdin when the file is "-". The first page is loaded before posting so the
reset caused by the outcome is visible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runUpload(cmd.Context(), root, req, cmd.OutOrStdout(), root.client())
		},
	}
}

func readRequest(path string, stdin io.Reader) (udomain.Request, error) {
	var req udomain.Request
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("read %s: %w", path, err)
	}
	return req, nil
}

func runUpload(ctx context.Context, root *RootOptions, req udomain.Request, out io.Writer, c uploader) error {
	budget := root.Timeout
	if budget <= 0 {
		budget = 10 * time.Second
	}
	// two list loads and the upload itself, with slack
	ctx, cancel := context.WithTimeout(ctx, 4*budget)
	defer cancel()

	acc := contactsync.New[cdomain.Contact](c, contactsapi.Key, contactsync.Options{
		SinglePage: root.NoIncremental,
		PageSize:   root.PageSize,
		Context:    ctx,
	})
	settled := make(chan contactsync.View[cdomain.Contact], 8)
	defer acc.Subscribe(func(v contactsync.View[cdomain.Contact]) {
		if v.Loading() {
			return
		}
		select {
		case settled <- v:
		default:
		}
	})()
	p := &printer{w: out, format: root.Format}

	gen := acc.Reset(contactsync.Signature{})
	before, err := await(ctx, settled, gen)
	if err != nil {
		return err
	}
	p.view(before)

	o, err := c.Upload(ctx, req)
	if err != nil {
		return err
	}
	p.outcome(o)

	d := contactsync.NewMutationHandler(acc, nil).OnBulkMutationResult(contactsapi.Outcome(o))
	p.decision(d)
	if d != contactsync.DecisionReset {
		return nil
	}
	after, err := await(ctx, settled, gen+1)
	if err != nil {
		return err
	}
	p.view(after)
	return nil
}

// await returns the first settled view of generation gen or later
func await(ctx context.Context, ch <-chan contactsync.View[cdomain.Contact], gen uint64) (contactsync.View[cdomain.Contact], error) {
	for {
		select {
		case <-ctx.Done():
			return contactsync.View[cdomain.Contact]{}, ctx.Err()
		case v := <-ch:
			if v.Generation >= gen {
				return v, nil
			}
		}
	}
}
