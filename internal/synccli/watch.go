package synccli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ringroster/internal/adapters/contactsapi"
	"ringroster/internal/adapters/mutationbus"
	"ringroster/internal/core/contactsync"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/metrics"
	"ringroster/internal/platform/store"
	cdomain "ringroster/internal/services/contacts/domain"
)

type watchOptions struct {
	Viewport  int
	RowHeight int
	Scroll    int
	Interval  time.Duration
	ExitOnEnd bool

	NATS    string
	Subject string
	Tenant  string

	Status string
	ListID string
	Sort   string
	Search string
}

func (w watchOptions) signature() contactsync.Signature {
	return contactsync.Signature{
		Filter: map[string]string{"status": w.Status, "list_id": w.ListID},
		Sort:   w.Sort,
		Search: w.Search,
	}
}

func newWatchCommand(root *RootOptions) *cobra.Command {
	wo := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Load a contact list the way a scrolling viewport would and print every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var bus store.Bus
			if wo.NATS != "" {
				st, err := store.Open(ctx, store.Config{
					AppName: "ringroster-sync",
					NATS:    store.NATSConfig{Enabled: true, URL: wo.NATS, ConnectTimeout: root.Timeout},
				}, store.WithLogger(*logger.Get()), store.WithClientInfo("sync", "watch"))
				if err != nil {
					return err
				}
				defer func() { _ = st.Close(context.Background()) }()
				bus = st.Bus
			}
			return runWatch(ctx, root, wo, cmd.OutOrStdout(), root.client(), bus)
		},
	}

	f := cmd.Flags()
	f.IntVar(&wo.Viewport, "viewport", 20, "rows the simulated viewport shows")
	f.IntVar(&wo.RowHeight, "row-height", 40, "pixels per row")
	f.IntVar(&wo.Scroll, "scroll", 0, "rows the viewport scrolls down per tick")
	f.DurationVar(&wo.Interval, "interval", 250*time.Millisecond, "visibility polling interval")
	f.BoolVar(&wo.ExitOnEnd, "exit-on-end", false, "stop once the list is fully loaded")
	f.StringVar(&wo.NATS, "nats", "", "NATS URL; when set, upload outcomes reset the list")
	f.StringVar(&wo.Subject, "subject", mutationbus.DefaultSubject, "mutation subject root")
	f.StringVar(&wo.Tenant, "tenant", "", "tenant whose mutations are followed, empty follows all")
	f.StringVar(&wo.Status, "status", "", "filter by contact status")
	f.StringVar(&wo.ListID, "list", "", "filter by list id")
	f.StringVar(&wo.Sort, "sort", "", "sort order")
	f.StringVar(&wo.Search, "search", "", "search term")
	return cmd
}

// viewport turns the rendered row count into a sentinel distance, scrolling a little each probe
type viewport struct {
	rows, rowHeight, scroll int
	offset                  int
	rendered                func() int
}

func (v *viewport) probe() int {
	n := v.rendered()
	d := (n - v.offset - v.rows) * v.rowHeight
	if v.scroll > 0 {
		v.offset = min(v.offset+v.scroll, max(n-v.rows, 0))
	}
	return d
}

func runWatch(ctx context.Context, root *RootOptions, wo watchOptions, out io.Writer, f contactsync.Fetcher[cdomain.Contact], bus store.Bus) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := metrics.New()
	acc := contactsync.New(f, contactsapi.Key, contactsync.Options{
		SinglePage: root.NoIncremental,
		PageSize:   root.PageSize,
		Context:    ctx,
		Metrics:    reg.Sync,
	})
	p := &printer{w: out, format: root.Format}

	unsub := acc.Subscribe(func(v contactsync.View[cdomain.Contact]) {
		p.view(v)
		if wo.ExitOnEnd && v.Exhausted() {
			cancel()
		}
	})
	defer unsub()

	trig := contactsync.NewScrollTrigger(acc, root.Proximity)
	defer contactsync.Watch(trig, acc)()

	if bus != nil {
		h := contactsync.NewMutationHandler(acc, nil)
		unroute, err := mutationbus.Route(bus, wo.Subject, wo.Tenant, h)
		if err != nil {
			return err
		}
		defer func() { _ = unroute() }()
	}

	vp := &viewport{
		rows:      max(wo.Viewport, 1),
		rowHeight: max(wo.RowHeight, 1),
		scroll:    wo.Scroll,
		rendered:  func() int { return len(acc.Snapshot().Items) },
	}

	acc.Reset(wo.signature())
	err := contactsync.Poll(ctx, trig, wo.Interval, vp.probe)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
