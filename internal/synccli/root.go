// Package synccli implements the ringroster-sync command line
package synccli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"ringroster/internal/adapters/contactsapi"
	"ringroster/internal/core/contactsync"
	"ringroster/internal/core/version"
	"ringroster/internal/platform/config"
)

// RootOptions holds the flags every subcommand shares
type RootOptions struct {
	APIURL        string
	Token         string
	PageSize      int
	NoIncremental bool
	Proximity     int
	Timeout       time.Duration
	Format        string
}

var validFormats = []string{"text", "json"}

// NewRootCommand builds the command tree; SYNC_* in cfg seeds the flag defaults
func NewRootCommand(cfg config.Conf) *cobra.Command {
	sc := cfg.Prefix("SYNC_")
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ringroster-sync",
		Short:         "Follow and feed a ringroster contact list from the terminal",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if opts.APIURL == "" {
				return fmt.Errorf("--api-url or SYNC_API_URL is required")
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.APIURL, "api-url", sc.MayString("API_URL", "http://127.0.0.1:4000/api/v1"), "API root")
	pf.StringVar(&opts.Token, "token", sc.MayString("TOKEN", ""), "bearer token")
	pf.IntVar(&opts.PageSize, "page-size", sc.MayInt("PAGE_SIZE", contactsync.DefaultPageSize), "records per fetch")
	pf.BoolVar(&opts.NoIncremental, "no-incremental", !sc.MayBool("INCREMENTAL", true), "load a single page instead of scrolling")
	pf.IntVar(&opts.Proximity, "proximity", sc.MayInt("PROXIMITY", contactsync.DefaultProximity), "sentinel distance in pixels that counts as visible")
	pf.DurationVar(&opts.Timeout, "timeout", sc.MayDuration("TIMEOUT", 10*time.Second), "per request timeout")
	pf.StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newUploadCommand(opts))
	return cmd
}

func (o *RootOptions) client() *contactsapi.Client {
	return contactsapi.New(contactsapi.Options{BaseURL: o.APIURL, Token: o.Token, Timeout: o.Timeout})
}
