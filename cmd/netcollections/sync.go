package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slipstream/netcollections/internal/collections"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var networks string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync of the configured networks and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.task.Execute(ctx, networks)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return writeReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&networks, "networks", "", "Comma-separated TMDB network ids, overrides the configured list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func writeReport(w io.Writer, report *collections.Report) error {
	headers := []string{"Network", "Name", "Status", "Collection", "Remote", "Matched", "Added", "Diags", "Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		status := string(r.Status)
		if r.Kind != "" {
			status = fmt.Sprintf("%s (%s)", r.Status, r.Kind)
		}
		collection := r.CollectionID
		if r.CollectionCreated {
			collection += " (new)"
		}
		rows = append(rows, []string{
			r.NetworkID.String(),
			r.NetworkName,
			status,
			collection,
			fmt.Sprint(r.RemoteShows),
			fmt.Sprint(r.Matched),
			fmt.Sprint(r.Added),
			fmt.Sprint(len(r.Diagnostics)),
			r.Error,
		})
	}

	if len(rows) > 0 {
		if _, err := fmt.Fprintln(w, renderTable(headers, rows, aligns)); err != nil {
			return err
		}
	}

	for _, d := range report.Diagnostics {
		if _, err := fmt.Fprintln(w, formatDiagnostic(d)); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("Run %s: %d synced, %d failed, %d shows added",
		report.RunID, report.Succeeded(), report.Failed(), report.Added())
	if report.Cancelled {
		summary += " (cancelled)"
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// formatDiagnostic renders "kind: token reason", leaving out empty parts.
func formatDiagnostic(d collections.Diagnostic) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{d.Token, d.Reason} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s: %s", d.Kind, strings.Join(parts, " "))
}
