package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wordquiz/internal/core"
)

func newParseCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file|url>",
		Short: "Print the word entries of a spreadsheet",
		Long: `Parse an xlsx workbook or delimited text file and print its word entries.

Google Sheets links are fetched as CSV exports.

Example: wordimport parse lesson1.xlsx --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("invalid request: --format must be json or text, got %q", format)
			}
			res, err := a.service.ImportLocator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "text" {
				return writeEntriesText(cmd.OutOrStdout(), res)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or text")
	return cmd
}

func writeEntriesText(w io.Writer, res *core.ImportResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range res.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Unknown, e.Translation, e.Transliteration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(w, "# dropped row %d (%s): %s\n", r.Line, r.Reason, strings.Join(r.Values, " | "))
	}
	return nil
}
