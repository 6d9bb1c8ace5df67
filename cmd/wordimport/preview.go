package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

func newPreviewCmd(a *app) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file|url>",
		Short: "Show how a spreadsheet would be imported",
		Long: `Show the header decision, the column each role resolved to, a sample of
entries and every row that would be dropped.

Example: wordimport preview lesson1.csv --rows 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := a.service.Preview(cmd.Context(), p.Name, p.Data, p.Mode, rows)
			if err != nil {
				return err
			}
			return writePreview(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Sample size (default from IMPORT_PREVIEW_ROWS)")
	return cmd
}

func writePreview(w io.Writer, res *core.PreviewResult) error {
	fmt.Fprintf(w, "Source: %s (%s)\n", res.Source, res.Mode)
	fmt.Fprintf(w, "Header: %s\n", res.Header)
	for _, role := range vocab.Roles {
		col := res.Header.Columns.Index(role)
		how := "by position"
		if label, ok := res.Labels[role.String()]; ok {
			how = fmt.Sprintf("matched %q", label)
		}
		fmt.Fprintf(w, "  %-16s column %d, %s\n", role.String()+":", col+1, how)
	}
	fmt.Fprintf(w, "Rows: %d, entries: %d, dropped: %d\n",
		res.Stats.Rows, res.Stats.Entries, res.Stats.Dropped)

	if len(res.Sample) > 0 {
		fmt.Fprintf(w, "\nSample (%d):\n", len(res.Sample))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, e := range res.Sample {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Unknown, e.Translation, e.Transliteration)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "\nDropped (%d):\n", len(res.Rejected))
		for _, r := range res.Rejected {
			fmt.Fprintf(w, "  row %d: %s\n", r.Line, r.Reason)
		}
	}
	return nil
}
