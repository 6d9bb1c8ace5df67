package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wordquiz/internal/export"
	"github.com/JonMunkholm/wordquiz/internal/quiz"
)

func newQuizCmd(a *app) *cobra.Command {
	var (
		reverse      bool
		shuffle      bool
		seed         uint64
		limit        int
		reportPath   string
		reportFormat string
	)

	cmd := &cobra.Command{
		Use:   "quiz <file|url>",
		Short: "Quiz yourself on a spreadsheet",
		Long: `Ask each word of a spreadsheet on the terminal. Type the answer and press
enter; an empty line skips the word and ":q" stops early.

Example: wordimport quiz lesson1.xlsx --shuffle --limit 20 --report result.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(reportFormat)
			if err != nil {
				return err
			}
			res, err := a.service.ImportLocator(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			opts := quiz.Options{Shuffle: shuffle, Seed: seed, Limit: limit}
			if reverse {
				opts.Direction = quiz.Reverse
			}
			if shuffle && !cmd.Flags().Changed("seed") {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			session := quiz.NewSession(res.Entries, opts)

			if err := runQuiz(cmd.InOrStdin(), cmd.OutOrStdout(), session); err != nil {
				return err
			}

			report := export.NewReport(res.Source, session)
			if err := export.Text(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if reportPath == "" {
				return nil
			}
			return writeReport(reportPath, format, report)
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "Show translations and ask for the word")
	cmd.Flags().BoolVarP(&shuffle, "shuffle", "s", false, "Ask in random order")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for --shuffle (default: random)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Ask at most this many words")
	cmd.Flags().StringVar(&reportPath, "report", "", "Also write the report to this file")
	cmd.Flags().StringVar(&reportFormat, "report-format", "text", "Report file format: json, yaml or text")
	return cmd
}

// runQuiz asks every question of s, reading one answer per line from in.
func runQuiz(in io.Reader, out io.Writer, s *quiz.Session) error {
	sc := bufio.NewScanner(in)
	for i := 1; !s.Done(); i++ {
		fmt.Fprintf(out, "[%d/%d] %s? ", i, s.Len(), s.Prompt())
		if !sc.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(sc.Text())

		var (
			o   quiz.Outcome
			err error
		)
		switch line {
		case ":q":
			return sc.Err()
		case "":
			o, err = s.Skip()
		default:
			o, err = s.Answer(line)
		}
		if err != nil {
			return err
		}

		switch {
		case o.Skipped:
			fmt.Fprintf(out, "  skipped: %s\n", o.Expected)
		case o.Correct:
			fmt.Fprintln(out, "  correct")
		default:
			fmt.Fprintf(out, "  wrong: %s\n", o.Expected)
		}
	}
	return sc.Err()
}

func writeReport(path string, format export.Format, r export.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.Write(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
