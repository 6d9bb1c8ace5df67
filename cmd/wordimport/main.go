// Command wordimport parses vocabulary spreadsheets from the command line
// and runs quick quizzes over them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wordquiz/internal/config"
	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/store"
	"github.com/JonMunkholm/wordquiz/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText prefers the mapped user message; usage errors from cobra have
// no mapping and are printed as they are.
func errorText(err error) string {
	if !core.IsUserFacing(err) {
		return "error: " + err.Error()
	}
	uerr := core.NewUserError(err)
	slog.Debug("command failed", "error", uerr.Technical, "code", uerr.User.Code)
	return core.FormatUserError(uerr.Technical)
}

// app holds the settings shared by every subcommand.
type app struct {
	envFile  string
	keywords string
	strict   bool
	verbose  bool

	cfg     *config.Config
	service *core.Service
	fetcher *transport.Fetcher
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "wordimport",
		Short:         "Import vocabulary spreadsheets for quizzing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env", "", "Load settings from this .env file")
	root.PersistentFlags().StringVar(&a.keywords, "keywords", "", "YAML file with extra header keywords")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "Require distinct word and translation header cells")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newParseCmd(a),
		newPreviewCmd(a),
		newQuizCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the service.
// Logs go to stderr so stdout carries only results.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.envFile != "" {
		cfg, err = config.LoadEnv(a.envFile)
	} else {
		cfg, err = config.LoadEnv()
	}
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format))

	if a.keywords != "" {
		cfg.Import.KeywordsFile = a.keywords
	}
	if a.strict {
		cfg.Import.Strict = true
	}

	normalizer, err := core.NewNormalizer(cfg.Import)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.fetcher = transport.New(
		transport.WithTimeout(cfg.Import.FetchTimeout),
		transport.WithMaxSize(cfg.Import.MaxFileSize),
		transport.WithLocalFiles(true),
		transport.WithUserAgent("wordimport/1.0"),
	)
	a.service = core.NewService(core.Options{
		Normalizer:  normalizer,
		Fetcher:     a.fetcher,
		History:     store.NewMemory(1),
		Limiter:     core.NewImportLimiter(1, cfg.Import.MaxWaitTime),
		MaxFileSize: cfg.Import.MaxFileSize,
		PreviewRows: cfg.Import.PreviewRows,
		MaxCells:    cfg.Import.MaxCells,
	})
	return nil
}

// load fetches a local path or URL.
func (a *app) load(ctx context.Context, locator string) (transport.Payload, error) {
	p, err := a.fetcher.Fetch(ctx, locator)
	if err != nil {
		return transport.Payload{}, err
	}
	slog.Debug("loaded source", "name", p.Name, "mode", p.Mode.String(), "bytes", len(p.Data))
	return p, nil
}
