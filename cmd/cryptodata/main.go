// Package main provides the cryptodata command, which queries crypto data
// APIs and prints the results as tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/fetch"
	"cryptodata/internal/formatter"
	"cryptodata/internal/logger"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
	"cryptodata/internal/taxonomy"
)

// ErrProviderDisabled is returned when a command targets a disabled provider.
var ErrProviderDisabled = errors.New("provider is disabled in config")

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

// app carries what every subcommand needs once flags are resolved.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	client *fetch.Client
	stdout io.Writer
	stderr io.Writer
	dates  normalizer.DateRange
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath string
		output     string
		outFile    string
		logLevel   string
		start      string
		end        string
	)

	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "cryptodata",
		Short:         "Query crypto data APIs as tables",
		Long:          "Fetch protocol, asset, governance and chain data from public crypto APIs and render it as tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("output") {
				cfg.Output.Format = output
			}

			if cmd.Flags().Changed("out-file") {
				cfg.Output.Path = outFile
			}

			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			dates, err := normalizer.ParseDateRange(start, end)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.dates = dates
			a.log = logger.NewLoggerWithWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
			a.client = fetch.NewClientWithDeps(fetch.NewScraperWithConfig(&cfg.HTTP), a.log)

			a.log.Debug("configuration loaded", "config", cfg.String())

			return nil
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVarP(&output, "output", "o", formatter.FormatTable, "Output format (table, json, csv, xlsx)")
	root.PersistentFlags().StringVar(&outFile, "out-file", "", "Write output to this file instead of stdout")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&start, "start", "", "First date to keep, YYYY-MM-DD")
	root.PersistentFlags().StringVar(&end, "end", "", "Last date to keep, YYYY-MM-DD")

	root.AddCommand(
		newConfigCmd(a),
		newDefiLlamaCmd(a),
		newMessariCmd(a),
		newDeepDAOCmd(a),
		newSolscanCmd(a),
		newTokenTerminalCmd(a),
		newTaxonomyCmd(a),
	)

	return root
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, a.cfg.String())

			return err
		},
	}
}

// options resolves a provider's config section and taxonomy.
func (a *app) options(name string) (provider.Options, error) {
	pc, err := a.cfg.Provider(name)
	if err != nil {
		return provider.Options{}, err
	}

	if !pc.Enabled {
		return provider.Options{}, fmt.Errorf("%w: %s", ErrProviderDisabled, name)
	}

	tax, err := taxonomy.LoadFile(pc.Taxonomy, a.log)
	if err != nil {
		return provider.Options{}, err
	}

	return provider.OptionsFromConfig(pc, tax, a.log), nil
}

func (a *app) emitFrame(f *normalizer.Frame) error {
	return a.emit(formatter.FromFrame(f))
}

func (a *app) emitSeries(ts *normalizer.TimeSeries) error {
	return a.emit(formatter.FromSeries(ts))
}

// emit writes t to the configured file, or stdout when none is set.
func (a *app) emit(t *formatter.Table) error {
	opts := formatter.Options{MaxCellWidth: a.cfg.Output.MaxCellWidth}

	if a.cfg.Output.Path == "" {
		return formatter.Write(a.stdout, a.cfg.Output.Format, t, opts)
	}

	f, err := os.Create(a.cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := formatter.Write(f, a.cfg.Output.Format, t, opts); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	a.log.Info("wrote output", "path", a.cfg.Output.Path, "rows", len(t.Index))

	return nil
}
