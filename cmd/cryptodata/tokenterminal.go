package main

import (
	"context"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider/tokenterminal"
)

func (a *app) tokenterminal() (*tokenterminal.Client, error) {
	opts, err := a.options(config.TokenTerminal)
	if err != nil {
		return nil, err
	}

	return tokenterminal.New(a.client, opts), nil
}

func newTokenTerminalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenterminal",
		Short: "Token Terminal project metrics",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "projects",
			Short: "Every project with its latest figures",
			Args:  cobra.NoArgs,
			RunE: frameRun(a, a.tokenterminal, func(ctx context.Context, c *tokenterminal.Client, _ []string) (*normalizer.Frame, error) {
				return c.AllProjects(ctx)
			}),
		},
		&cobra.Command{
			Use:   "project-ids",
			Short: "Every project id",
			Args:  cobra.NoArgs,
			RunE: frameRun(a, a.tokenterminal, func(ctx context.Context, c *tokenterminal.Client, _ []string) (*normalizer.Frame, error) {
				ids, err := c.ProjectIDs(ctx)
				if err != nil {
					return nil, err
				}

				return listFrame("project_id", ids)
			}),
		},
		&cobra.Command{
			Use:   "metrics PROJECT...",
			Short: "Daily metrics per project",
			Args:  cobra.MinimumNArgs(1),
			RunE: seriesRun(a, a.tokenterminal, func(ctx context.Context, c *tokenterminal.Client, args []string) (*normalizer.TimeSeries, error) {
				return c.ProjectMetrics(ctx, args, a.dates)
			}),
		},
		&cobra.Command{
			Use:   "metric METRIC PROJECT...",
			Short: "History of one metric per project",
			Args:  cobra.MinimumNArgs(2),
			RunE: seriesRun(a, a.tokenterminal, func(ctx context.Context, c *tokenterminal.Client, args []string) (*normalizer.TimeSeries, error) {
				return c.HistoricalMetric(ctx, args[1:], args[0], a.dates)
			}),
		},
	)

	return cmd
}
