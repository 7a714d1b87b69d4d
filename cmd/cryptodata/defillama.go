package main

import (
	"context"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider/defillama"
)

func (a *app) defillama() (*defillama.Client, error) {
	opts, err := a.options(config.DefiLlama)
	if err != nil {
		return nil, err
	}

	return defillama.New(a.client, opts), nil
}

func newDefiLlamaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defillama",
		Short: "DeFi Llama protocol and TVL data",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "protocols",
			Short: "List every protocol",
			Args:  cobra.NoArgs,
			RunE: frameRun(a, a.defillama, func(ctx context.Context, c *defillama.Client, _ []string) (*normalizer.Frame, error) {
				return c.Protocols(ctx)
			}),
		},
		&cobra.Command{
			Use:   "global-tvl",
			Short: "Daily TVL across all protocols",
			Args:  cobra.NoArgs,
			RunE: seriesRun(a, a.defillama, func(ctx context.Context, c *defillama.Client, _ []string) (*normalizer.TimeSeries, error) {
				return c.GlobalTVL(ctx, a.dates)
			}),
		},
		&cobra.Command{
			Use:   "chain-tvl CHAIN...",
			Short: "Daily TVL per chain",
			Args:  cobra.MinimumNArgs(1),
			RunE: seriesRun(a, a.defillama, func(ctx context.Context, c *defillama.Client, args []string) (*normalizer.TimeSeries, error) {
				return c.ChainTVL(ctx, args, a.dates)
			}),
		},
		&cobra.Command{
			Use:   "protocol-tvl SLUG...",
			Short: "Daily TVL per protocol, chain and token",
			Args:  cobra.MinimumNArgs(1),
			RunE: seriesRun(a, a.defillama, func(ctx context.Context, c *defillama.Client, args []string) (*normalizer.TimeSeries, error) {
				return c.ProtocolTVL(ctx, args, a.dates)
			}),
		},
		&cobra.Command{
			Use:   "current-tvl SLUG...",
			Short: "Latest TVL per protocol",
			Args:  cobra.MinimumNArgs(1),
			RunE: frameRun(a, a.defillama, func(ctx context.Context, c *defillama.Client, args []string) (*normalizer.Frame, error) {
				return c.CurrentTVL(ctx, args)
			}),
		},
	)

	return cmd
}
