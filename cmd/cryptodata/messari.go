package main

import (
	"context"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider/messari"
)

func (a *app) messari() (*messari.Client, error) {
	opts, err := a.options(config.Messari)
	if err != nil {
		return nil, err
	}

	return messari.New(a.client, opts), nil
}

func newMessariCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messari",
		Short: "Messari asset, market and time-series data",
	}

	var fields []string

	asset := &cobra.Command{
		Use:   "asset SLUG...",
		Short: "Basic metadata per asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, args []string) (*normalizer.Frame, error) {
			return c.Asset(ctx, args, fields)
		}),
	}
	asset.Flags().StringSliceVar(&fields, "fields", nil, "Fields to request")

	var metric string

	metrics := &cobra.Command{
		Use:   "metrics SLUG...",
		Short: "Quantitative metrics per asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, args []string) (*normalizer.Frame, error) {
			return c.AssetMetrics(ctx, args, metric)
		}),
	}
	metrics.Flags().StringVar(&metric, "metric", "", "Single metric to request, e.g. market_data")

	marketData := &cobra.Command{
		Use:   "market-data SLUG...",
		Short: "Latest market data per asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, args []string) (*normalizer.Frame, error) {
			return c.MarketData(ctx, args)
		}),
	}

	var section string

	profile := &cobra.Command{
		Use:   "profile SLUG...",
		Short: "Qualitative profile per asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, args []string) (*normalizer.Frame, error) {
			return c.AssetProfile(ctx, args, section)
		}),
	}
	profile.Flags().StringVar(&section, "section", "", "Profile section to request, e.g. general")

	var q messari.AssetQuery

	assets := &cobra.Command{
		Use:   "assets",
		Short: "One page of the asset listing",
		Args:  cobra.NoArgs,
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, _ []string) (*normalizer.Frame, error) {
			return c.AllAssets(ctx, q)
		}),
	}
	assets.Flags().IntVar(&q.Page, "page", 1, "Page number, starting at 1")
	assets.Flags().IntVar(&q.Limit, "limit", 20, "Assets per page, at most 500")
	assets.Flags().StringSliceVar(&q.Fields, "fields", nil, "Fields to request")
	assets.Flags().StringVar(&q.Metric, "metric", "", "Metric drill-down")

	var page, limit int

	markets := &cobra.Command{
		Use:   "markets",
		Short: "One page of exchange pairs",
		Args:  cobra.NoArgs,
		RunE: frameRun(a, a.messari, func(ctx context.Context, c *messari.Client, _ []string) (*normalizer.Frame, error) {
			return c.Markets(ctx, page, limit)
		}),
	}
	markets.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	markets.Flags().IntVar(&limit, "limit", 20, "Markets per page, at most 500")

	var interval string

	timeseries := &cobra.Command{
		Use:   "timeseries METRIC SLUG...",
		Short: "History of one metric per asset",
		Args:  cobra.MinimumNArgs(2),
		RunE: seriesRun(a, a.messari, func(ctx context.Context, c *messari.Client, args []string) (*normalizer.TimeSeries, error) {
			return c.MetricTimeseries(ctx, args[1:], args[0], messari.TimeseriesQuery{Range: a.dates, Interval: interval})
		}),
	}
	timeseries.Flags().StringVar(&interval, "interval", messari.DefaultInterval, "Sampling interval, e.g. 1d or 1w")

	cmd.AddCommand(asset, metrics, marketData, profile, assets, markets, timeseries)

	return cmd
}
