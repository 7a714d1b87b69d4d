package main

import (
	"context"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider/solscan"
)

func (a *app) solscan() (*solscan.Client, error) {
	opts, err := a.options(config.Solscan)
	if err != nil {
		return nil, err
	}

	return solscan.New(a.client, opts), nil
}

type solscanFetch func(ctx context.Context, c *solscan.Client, ids []string) (*normalizer.Frame, error)

// solscanList builds a command taking one or more identifiers.
func solscanList(a *app, use, short string, fetch solscanFetch) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE:  frameRun(a, a.solscan, fetch),
	}
}

// byID adapts a method expression such as (*solscan.Client).Block.
func byID(method func(*solscan.Client, context.Context, []string) (*normalizer.Frame, error)) solscanFetch {
	return func(ctx context.Context, c *solscan.Client, ids []string) (*normalizer.Frame, error) {
		return method(c, ctx, ids)
	}
}

func newSolscanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solscan",
		Short: "Solscan Solana block, account and token data",
	}

	var n int

	lastBlocks := &cobra.Command{
		Use:   "last-blocks",
		Short: "Most recent blocks",
		Args:  cobra.NoArgs,
		RunE: frameRun(a, a.solscan, func(ctx context.Context, c *solscan.Client, _ []string) (*normalizer.Frame, error) {
			return c.LastBlocks(ctx, n)
		}),
	}
	lastBlocks.Flags().IntVarP(&n, "count", "n", 1, "Number of blocks, at most 20")

	var m int

	lastTxns := &cobra.Command{
		Use:   "last-transactions",
		Short: "Most recent transactions",
		Args:  cobra.NoArgs,
		RunE: frameRun(a, a.solscan, func(ctx context.Context, c *solscan.Client, _ []string) (*normalizer.Frame, error) {
			return c.LastTransactions(ctx, m)
		}),
	}
	lastTxns.Flags().IntVarP(&m, "count", "n", 10, "Number of transactions, at most 20")

	var page solscan.Page

	blockTxns := solscanList(a, "block-transactions BLOCK...", "Transactions per block",
		func(ctx context.Context, c *solscan.Client, args []string) (*normalizer.Frame, error) {
			return c.BlockTransactions(ctx, args, page)
		})
	blockTxns.Flags().IntVar(&page.Offset, "offset", 0, "Rows to skip")
	blockTxns.Flags().IntVar(&page.Limit, "limit", 10, "Rows per block")

	var holderPage solscan.Page

	holders := solscanList(a, "holders TOKEN...", "Holders per token",
		func(ctx context.Context, c *solscan.Client, args []string) (*normalizer.Frame, error) {
			return c.TokenHolders(ctx, args, holderPage)
		})
	holders.Flags().IntVar(&holderPage.Offset, "offset", 0, "Rows to skip")
	holders.Flags().IntVar(&holderPage.Limit, "limit", 10, "Rows per token")

	var tq solscan.TransferQuery

	solTransfers := solscanList(a, "sol-transfers ACCOUNT...", "SOL transfers per account",
		func(ctx context.Context, c *solscan.Client, args []string) (*normalizer.Frame, error) {
			return c.AccountSolTransfers(ctx, args, tq)
		})
	splTransfers := solscanList(a, "spl-transfers ACCOUNT...", "SPL token transfers per account",
		func(ctx context.Context, c *solscan.Client, args []string) (*normalizer.Frame, error) {
			return c.AccountSplTransfers(ctx, args, tq)
		})

	for _, c := range []*cobra.Command{solTransfers, splTransfers} {
		c.Flags().Int64Var(&tq.FromTime, "from", 0, "Earliest unix time")
		c.Flags().Int64Var(&tq.ToTime, "to", 0, "Latest unix time")
		c.Flags().IntVar(&tq.Offset, "offset", 0, "Rows to skip")
		c.Flags().IntVar(&tq.Limit, "limit", 10, "Rows per account")
	}

	cmd.AddCommand(
		lastBlocks,
		lastTxns,
		solscanList(a, "block BLOCK...", "Details per block", byID((*solscan.Client).Block)),
		blockTxns,
		solscanList(a, "transaction SIGNATURE...", "Details per transaction", byID((*solscan.Client).Transaction)),
		solscanList(a, "account ACCOUNT...", "Overview per account", byID((*solscan.Client).Account)),
		solscanList(a, "tokens ACCOUNT...", "Token accounts per account", byID((*solscan.Client).AccountTokens)),
		solscanList(a, "stake ACCOUNT...", "Stake accounts per account", byID((*solscan.Client).AccountStake)),
		solTransfers,
		splTransfers,
		holders,
		solscanList(a, "token-meta TOKEN...", "Metadata per token", byID((*solscan.Client).TokenMeta)),
		solscanList(a, "market TOKEN...", "Market data per token", byID((*solscan.Client).MarketInfo)),
		&cobra.Command{
			Use:   "chain-info",
			Short: "Network statistics",
			Args:  cobra.NoArgs,
			RunE: documentRun(a, a.solscan, func(ctx context.Context, c *solscan.Client) (document.Value, error) {
				return c.ChainInfo(ctx)
			}),
		},
	)

	return cmd
}
