// Package solscan wraps the Solscan public Solana explorer API.
package solscan

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/fetch"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://public-api.solscan.io"

// MaxLast caps LastBlocks and LastTransactions.
const MaxLast = 20

// browserUserAgent is sent in place of the default agent, which the public
// API rejects.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/96.0.4664.45 Safari/537.36"

// Client is a Solscan API client.
type Client struct {
	base *provider.Base
}

// New creates a client.
func New(client *fetch.Client, opts provider.Options) *Client {
	headers := map[string]string{"User-Agent": browserUserAgent}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	opts.Headers = headers

	return &Client{base: provider.NewBase(config.Solscan, DefaultBaseURL, client, opts)}
}

// Page is an offset and page size.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) params() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(p.Offset))
	params.Set("limit", strconv.Itoa(limit))

	return params
}

// TransferQuery pages an account's transfers, optionally bounded by unix
// times.
type TransferQuery struct {
	Page
	FromTime int64
	ToTime   int64
}

func (q TransferQuery) params(account string) url.Values {
	params := q.Page.params()
	params.Set("account", account)

	if q.FromTime > 0 {
		params.Set("fromTime", strconv.FormatInt(q.FromTime, 10))
	}

	if q.ToTime > 0 {
		params.Set("toTime", strconv.FormatInt(q.ToTime, 10))
	}

	return params
}

// LastBlocks returns the n most recent blocks, flattened one per row. n is
// clamped to [1, MaxLast].
func (c *Client) LastBlocks(ctx context.Context, n int) (*normalizer.Frame, error) {
	return c.last(ctx, "block", n)
}

// LastTransactions returns the n most recent transactions, flattened one per
// row. n is clamped to [1, MaxLast].
func (c *Client) LastTransactions(ctx context.Context, n int) (*normalizer.Frame, error) {
	return c.last(ctx, "transaction", n)
}

func (c *Client) last(ctx context.Context, kind string, n int) (*normalizer.Frame, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(min(max(n, 1), MaxLast)))

	doc, err := c.base.Get(ctx, params, kind, "last")
	if err != nil {
		return nil, err
	}

	items, err := provider.Items(doc)
	if err != nil {
		return nil, err
	}

	return flatRows(items)
}

// Block returns each block's details, one column per block.
func (c *Client) Block(ctx context.Context, blocks []string) (*normalizer.Frame, error) {
	return details(blocks, func(block string) (document.Value, error) {
		return c.base.Get(ctx, nil, "block", block)
	})
}

// Transaction returns each transaction's details, one column per signature.
func (c *Client) Transaction(ctx context.Context, signatures []string) (*normalizer.Frame, error) {
	return details(signatures, func(sig string) (document.Value, error) {
		return c.base.Get(ctx, nil, "transaction", sig)
	})
}

// Account returns each account's overview, one column per account.
func (c *Client) Account(ctx context.Context, accounts []string) (*normalizer.Frame, error) {
	return details(accounts, func(account string) (document.Value, error) {
		return c.base.Get(ctx, nil, "account", account)
	})
}

// TokenMeta returns each token's metadata, one column per token address.
func (c *Client) TokenMeta(ctx context.Context, tokens []string) (*normalizer.Frame, error) {
	return details(tokens, func(token string) (document.Value, error) {
		return c.base.Get(ctx, url.Values{"tokenAddress": {token}}, "token", "meta")
	})
}

// MarketInfo returns each token's market data, one column per token address.
func (c *Client) MarketInfo(ctx context.Context, tokens []string) (*normalizer.Frame, error) {
	return details(tokens, func(token string) (document.Value, error) {
		return c.base.Get(ctx, nil, "market", "token", token)
	})
}

// BlockTransactions returns a page of each block's transactions, grouped
// under the block number.
func (c *Client) BlockTransactions(ctx context.Context, blocks []string, p Page) (*normalizer.Frame, error) {
	return lists(blocks, func(block string) (document.Value, error) {
		params := p.params()
		params.Set("block", block)

		return c.base.Get(ctx, params, "block", "transactions")
	})
}

// AccountTokens returns the token accounts each account owns, grouped under
// the account.
func (c *Client) AccountTokens(ctx context.Context, accounts []string) (*normalizer.Frame, error) {
	return lists(accounts, func(account string) (document.Value, error) {
		return c.base.Get(ctx, url.Values{"account": {account}}, "account", "tokens")
	})
}

// AccountSolTransfers returns each account's SOL transfers, grouped under the
// account.
func (c *Client) AccountSolTransfers(ctx context.Context, accounts []string, q TransferQuery) (*normalizer.Frame, error) {
	return lists(accounts, func(account string) (document.Value, error) {
		return c.dataField(ctx, q.params(account), "account", "solTransfers")
	})
}

// AccountSplTransfers returns each account's SPL token transfers, grouped
// under the account.
func (c *Client) AccountSplTransfers(ctx context.Context, accounts []string, q TransferQuery) (*normalizer.Frame, error) {
	return lists(accounts, func(account string) (document.Value, error) {
		return c.dataField(ctx, q.params(account), "account", "splTransfers")
	})
}

// TokenHolders returns a page of each token's holders, grouped under the
// token address.
func (c *Client) TokenHolders(ctx context.Context, tokens []string, p Page) (*normalizer.Frame, error) {
	return lists(tokens, func(token string) (document.Value, error) {
		params := p.params()
		params.Set("tokenAddress", token)

		return c.dataField(ctx, params, "token", "holders")
	})
}

// AccountStake returns each account's stake accounts, one row per stake
// account, grouped under the owning account.
func (c *Client) AccountStake(ctx context.Context, accounts []string) (*normalizer.Frame, error) {
	table, err := collect(accounts, func(account string) (document.Value, error) {
		return c.base.Get(ctx, url.Values{"account": {account}}, "account", "stakeAccounts")
	})
	if err != nil {
		return nil, err
	}

	set, err := normalizer.UnpackDicts(table)
	if err != nil {
		return nil, fmt.Errorf("stake accounts: %w", err)
	}

	return set.Concat(), nil
}

// ChainInfo returns network-wide statistics.
func (c *Client) ChainInfo(ctx context.Context) (document.Value, error) {
	return c.base.Get(ctx, nil, "chaininfo")
}

func (c *Client) dataField(ctx context.Context, params url.Values, path ...string) (document.Value, error) {
	doc, err := c.base.Get(ctx, params, path...)
	if err != nil {
		return document.Value{}, err
	}

	return provider.Field(doc, "data")
}

type getter func(id string) (document.Value, error)

// collect fetches one document per id into an entity table.
func collect(ids []string, get getter) (*normalizer.EntityTable, error) {
	ids, err := provider.ValidateInput(ids)
	if err != nil {
		return nil, err
	}

	table := normalizer.NewEntityTable()

	for _, id := range ids {
		doc, err := get(id)
		if err != nil {
			return nil, err
		}

		table.AddDocument(id, doc)
	}

	return table, nil
}

// details lays flattened objects out one column per id.
func details(ids []string, get getter) (*normalizer.Frame, error) {
	table, err := collect(ids, func(id string) (document.Value, error) {
		doc, err := get(id)
		if err != nil {
			return document.Value{}, err
		}

		if doc.Kind() != document.KindObject {
			return document.Value{}, &normalizer.ShapeError{Entity: id, Expected: document.KindObject, Got: doc.Kind()}
		}

		return normalizer.Flatten(doc, "", normalizer.DefaultSeparator).Document(), nil
	})
	if err != nil {
		return nil, err
	}

	return table.Frame(), nil
}

// lists expands array replies into sub-tables grouped per id.
func lists(ids []string, get getter) (*normalizer.Frame, error) {
	table, err := collect(ids, get)
	if err != nil {
		return nil, err
	}

	set, err := normalizer.UnpackLists(table)
	if err != nil {
		return nil, err
	}

	return set.Concat(), nil
}

// flatRows flattens each object into a row labelled by position.
func flatRows(items []document.Value) (*normalizer.Frame, error) {
	index := make([]string, len(items))
	records := make([]normalizer.FlatRecord, len(items))

	for i, item := range items {
		if item.Kind() != document.KindObject {
			return nil, &normalizer.ShapeError{Row: i, Expected: document.KindObject, Got: item.Kind()}
		}

		index[i] = strconv.Itoa(i)
		records[i] = normalizer.Flatten(item, "", normalizer.DefaultSeparator)
	}

	return normalizer.FrameFromFlat(index, records)
}
