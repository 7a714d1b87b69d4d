// Package deepdao wraps the DeepDAO governance backend.
package deepdao

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/fetch"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
)

// DefaultBaseURL is the backend root.
const DefaultBaseURL = "https://backend.deepdao.io"

// dashboardKey is the fixed path segment of the dashboard and DAO endpoints.
const dashboardKey = "ksdf3ksa-937slj3"

// DefaultPeopleSort orders People by DAO membership count.
const DefaultPeopleSort = "daoAmount"

// ErrUnknownDAO is returned for a DAO name missing from the dashboard.
var ErrUnknownDAO = errors.New("dao not listed on dashboard")

// Client is a DeepDAO client. The DAO name to id map is read from the
// dashboard on first use and kept for the client's lifetime.
type Client struct {
	base *provider.Base

	mu  sync.Mutex
	ids *normalizer.TaxonomyMap
}

// New creates a client.
func New(client *fetch.Client, opts provider.Options) *Client {
	return &Client{base: provider.NewBase(config.DeepDAO, DefaultBaseURL, client, opts)}
}

// PeopleQuery pages the People ranking.
type PeopleQuery struct {
	SortBy string
	Limit  int
	Offset int
}

// Organizations returns the listed organizations, one row each.
func (c *Client) Organizations(ctx context.Context) (*normalizer.Frame, error) {
	doc, err := c.base.Get(ctx, nil, "dashboard", "organizations")
	if err != nil {
		return nil, err
	}

	return provider.Records(doc)
}

// Dashboard returns the raw dashboard document.
func (c *Client) Dashboard(ctx context.Context) (document.Value, error) {
	return c.base.Get(ctx, nil, "dashboard", dashboardKey)
}

// IDMap returns the DAO name to id map from the dashboard summary.
func (c *Client) IDMap(ctx context.Context) (normalizer.TaxonomyMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ids != nil {
		return *c.ids, nil
	}

	dashboard, err := c.Dashboard(ctx)
	if err != nil {
		return normalizer.TaxonomyMap{}, err
	}

	daos, err := provider.Items(dashboard, "daosSummary")
	if err != nil {
		return normalizer.TaxonomyMap{}, err
	}

	ids := make(map[string]string, len(daos))

	for i, dao := range daos {
		name, okName := dao.Get("daoName")
		id, okID := dao.Get("daoId")

		if !okName || !okID {
			return normalizer.TaxonomyMap{}, fmt.Errorf("%w: daosSummary entry %d", provider.ErrMissingField, i)
		}

		ids[name.String()] = id.String()
	}

	m := normalizer.NewTaxonomyMap(ids)
	c.ids = &m

	c.base.Logger().Debug("loaded dao ids", "count", m.Len())

	return m, nil
}

// DAOInfo returns the details of each named DAO, one column per name and
// one row per field.
func (c *Client) DAOInfo(ctx context.Context, names []string) (*normalizer.Frame, error) {
	names, err := provider.ValidateInput(names)
	if err != nil {
		return nil, err
	}

	ids, err := c.IDMap(ctx)
	if err != nil {
		return nil, err
	}

	table := normalizer.NewEntityTable()

	for _, name := range names {
		id, ok := ids.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDAO, name)
		}

		doc, err := c.base.Get(ctx, nil, "dao", dashboardKey, id)
		if err != nil {
			return nil, err
		}

		table.AddDocument(name, doc)
	}

	return table.Frame(), nil
}

// PeopleStats returns aggregate participant statistics.
func (c *Client) PeopleStats(ctx context.Context) (document.Value, error) {
	return c.base.Get(ctx, nil, "people", "stats")
}

// People returns a page of the top participants, one row each. Zero values
// in q select 50 rows from the start sorted by DefaultPeopleSort.
func (c *Client) People(ctx context.Context, q PeopleQuery) (*normalizer.Frame, error) {
	if q.Limit == 0 {
		q.Limit = 50
	}

	if q.SortBy == "" {
		q.SortBy = DefaultPeopleSort
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("sortBy", q.SortBy)

	doc, err := c.base.Get(ctx, params, "people", "top")
	if err != nil {
		return nil, err
	}

	return provider.Records(doc)
}

// Users returns each user's profile, one column per address and one row per
// field.
func (c *Client) Users(ctx context.Context, users []string) (*normalizer.Frame, error) {
	table, err := c.perUser(ctx, users, "")
	if err != nil {
		return nil, err
	}

	return table.Frame(), nil
}

// UserProposals returns the proposals each user authored, grouped under the
// user's address.
func (c *Client) UserProposals(ctx context.Context, users []string) (*normalizer.Frame, error) {
	return c.userLists(ctx, users, "proposals")
}

// UserVotes returns the votes each user cast, grouped under the user's
// address.
func (c *Client) UserVotes(ctx context.Context, users []string) (*normalizer.Frame, error) {
	return c.userLists(ctx, users, "votes")
}

func (c *Client) userLists(ctx context.Context, users []string, section string) (*normalizer.Frame, error) {
	table, err := c.perUser(ctx, users, section)
	if err != nil {
		return nil, err
	}

	set, err := normalizer.UnpackLists(table)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", section, err)
	}

	return set.Concat(), nil
}

func (c *Client) perUser(ctx context.Context, users []string, section string) (*normalizer.EntityTable, error) {
	users, err := provider.ValidateInput(users)
	if err != nil {
		return nil, err
	}

	table := normalizer.NewEntityTable()

	for _, user := range users {
		path := []string{"user", user}
		if section != "" {
			path = append(path, section)
		}

		doc, err := c.base.Get(ctx, nil, path...)
		if err != nil {
			return nil, err
		}

		table.AddDocument(user, doc)
	}

	return table, nil
}
