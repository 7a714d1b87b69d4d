package main

import (
	"context"

	"github.com/spf13/cobra"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider/deepdao"
)

func (a *app) deepdao() (*deepdao.Client, error) {
	opts, err := a.options(config.DeepDAO)
	if err != nil {
		return nil, err
	}

	return deepdao.New(a.client, opts), nil
}

func newDeepDAOCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepdao",
		Short: "DeepDAO organization and participant data",
	}

	var q deepdao.PeopleQuery

	people := &cobra.Command{
		Use:   "people",
		Short: "Top participants",
		Args:  cobra.NoArgs,
		RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, _ []string) (*normalizer.Frame, error) {
			return c.People(ctx, q)
		}),
	}
	people.Flags().IntVar(&q.Limit, "limit", 50, "Participants per page")
	people.Flags().IntVar(&q.Offset, "offset", 0, "Participants to skip")
	people.Flags().StringVar(&q.SortBy, "sort", deepdao.DefaultPeopleSort, "Ranking field")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "organizations",
			Short: "List organizations",
			Args:  cobra.NoArgs,
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, _ []string) (*normalizer.Frame, error) {
				return c.Organizations(ctx)
			}),
		},
		&cobra.Command{
			Use:   "dashboard",
			Short: "Dashboard summary",
			Args:  cobra.NoArgs,
			RunE: documentRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client) (document.Value, error) {
				return c.Dashboard(ctx)
			}),
		},
		&cobra.Command{
			Use:   "ids",
			Short: "DAO name to id map",
			Args:  cobra.NoArgs,
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, _ []string) (*normalizer.Frame, error) {
				m, err := c.IDMap(ctx)
				if err != nil {
					return nil, err
				}

				return taxonomyFrame(m)
			}),
		},
		&cobra.Command{
			Use:   "dao NAME...",
			Short: "Details per DAO",
			Args:  cobra.MinimumNArgs(1),
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, args []string) (*normalizer.Frame, error) {
				return c.DAOInfo(ctx, args)
			}),
		},
		people,
		&cobra.Command{
			Use:   "people-stats",
			Short: "Participant statistics",
			Args:  cobra.NoArgs,
			RunE: documentRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client) (document.Value, error) {
				return c.PeopleStats(ctx)
			}),
		},
		&cobra.Command{
			Use:   "users ADDRESS...",
			Short: "Profile per user",
			Args:  cobra.MinimumNArgs(1),
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, args []string) (*normalizer.Frame, error) {
				return c.Users(ctx, args)
			}),
		},
		&cobra.Command{
			Use:   "proposals ADDRESS...",
			Short: "Proposals per user",
			Args:  cobra.MinimumNArgs(1),
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, args []string) (*normalizer.Frame, error) {
				return c.UserProposals(ctx, args)
			}),
		},
		&cobra.Command{
			Use:   "votes ADDRESS...",
			Short: "Votes per user",
			Args:  cobra.MinimumNArgs(1),
			RunE: frameRun(a, a.deepdao, func(ctx context.Context, c *deepdao.Client, args []string) (*normalizer.Frame, error) {
				return c.UserVotes(ctx, args)
			}),
		},
	)

	return cmd
}
