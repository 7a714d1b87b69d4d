package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"cryptodata/internal/document"
	"cryptodata/internal/formatter"
	"cryptodata/internal/normalizer"
)

// frameRun connects a client and emits the frame fetch returns.
func frameRun[C any](a *app, connect func() (C, error), fetch func(context.Context, C, []string) (*normalizer.Frame, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}

		f, err := fetch(cmd.Context(), c, args)
		if err != nil {
			return err
		}

		return a.emitFrame(f)
	}
}

// seriesRun connects a client and emits the series fetch returns.
func seriesRun[C any](a *app, connect func() (C, error), fetch func(context.Context, C, []string) (*normalizer.TimeSeries, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}

		ts, err := fetch(cmd.Context(), c, args)
		if err != nil {
			return err
		}

		return a.emitSeries(ts)
	}
}

// documentRun connects a client and emits the raw document fetch returns.
func documentRun[C any](a *app, connect func() (C, error), fetch func(context.Context, C) (document.Value, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c, err := connect()
		if err != nil {
			return err
		}

		doc, err := fetch(cmd.Context(), c)
		if err != nil {
			return err
		}

		t, err := formatter.FromDocument(doc)
		if err != nil {
			return err
		}

		return a.emit(t)
	}
}

// listFrame lays items out in one column, labelled by position.
func listFrame(column string, items []string) (*normalizer.Frame, error) {
	index := make([]string, len(items))
	values := make([]document.Value, len(items))

	for i, item := range items {
		index[i] = strconv.Itoa(i)
		values[i] = document.String(item)
	}

	f := normalizer.NewFrame(index)
	if err := f.AddColumn(normalizer.Key{column}, values); err != nil {
		return nil, err
	}

	return f, nil
}
