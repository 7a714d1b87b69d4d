package main

import (
	"github.com/spf13/cobra"

	"cryptodata/internal/document"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/taxonomy"
)

// assetPageSize is the largest page the Messari asset listing serves.
const assetPageSize = 500

func newTaxonomyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Build and inspect identifier translation files",
	}

	var out, overridesPath string

	update := &cobra.Command{
		Use:   "update",
		Short: "Rebuild the Messari to DeFi Llama taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			llama, err := a.defillama()
			if err != nil {
				return err
			}

			msr, err := a.messari()
			if err != nil {
				return err
			}

			overrides, err := taxonomy.LoadFile(overridesPath, a.log)
			if err != nil {
				return err
			}

			slugs, err := llama.Slugs(ctx)
			if err != nil {
				return err
			}

			assets, err := taxonomy.CollectAssets(ctx, msr.AssetPage, assetPageSize)
			if err != nil {
				return err
			}

			res := taxonomy.Build(slugs, assets, overrides.Entries())

			for _, k := range res.Overlaps {
				a.log.Warn("override replaces a mapped slug", "key", k)
			}

			a.log.Info("taxonomy rebuilt",
				"entries", res.Map.Len(),
				"assets", len(assets),
				"untranslated", len(res.Untranslated))

			if err := taxonomy.SaveFile(out, res.Map); err != nil {
				return err
			}

			a.log.Info("taxonomy saved", "path", out)

			return nil
		},
	}
	update.Flags().StringVar(&out, "out", "messari_to_dl.json", "File to write")
	update.Flags().StringVar(&overridesPath, "overrides", "", "JSON file of manual mappings applied last")

	show := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a taxonomy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := taxonomy.LoadFile(args[0], a.log)
			if err != nil {
				return err
			}

			f, err := taxonomyFrame(m)
			if err != nil {
				return err
			}

			return a.emitFrame(f)
		},
	}

	cmd.AddCommand(update, show)

	return cmd
}

// taxonomyFrame lists a map's entries sorted by identifier.
func taxonomyFrame(m normalizer.TaxonomyMap) (*normalizer.Frame, error) {
	ids := m.IDs()
	values := make([]document.Value, len(ids))

	for i, id := range ids {
		s, _ := m.Lookup(id)
		values[i] = document.String(s)
	}

	f := normalizer.NewFrame(ids)
	if err := f.AddColumn(normalizer.Key{"target"}, values); err != nil {
		return nil, err
	}

	return f, nil
}
