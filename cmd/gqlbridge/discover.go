package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gqlbridge/internal/config"
	"gqlbridge/internal/explore"
	"gqlbridge/internal/graphql"
)

func discoverCmd() *cobra.Command {
	var (
		configPath  string
		topK        int
		noConstrain bool
	)
	cmd := &cobra.Command{
		Use:   "discover <query>",
		Short: "Rank schema fields against a task description, one-shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			client := graphql.NewClient(cfg.Endpoint, graphql.WithHeaders(cfg.Headers))
			schema, err := client.IntrospectSchema(ctx)
			if err != nil {
				return err
			}
			snaps := graphql.NewSnapshotStore()
			snaps.Replace(schema)

			cache, cleanup, err := openCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			agentic := explore.NewAgentic(snaps, cache, cfg.Discover.TopK, !noConstrain)
			res, err := agentic.Discover(ctx, explore.NewState(), args[0], topK)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Degraded {
				fmt.Fprintln(out, "# embedding provider unavailable, ranked lexically")
			}
			for _, m := range res.Matches {
				fmt.Fprintf(out, "%.3f  %s.%s: %s\n", m.Score, m.Entry.TypeName, m.Entry.FieldName, m.Entry.Signature)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "gqlbridge.yaml", "path to the config file")
	cmd.Flags().IntVar(&topK, "top-k", 0, "how many fields to return, 0 uses the config value")
	cmd.Flags().BoolVar(&noConstrain, "no-constrain", false, "skip the connectedness constraint")
	return cmd
}
