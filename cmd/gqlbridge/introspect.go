package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gqlbridge/internal/config"
	"gqlbridge/internal/graphql"
)

func introspectCmd() *cobra.Command {
	var (
		configPath string
		endpoint   string
	)
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Print the origin schema as SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := originClient(configPath, endpoint)
			if err != nil {
				return err
			}
			schema, err := client.IntrospectSchema(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), graphql.RenderSchema(schema))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "gqlbridge.yaml", "path to the config file")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "origin endpoint, overrides the config file")
	return cmd
}

// originClient builds a client from the endpoint flag when given, so
// one-shot commands work without a config file.
func originClient(configPath, endpoint string) (*graphql.Client, error) {
	if endpoint != "" {
		return graphql.NewClient(endpoint), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return graphql.NewClient(cfg.Endpoint, graphql.WithHeaders(cfg.Headers)), nil
}
