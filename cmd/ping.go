package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the police API is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cfg, "cli")
		if err != nil {
			return err
		}
		if !env.Client.Ping(cmd.Context()) {
			return eris.Errorf("ping: %s unreachable", cfg.Abitus.BaseURL)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", cfg.Abitus.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
