package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export per-city statistics to XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		statusFlag, _ := cmd.Flags().GetString("status")
		path, _ := cmd.Flags().GetString("out")

		filter, err := casemap.ParseStatus(statusFlag)
		if err != nil {
			return err
		}

		env, err := initApp(cfg, "cli")
		if err != nil {
			return err
		}

		cities, err := env.Maps.Cities(ctx)
		if err != nil {
			return eris.Wrap(err, "export: load cities")
		}
		v := casemap.BuildView(cities, filter, env.Maps.Gazetteer())
		if err := report.SaveXLSX(path, v, casemap.FilterCities(cities, filter)); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("path", path), zap.Int("markers", len(v.Markers)))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cities to %s\n", len(v.Markers), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("status", "ALL", "status filter: ALL, MISSING or FOUND")
	exportCmd.Flags().StringP("out", "o", "casemap.xlsx", "output file")
	rootCmd.AddCommand(exportCmd)
}
