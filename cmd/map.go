package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pjc-mt/casemap/internal/casemap"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the map markers, clusters and legend",
	Long:  "Builds the map view for a status filter from the police API and prints it as a table, JSON or GeoJSON. With --city, prints that city's cases.",
	RunE:  runMap,
}

func init() {
	mapCmd.Flags().String("status", "ALL", "status filter: ALL, MISSING or FOUND")
	mapCmd.Flags().String("format", "table", "output format: table, json or geojson")
	mapCmd.Flags().String("city", "", "print the detail of one city")
	mapCmd.Flags().Int("limit", 0, "cases listed with --city (default from config)")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statusFlag, _ := cmd.Flags().GetString("status")
	format, _ := cmd.Flags().GetString("format")
	city, _ := cmd.Flags().GetString("city")
	limit, _ := cmd.Flags().GetInt("limit")

	filter, err := casemap.ParseStatus(statusFlag)
	if err != nil {
		return err
	}

	env, err := initApp(cfg, "cli")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if city != "" {
		detail, ok, err := env.Maps.City(ctx, city, limit)
		if err != nil {
			return eris.Wrap(err, "map: city detail")
		}
		if !ok {
			return eris.Errorf("map: no cases for city %q", city)
		}
		if format == "json" {
			return writeIndentedJSON(out, detail)
		}
		printCity(out, detail)
		return nil
	}

	v, err := env.Maps.View(ctx, filter)
	if err != nil {
		return eris.Wrap(err, "map: build view")
	}

	switch format {
	case "json":
		return writeIndentedJSON(out, v)
	case "geojson":
		data, err := casemap.MarshalGeoJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "table":
		printView(out, v)
		return nil
	default:
		return eris.Errorf("map: unknown format %q", format)
	}
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printView(w io.Writer, v casemap.MapView) {
	if v.Empty {
		fmt.Fprintln(w, v.EmptyMessage)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tMISSING\tFOUND\tVALUE\tINTENSITY\tCOLOR")
	for _, m := range v.Markers {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\t%s\n",
			m.City, m.MissingCount, m.FoundCount, m.BaseValue, m.Intensity,
			casemap.ColorForIntensity(m.Intensity, v.Category))
	}
	_ = tw.Flush()

	if v.Clustered {
		fmt.Fprintf(w, "\n%d clusters (more than %d markers)\n", len(v.Clusters), casemap.ClusterThreshold)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CELL\tCOUNT\tVALUE\tINTENSITY\tCITIES")
		for _, c := range v.Clusters {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%v\n", c.Cell, c.Count, c.ValueSum, c.Intensity, c.Cities)
		}
		_ = tw.Flush()
	}

	if l := v.Legend; l != nil {
		if l.IsUniform {
			fmt.Fprintf(w, "\n%s: %d\n", l.Title, l.Min)
		} else {
			fmt.Fprintf(w, "\n%s: min %d, mid %d, max %d\n", l.Title, l.Min, l.Mid, l.Max)
		}
	}
}

func printCity(w io.Writer, c casemap.CityCaseStats) {
	fmt.Fprintf(w, "%s/%s: %d missing, %d found\n", c.City, c.State, c.MissingCount, c.FoundCount)
	if len(c.Cases) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tSTATUS\tSINCE")
	for _, cs := range c.Cases {
		since := ""
		if !cs.MissingSince.IsZero() {
			since = cs.MissingSince.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", cs.ID, cs.Name, cs.Age, cs.Status, since)
	}
	_ = tw.Flush()
}
