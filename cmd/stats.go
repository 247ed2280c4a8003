package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pjc-mt/casemap/internal/stats"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print missing/located totals",
	Long:  "Prints the published totals. With --advanced, adds hourly rates, gender and age breakdowns and the 24 hour trend.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		advanced, _ := cmd.Flags().GetBool("advanced")
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := initApp(cfg, "cli")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !advanced {
			st, err := env.Stats.Basic(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(out, st)
			}
			fmt.Fprintf(out, "Desaparecidos: %d\nLocalizados:   %d\n", st.Missing, st.Found)
			return nil
		}

		a, err := env.Stats.Advanced(ctx, time.Now())
		if err != nil {
			return eris.Wrap(err, "stats: advanced")
		}
		if asJSON {
			return writeIndentedJSON(out, a)
		}
		printAdvanced(out, a)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("advanced", false, "include rates, breakdowns and the hourly trend")
	statsCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(statsCmd)
}

func printAdvanced(w io.Writer, a *stats.Advanced) {
	fmt.Fprintf(w, "Desaparecidos: %d (%.2f/h nas últimas 24h)\n", a.TotalMissing, a.MissingPerHour)
	fmt.Fprintf(w, "Localizados:   %d (%.2f/h)\n\n", a.TotalFound, a.FoundPerHour)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEXO\tDESAPARECIDOS\tLOCALIZADOS")
	for _, sex := range []string{abitus.SexMale, abitus.SexFemale} {
		g := a.ByGender[sex]
		fmt.Fprintf(tw, "%s\t%d\t%d\n", sex, g.Missing, g.Found)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IDADE\tDESAPARECIDOS\tLOCALIZADOS")
	for _, b := range a.ByAge {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", b.Label, b.Missing, b.Found)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HORA\tDESAPARECIDOS\tLOCALIZADOS")
	for _, p := range a.Trend {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", p.Hour, p.Missing, p.Found)
	}
	_ = tw.Flush()
}
